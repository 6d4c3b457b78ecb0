package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEventType represents the type of payment event
type PaymentEventType string

const (
	PaymentEventCardCheck                PaymentEventType = "card_check"
	PaymentEventChargeSucceeded          PaymentEventType = "charge_succeeded"
	PaymentEventChargeFailed             PaymentEventType = "charge_failed"
	PaymentEventBookingConfirmed         PaymentEventType = "booking_confirmed"
	PaymentEventBookingConfirmFailed     PaymentEventType = "booking_confirmation_failed"
	PaymentEventRefundCompleted          PaymentEventType = "refund_completed"
	PaymentEventRefundFailed             PaymentEventType = "refund_failed"
	PaymentEventInvalidGatewayResponse   PaymentEventType = "invalid_gateway_response"
	PaymentEventTicketIssueAttemptsSpent PaymentEventType = "ticket_issue_exhausted"
)

// PaymentAudit is an append-only record of a payment interaction within a booking
type PaymentAudit struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	HoldID       *uuid.UUID       `json:"hold_id,omitempty" db:"hold_id"`
	EventType    PaymentEventType `json:"event_type" db:"event_type"`
	CustomerID   *int64           `json:"customer_id,omitempty" db:"customer_id"`
	ExpeditionID *int64           `json:"expedition_id,omitempty" db:"expedition_id"`
	SeatNo       *int             `json:"seat_no,omitempty" db:"seat_no"`
	CardID       *int64           `json:"card_id,omitempty" db:"card_id"`
	PaymentID    *int64           `json:"payment_id,omitempty" db:"payment_id"`
	AmountCents  *int64           `json:"amount_cents,omitempty" db:"amount_cents"`
	Currency     *string          `json:"currency,omitempty" db:"currency"`
	PNR          *string          `json:"pnr,omitempty" db:"pnr"`

	// Downstream response
	HTTPStatusCode  *int    `json:"http_status_code,omitempty" db:"http_status_code"`
	EndpointURL     *string `json:"endpoint_url,omitempty" db:"endpoint_url"`
	ResponsePayload JSONB   `json:"response_payload,omitempty" db:"response_payload"`
	RawBody         *string `json:"raw_body,omitempty" db:"raw_body"`

	ErrorMessage     *string   `json:"error_message,omitempty" db:"error_message"`
	ProcessingTimeMs *int      `json:"processing_time_ms,omitempty" db:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// NewPaymentAudit creates a new payment audit entry for one booking attempt
func NewPaymentAudit(eventType PaymentEventType, holdID uuid.UUID) *PaymentAudit {
	return &PaymentAudit{
		ID:        uuid.New(),
		HoldID:    &holdID,
		EventType: eventType,
		CreatedAt: time.Now(),
	}
}

// SetBooking records who booked what
func (pa *PaymentAudit) SetBooking(customerID, expeditionID int64, seatNo int, cardID int64) *PaymentAudit {
	pa.CustomerID = &customerID
	pa.ExpeditionID = &expeditionID
	pa.SeatNo = &seatNo
	pa.CardID = &cardID
	return pa
}

// SetAmount sets the charged amount in minor units
func (pa *PaymentAudit) SetAmount(cents int64, currency string) *PaymentAudit {
	pa.AmountCents = &cents
	if currency != "" {
		pa.Currency = &currency
	}
	return pa
}

// SetPaymentID sets the downstream payment id
func (pa *PaymentAudit) SetPaymentID(paymentID int64) *PaymentAudit {
	if paymentID <= 0 {
		return pa
	}
	pa.PaymentID = &paymentID
	return pa
}

// SetPNR sets the issued ticket reference
func (pa *PaymentAudit) SetPNR(pnr string) *PaymentAudit {
	pa.PNR = &pnr
	return pa
}

// SetResponse stores the downstream status and raw body
func (pa *PaymentAudit) SetResponse(url string, statusCode int, body string) *PaymentAudit {
	if url != "" {
		pa.EndpointURL = &url
	}
	pa.HTTPStatusCode = &statusCode
	if body != "" {
		pa.RawBody = &body
	}
	return pa
}

// SetResponsePayload sets the decoded response payload
func (pa *PaymentAudit) SetResponsePayload(payload map[string]interface{}) *PaymentAudit {
	pa.ResponsePayload = JSONB(payload)
	return pa
}

// SetError sets error information
func (pa *PaymentAudit) SetError(err error) *PaymentAudit {
	if err == nil {
		return pa
	}
	message := err.Error()
	pa.ErrorMessage = &message
	return pa
}

// SetProcessingTime calculates and sets processing time
func (pa *PaymentAudit) SetProcessingTime(startTime time.Time) *PaymentAudit {
	durationMs := int(time.Since(startTime).Milliseconds())
	pa.ProcessingTimeMs = &durationMs
	return pa
}
