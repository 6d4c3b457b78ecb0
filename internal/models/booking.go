package models

import (
	"fmt"
	"net/http"
)

// BuyTicketRequest is the body of POST /reservation/buy_ticket.
// Ids are validated by the orchestrator so that every malformed id yields the same message.
type BuyTicketRequest struct {
	CustomerID   int64 `json:"customerId"`
	ExpeditionID int64 `json:"expeditionId"`
	SeatNo       int   `json:"seatNo"`
	CardID       int64 `json:"cardId"`
}

// BuyTicketResponse is returned when a ticket has been issued
type BuyTicketResponse struct {
	Ticket  *TicketDetails `json:"ticket"`
	Message string         `json:"message"`
}

// TicketBookedMessage is the success message of a booking
const TicketBookedMessage = "Ticket booked successfully."

// BookingErrorKind classifies a failed booking
type BookingErrorKind string

const (
	ErrKindInvalidInput  BookingErrorKind = "invalid_input"
	ErrKindNotFound      BookingErrorKind = "not_found"
	ErrKindAlreadyBooked BookingErrorKind = "already_booked"
	ErrKindInvalidTime   BookingErrorKind = "invalid_time"
	ErrKindCardNotActive BookingErrorKind = "card_not_active"
	ErrKindPaymentFailed BookingErrorKind = "payment_failed"
	ErrKindCritical      BookingErrorKind = "critical_error"
)

// BookingError is returned by the booking workflow and mapped to an HTTP status by handlers
type BookingError struct {
	Kind    BookingErrorKind
	Message string
	// DownstreamStatus is the payment service status for payment failures
	DownstreamStatus int
	Err              error
}

func (e *BookingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *BookingError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to a response status
func (e *BookingError) HTTPStatus() int {
	switch e.Kind {
	case ErrKindInvalidInput, ErrKindInvalidTime:
		return http.StatusBadRequest
	case ErrKindNotFound:
		return http.StatusNotFound
	case ErrKindAlreadyBooked:
		return http.StatusConflict
	case ErrKindCardNotActive:
		return http.StatusPaymentRequired
	case ErrKindPaymentFailed:
		if e.DownstreamStatus >= 400 && e.DownstreamStatus < 500 {
			return e.DownstreamStatus
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewInvalidInputError reports malformed ids
func NewInvalidInputError(message string) *BookingError {
	return &BookingError{Kind: ErrKindInvalidInput, Message: message}
}

// NewNotFoundError reports a missing entity, e.g. "Seat No: 8 for Expedition ID: 45"
func NewNotFoundError(entity string) *BookingError {
	return &BookingError{Kind: ErrKindNotFound, Message: entity + " not found"}
}

// NewAlreadyBookedError reports an unavailable seat or a full expedition
func NewAlreadyBookedError(entity string) *BookingError {
	return &BookingError{Kind: ErrKindAlreadyBooked, Message: entity + " is already booked"}
}

// NewInvalidTimeError reports an expedition that has already departed
func NewInvalidTimeError(expeditionID int64) *BookingError {
	return &BookingError{
		Kind:    ErrKindInvalidTime,
		Message: fmt.Sprintf("Expedition ID: %d is not in the future", expeditionID),
	}
}

// NewCardNotActiveError reports a card the payment service refuses
func NewCardNotActiveError(cardID int64, cause error) *BookingError {
	return &BookingError{
		Kind:    ErrKindCardNotActive,
		Message: fmt.Sprintf("Card ID: %d is not active", cardID),
		Err:     cause,
	}
}

// NewPaymentFailedError relays a payment service rejection
func NewPaymentFailedError(status int, body string, cause error) *BookingError {
	message := "Payment failed"
	if body != "" {
		message = "Payment failed: " + body
	}
	return &BookingError{Kind: ErrKindPaymentFailed, Message: message, DownstreamStatus: status, Err: cause}
}

// NewCriticalError reports an unexpected internal state
func NewCriticalError(message string, cause error) *BookingError {
	return &BookingError{Kind: ErrKindCritical, Message: message, Err: cause}
}
