package models

import "time"

// Ticket is the proof of a completed booking
type Ticket struct {
	PNR        string    `json:"PNR" db:"pnr"`
	SeatID     int64     `json:"seatId" db:"seat_id"`
	PaymentID  int64     `json:"paymentId" db:"payment_id"`
	CustomerID int64     `json:"customerId" db:"customer_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// TicketDetails is the flattened read model of a ticket used for display
type TicketDetails struct {
	PNR           string `json:"PNR" db:"pnr"`
	SeatNo        int    `json:"seatNo" db:"seat_no"`
	ExpeditionID  int64  `json:"expeditionId" db:"expedition_id"`
	CompanyID     int64  `json:"companyId" db:"company_id"`
	DepartureCity string `json:"departureCity" db:"departure_city"`
	ArrivalCity   string `json:"arrivalCity" db:"arrival_city"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Duration      *int   `json:"duration" db:"duration"`

	CustomerID  int64     `json:"-" db:"customer_id"`
	DateAndTime time.Time `json:"-" db:"date_and_time"`
}

// Finalize formats the departure instant into date and time in loc
func (t *TicketDetails) Finalize(loc *time.Location) {
	local := t.DateAndTime.In(loc)
	t.Date = local.Format(DateLayout)
	t.Time = local.Format(TimeLayout)
}

// CustomerTicketsResponse lists the tickets owned by a customer
type CustomerTicketsResponse struct {
	Tickets []TicketDetails `json:"tickets"`
	Message string          `json:"message"`
}
