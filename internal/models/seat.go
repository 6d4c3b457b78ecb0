package models

import (
	"time"

	"github.com/google/uuid"
)

// SeatStatus represents the booking state of a seat
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "AVAILABLE"
	SeatStatusReserved  SeatStatus = "RESERVED"
)

// Seat is one bookable unit within an expedition.
// A seat is RESERVED exactly when CustomerID is set.
type Seat struct {
	ID           int64      `json:"seatId" db:"id"`
	ExpeditionID int64      `json:"expeditionId" db:"expedition_id"`
	SeatNo       int        `json:"seatNo" db:"seat_no"`
	CustomerID   *int64     `json:"customerId,omitempty" db:"customer_id"`
	Status       SeatStatus `json:"status" db:"status"`
	HeldBy       *uuid.UUID `json:"-" db:"held_by"`
	HeldUntil    *time.Time `json:"-" db:"held_until"`
	CreatedAt    time.Time  `json:"-" db:"created_at"`
	UpdatedAt    time.Time  `json:"-" db:"updated_at"`
}

// IsHeld reports whether another booking currently holds the seat
func (s *Seat) IsHeld(now time.Time) bool {
	return s.HeldBy != nil && s.HeldUntil != nil && s.HeldUntil.After(now)
}

// SeatView is the seat map entry returned to clients
type SeatView struct {
	SeatNo int        `json:"seatNo"`
	Status SeatStatus `json:"status"`
	Held   bool       `json:"held"`
}

// AvailabilityStatus is the outcome of an availability check
type AvailabilityStatus string

const (
	AvailabilitySuccess       AvailabilityStatus = "SUCCESS"
	AvailabilityNotFound      AvailabilityStatus = "NOT_FOUND"
	AvailabilityAlreadyBooked AvailabilityStatus = "ALREADY_BOOKED"
	AvailabilityInvalidTime   AvailabilityStatus = "INVALID_TIME"
)

// AvailabilityResponse reports seat and expedition availability
type AvailabilityResponse struct {
	ExpeditionID     int64              `json:"expeditionId"`
	SeatNo           int                `json:"seatNo,omitempty"`
	ExpeditionStatus AvailabilityStatus `json:"expeditionStatus"`
	SeatStatus       AvailabilityStatus `json:"seatStatus,omitempty"`
}
