package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxExpeditionCapacity is the largest number of seats an expedition may have
	MaxExpeditionCapacity = 1000

	// maxPriceIntegerDigits bounds the integer part of a price
	maxPriceIntegerDigits = 10
)

// Expedition is a scheduled trip between two cities owned by a company
type Expedition struct {
	ID                  int64     `json:"expeditionId" db:"id"`
	DepartureCityID     int64     `json:"departureCityId" db:"departure_city_id"`
	ArrivalCityID       int64     `json:"arrivalCityId" db:"arrival_city_id"`
	DateAndTime         time.Time `json:"dateAndTime" db:"date_and_time"`
	PriceCents          int64     `json:"-" db:"price_cents"`
	Duration            *int      `json:"duration,omitempty" db:"duration"` // minutes
	Capacity            int       `json:"capacity" db:"capacity"`
	NumberOfBookedSeats int       `json:"numberOfBookedSeats" db:"number_of_booked_seats"`
	ProfitCents         int64     `json:"-" db:"profit_cents"`
	CompanyID           int64     `json:"companyId" db:"company_id"`
	CreatedAt           time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time `json:"updatedAt" db:"updated_at"`
}

// HasFreeSeats reports whether at least one seat can still be booked
func (e *Expedition) HasFreeSeats() bool {
	return e.NumberOfBookedSeats < e.Capacity
}

// ExpeditionView is the API representation of an expedition with city names
type ExpeditionView struct {
	ExpeditionID        int64  `json:"expeditionId" db:"id"`
	DepartureCity       string `json:"departureCity" db:"departure_city"`
	ArrivalCity         string `json:"arrivalCity" db:"arrival_city"`
	Date                string `json:"date"`
	Time                string `json:"time"`
	Price               string `json:"price"`
	Duration            *int   `json:"duration,omitempty" db:"duration"`
	Capacity            int    `json:"capacity" db:"capacity"`
	NumberOfBookedSeats int    `json:"numberOfBookedSeats" db:"number_of_booked_seats"`
	Profit              string `json:"profit,omitempty"`
	CompanyID           int64  `json:"companyId" db:"company_id"`

	DateAndTime time.Time `json:"-" db:"date_and_time"`
	PriceCents  int64     `json:"-" db:"price_cents"`
	ProfitCents int64     `json:"-" db:"profit_cents"`
}

// Finalize fills the formatted fields from the raw columns
func (v *ExpeditionView) Finalize(loc *time.Location, withProfit bool) {
	local := v.DateAndTime.In(loc)
	v.Date = local.Format(DateLayout)
	v.Time = local.Format(TimeLayout)
	v.Price = FormatCents(v.PriceCents)
	if withProfit {
		v.Profit = FormatCents(v.ProfitCents)
	}
}

const (
	// DateLayout is the wire format of expedition dates
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format of expedition departure times
	TimeLayout = "15:04"
)

// CreateExpeditionRequest is the body of POST /expeditions
type CreateExpeditionRequest struct {
	DepartureCityID int64  `json:"departureCityId" binding:"required,gt=0"`
	ArrivalCityID   int64  `json:"arrivalCityId" binding:"required,gt=0"`
	Date            string `json:"date" binding:"required"`
	Time            string `json:"time" binding:"required"`
	Price           string `json:"price" binding:"required"`
	Duration        *int   `json:"duration" binding:"omitempty,gte=0"`
	Capacity        int    `json:"capacity" binding:"required,gt=0,lte=1000"`
}

// CreateExpeditionResponse is returned after an expedition and its seats are created
type CreateExpeditionResponse struct {
	ExpeditionID int64  `json:"expeditionId"`
	Message      string `json:"message"`
}

// ParsePrice converts a decimal price ("1250", "1250.5", "1250.50") into minor units.
// At most 10 integer digits and 2 fractional digits are accepted.
func ParsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("price is required")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("price must not be negative")
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" || len(intPart) > maxPriceIntegerDigits {
		return 0, fmt.Errorf("price must have between 1 and %d integer digits", maxPriceIntegerDigits)
	}
	if hasFrac && (fracPart == "" || len(fracPart) > 2) {
		return 0, fmt.Errorf("price must have at most 2 fractional digits")
	}
	if !isDigits(intPart) || !isDigits(fracPart) {
		return 0, fmt.Errorf("price must be a decimal number")
	}

	for len(fracPart) < 2 {
		fracPart += "0"
	}

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price: %w", err)
	}
	cents, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price: %w", err)
	}

	return whole*100 + cents, nil
}

// FormatCents renders minor units as a decimal string with two fractional digits
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
