package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shubilet/expedition-service/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrPNRExhausted is returned when every generated PNR collided with an existing ticket
var ErrPNRExhausted = errors.New("could not allocate a unique PNR")

// TicketService issues and reads tickets
type TicketService struct {
	tickets     TicketStore
	pnr         PNRGenerator
	cache       TicketCache
	loc         *time.Location
	maxAttempts int
	logger      *logrus.Logger
}

// NewTicketService creates a new ticket service. cache may be nil.
func NewTicketService(tickets TicketStore, pnr PNRGenerator, cache TicketCache, loc *time.Location, maxAttempts int, logger *logrus.Logger) *TicketService {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if loc == nil {
		loc = time.UTC
	}
	return &TicketService{
		tickets:     tickets,
		pnr:         pnr,
		cache:       cache,
		loc:         loc,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// GenerateTicket inserts a ticket for the seat under a fresh PNR and returns the PNR.
// Collisions are resolved by the database and retried with a new code.
func (s *TicketService) GenerateTicket(ctx context.Context, q sqlx.ExtContext, paymentID, seatID, customerID int64) (string, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.pnr.Generate()
		if err != nil {
			return "", fmt.Errorf("failed to generate PNR: %w", err)
		}

		ticket := &models.Ticket{
			PNR:        code,
			SeatID:     seatID,
			PaymentID:  paymentID,
			CustomerID: customerID,
		}
		inserted, err := s.tickets.Insert(ctx, q, ticket)
		if err != nil {
			return "", err
		}
		if inserted {
			return code, nil
		}

		s.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"seat_id": seatID,
		}).Warn("PNR collision, retrying")
	}
	return "", ErrPNRExhausted
}

// GetTicketDetails returns the ticket with this PNR, or nil when it does not exist
func (s *TicketService) GetTicketDetails(ctx context.Context, pnr string) (*models.TicketDetails, error) {
	if s.cache != nil {
		cached, err := s.cache.GetTicket(ctx, pnr)
		if err != nil {
			s.logger.WithError(err).WithField("pnr", pnr).Warn("Ticket cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	details, err := s.tickets.GetDetailsByPNR(ctx, pnr)
	if err != nil {
		return nil, err
	}
	if details == nil {
		return nil, nil
	}
	details.Finalize(s.loc)

	if s.cache != nil {
		if err := s.cache.SetTicket(ctx, details); err != nil {
			s.logger.WithError(err).WithField("pnr", pnr).Warn("Ticket cache write failed")
		}
	}
	return details, nil
}

// GetTicketsByCustomerID lists the tickets of a customer. The list is empty, never nil, when there are none.
func (s *TicketService) GetTicketsByCustomerID(ctx context.Context, customerID int64) ([]models.TicketDetails, error) {
	if s.cache != nil {
		cached, err := s.cache.GetCustomerTickets(ctx, customerID)
		if err != nil {
			s.logger.WithError(err).WithField("customer_id", customerID).Warn("Ticket cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	tickets, err := s.tickets.GetDetailsByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []models.TicketDetails{}
	}
	for i := range tickets {
		tickets[i].Finalize(s.loc)
	}

	if s.cache != nil {
		if err := s.cache.SetCustomerTickets(ctx, customerID, tickets); err != nil {
			s.logger.WithError(err).WithField("customer_id", customerID).Warn("Ticket cache write failed")
		}
	}
	return tickets, nil
}

// ForgetCustomerTickets drops the cached ticket list after the customer booked
func (s *TicketService) ForgetCustomerTickets(ctx context.Context, customerID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCustomerTickets(ctx, customerID); err != nil {
		s.logger.WithError(err).WithField("customer_id", customerID).Warn("Failed to invalidate customer tickets")
	}
}
