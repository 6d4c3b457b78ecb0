package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shubilet/expedition-service/internal/models"
)

// TicketRepository handles ticket database operations
type TicketRepository struct {
	db *sqlx.DB
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db *sqlx.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketDetailsSelect = `
	SELECT t.pnr, s.seat_no, e.id AS expedition_id, e.company_id,
	       dc.name AS departure_city, ac.name AS arrival_city,
	       e.date_and_time, e.duration, t.customer_id
	FROM tickets t
	JOIN seats s ON s.id = t.seat_id
	JOIN expeditions e ON e.id = s.expedition_id
	JOIN cities dc ON dc.id = e.departure_city_id
	JOIN cities ac ON ac.id = e.arrival_city_id`

// Insert stores a ticket. It returns false without error when the PNR is already taken.
func (r *TicketRepository) Insert(ctx context.Context, q sqlx.ExtContext, ticket *models.Ticket) (bool, error) {
	query := `
		INSERT INTO tickets (pnr, seat_id, payment_id, customer_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (pnr) DO NOTHING
		RETURNING created_at`

	err := sqlx.GetContext(ctx, q, &ticket.CreatedAt, query,
		ticket.PNR, ticket.SeatID, ticket.PaymentID, ticket.CustomerID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert ticket: %w", err)
	}
	return true, nil
}

// GetDetailsByPNR returns the ticket details, or nil when the PNR is unknown
func (r *TicketRepository) GetDetailsByPNR(ctx context.Context, pnr string) (*models.TicketDetails, error) {
	var details models.TicketDetails
	err := r.db.GetContext(ctx, &details, ticketDetailsSelect+` WHERE t.pnr = $1`, pnr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket details: %w", err)
	}
	return &details, nil
}

// GetDetailsByCustomerID returns every ticket of a customer, oldest departure first
func (r *TicketRepository) GetDetailsByCustomerID(ctx context.Context, customerID int64) ([]models.TicketDetails, error) {
	tickets := []models.TicketDetails{}
	query := ticketDetailsSelect + ` WHERE t.customer_id = $1 ORDER BY e.date_and_time ASC, t.pnr ASC`
	if err := r.db.SelectContext(ctx, &tickets, query, customerID); err != nil {
		return nil, fmt.Errorf("failed to get customer tickets: %w", err)
	}
	return tickets, nil
}
