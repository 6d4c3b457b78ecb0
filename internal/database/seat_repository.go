package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shubilet/expedition-service/internal/models"
)

// ErrSeatNotBookable is returned by BookSeat when the seat is reserved or held by another booking
var ErrSeatNotBookable = errors.New("seat is not bookable")

// SeatRepository handles seat database operations
type SeatRepository struct {
	db *sqlx.DB
}

// NewSeatRepository creates a new SeatRepository
func NewSeatRepository(db *sqlx.DB) *SeatRepository {
	return &SeatRepository{db: db}
}

// SeatExists checks whether the expedition has a seat with this number
func (r *SeatRepository) SeatExists(ctx context.Context, expeditionID int64, seatNo int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM seats WHERE expedition_id = $1 AND seat_no = $2)`
	if err := r.db.GetContext(ctx, &exists, query, expeditionID, seatNo); err != nil {
		return false, fmt.Errorf("failed to check seat: %w", err)
	}
	return exists, nil
}

// GetSeat returns a seat, or nil when it does not exist
func (r *SeatRepository) GetSeat(ctx context.Context, expeditionID int64, seatNo int) (*models.Seat, error) {
	query := `
		SELECT id, expedition_id, seat_no, customer_id, status, held_by, held_until,
		       created_at, updated_at
		FROM seats
		WHERE expedition_id = $1 AND seat_no = $2`

	var seat models.Seat
	err := r.db.GetContext(ctx, &seat, query, expeditionID, seatNo)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get seat: %w", err)
	}
	return &seat, nil
}

// ListByExpedition returns every seat of an expedition ordered by seat number
func (r *SeatRepository) ListByExpedition(ctx context.Context, expeditionID int64) ([]models.Seat, error) {
	query := `
		SELECT id, expedition_id, seat_no, customer_id, status, held_by, held_until,
		       created_at, updated_at
		FROM seats
		WHERE expedition_id = $1
		ORDER BY seat_no`

	seats := []models.Seat{}
	if err := r.db.SelectContext(ctx, &seats, query, expeditionID); err != nil {
		return nil, fmt.Errorf("failed to list seats: %w", err)
	}
	return seats, nil
}

// GenerateSeats creates seats 1..capacity as AVAILABLE in a single statement
func (r *SeatRepository) GenerateSeats(ctx context.Context, q sqlx.ExtContext, expeditionID int64, capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", capacity)
	}

	query := `
		INSERT INTO seats (expedition_id, seat_no, status)
		SELECT $1, seat_no, 'AVAILABLE'
		FROM unnest($2::int[]) AS seat_no`

	result, err := q.ExecContext(ctx, query, expeditionID, models.SeatNumbers(capacity))
	if err != nil {
		return fmt.Errorf("failed to generate seats: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rowsAffected != int64(capacity) {
		return fmt.Errorf("generated %d seats, expected %d", rowsAffected, capacity)
	}
	return nil
}

// HoldSeat marks an available seat as held by holdID until the given time.
// It returns false when the seat is reserved or held by someone else.
func (r *SeatRepository) HoldSeat(ctx context.Context, expeditionID int64, seatNo int, holdID uuid.UUID, until time.Time) (bool, error) {
	query := `
		UPDATE seats
		SET held_by = $1, held_until = $2, updated_at = NOW()
		WHERE expedition_id = $3
		  AND seat_no = $4
		  AND status = 'AVAILABLE'
		  AND (held_by IS NULL OR held_until < NOW())`

	result, err := r.db.ExecContext(ctx, query, holdID, until, expeditionID, seatNo)
	if err != nil {
		return false, fmt.Errorf("failed to hold seat: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}

// ReleaseHold clears the hold placed by holdID, if it is still present
func (r *SeatRepository) ReleaseHold(ctx context.Context, holdID uuid.UUID) error {
	query := `
		UPDATE seats
		SET held_by = NULL, held_until = NULL, updated_at = NOW()
		WHERE held_by = $1`
	if _, err := r.db.ExecContext(ctx, query, holdID); err != nil {
		return fmt.Errorf("failed to release seat hold: %w", err)
	}
	return nil
}

// ReleaseExpiredHolds clears every hold whose deadline has passed
func (r *SeatRepository) ReleaseExpiredHolds(ctx context.Context) (int64, error) {
	query := `
		UPDATE seats
		SET held_by = NULL, held_until = NULL, updated_at = NOW()
		WHERE held_by IS NOT NULL AND held_until < NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to release expired holds: %w", err)
	}
	return result.RowsAffected()
}

// BookSeat assigns the seat to the customer and clears the hold in one statement.
// The seat must still be AVAILABLE and either held by holdID or not held by a live hold.
func (r *SeatRepository) BookSeat(ctx context.Context, q sqlx.ExtContext, expeditionID, customerID int64, seatNo int, holdID uuid.UUID) (int64, error) {
	query := `
		UPDATE seats
		SET customer_id = $1, status = 'RESERVED', held_by = NULL, held_until = NULL, updated_at = NOW()
		WHERE expedition_id = $2
		  AND seat_no = $3
		  AND status = 'AVAILABLE'
		  AND (held_by = $4 OR held_by IS NULL OR held_until < NOW())
		RETURNING id`

	var seatID int64
	err := sqlx.GetContext(ctx, q, &seatID, query, customerID, expeditionID, seatNo, holdID)
	if err == sql.ErrNoRows {
		return 0, ErrSeatNotBookable
	}
	if err != nil {
		return 0, fmt.Errorf("failed to book seat: %w", err)
	}
	return seatID, nil
}
