package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shubilet/expedition-service/internal/models"
)

// ExpeditionRepository handles expedition database operations
type ExpeditionRepository struct {
	db *sqlx.DB
}

// NewExpeditionRepository creates a new ExpeditionRepository
func NewExpeditionRepository(db *sqlx.DB) *ExpeditionRepository {
	return &ExpeditionRepository{db: db}
}

const expeditionViewSelect = `
	SELECT e.id, dc.name AS departure_city, ac.name AS arrival_city,
	       e.date_and_time, e.price_cents, e.duration, e.capacity,
	       e.number_of_booked_seats, e.profit_cents, e.company_id
	FROM expeditions e
	JOIN cities dc ON dc.id = e.departure_city_id
	JOIN cities ac ON ac.id = e.arrival_city_id`

// Create inserts a new expedition with no booked seats and zero profit.
// Seats are generated separately on the same q.
func (r *ExpeditionRepository) Create(ctx context.Context, q sqlx.ExtContext, expedition *models.Expedition) (int64, error) {
	query := `
		INSERT INTO expeditions (
			departure_city_id, arrival_city_id, date_and_time, price_cents,
			duration, capacity, number_of_booked_seats, profit_cents, company_id
		) VALUES ($1, $2, $3, $4, $5, $6, 0, 0, $7)
		RETURNING id, created_at, updated_at`

	row := q.QueryRowxContext(ctx, query,
		expedition.DepartureCityID,
		expedition.ArrivalCityID,
		expedition.DateAndTime,
		expedition.PriceCents,
		expedition.Duration,
		expedition.Capacity,
		expedition.CompanyID,
	)
	if err := row.Scan(&expedition.ID, &expedition.CreatedAt, &expedition.UpdatedAt); err != nil {
		return 0, fmt.Errorf("failed to create expedition: %w", err)
	}

	expedition.NumberOfBookedSeats = 0
	expedition.ProfitCents = 0
	return expedition.ID, nil
}

// GetByID returns an expedition, or nil when it does not exist
func (r *ExpeditionRepository) GetByID(ctx context.Context, id int64) (*models.Expedition, error) {
	query := `
		SELECT id, departure_city_id, arrival_city_id, date_and_time, price_cents,
		       duration, capacity, number_of_booked_seats, profit_cents, company_id,
		       created_at, updated_at
		FROM expeditions
		WHERE id = $1`

	var expedition models.Expedition
	err := r.db.GetContext(ctx, &expedition, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expedition: %w", err)
	}
	return &expedition, nil
}

// GetView returns an expedition joined with its city names, or nil when it does not exist
func (r *ExpeditionRepository) GetView(ctx context.Context, id int64) (*models.ExpeditionView, error) {
	var view models.ExpeditionView
	err := r.db.GetContext(ctx, &view, expeditionViewSelect+` WHERE e.id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expedition view: %w", err)
	}
	return &view, nil
}

// ListByCompany returns all expeditions owned by a company, newest departure first
func (r *ExpeditionRepository) ListByCompany(ctx context.Context, companyID int64) ([]models.ExpeditionView, error) {
	views := []models.ExpeditionView{}
	query := expeditionViewSelect + ` WHERE e.company_id = $1 ORDER BY e.date_and_time DESC`
	if err := r.db.SelectContext(ctx, &views, query, companyID); err != nil {
		return nil, fmt.Errorf("failed to list company expeditions: %w", err)
	}
	return views, nil
}

// Search returns expeditions on a route departing within [from, to)
func (r *ExpeditionRepository) Search(ctx context.Context, departureCityID, arrivalCityID int64, from, to time.Time) ([]models.ExpeditionView, error) {
	views := []models.ExpeditionView{}
	query := expeditionViewSelect + `
		WHERE e.departure_city_id = $1
		  AND e.arrival_city_id = $2
		  AND e.date_and_time >= $3
		  AND e.date_and_time < $4
		ORDER BY e.date_and_time ASC`
	if err := r.db.SelectContext(ctx, &views, query, departureCityID, arrivalCityID, from, to); err != nil {
		return nil, fmt.Errorf("failed to search expeditions: %w", err)
	}
	return views, nil
}

// IncrementBookedSeats adds one booked seat and the seat price to the profit.
// It returns false when the expedition does not exist or is already full.
func (r *ExpeditionRepository) IncrementBookedSeats(ctx context.Context, q sqlx.ExtContext, id int64) (bool, error) {
	query := `
		UPDATE expeditions
		SET number_of_booked_seats = number_of_booked_seats + 1,
		    profit_cents = profit_cents + price_cents,
		    updated_at = NOW()
		WHERE id = $1
		  AND number_of_booked_seats < capacity`

	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to increment booked seats: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}
