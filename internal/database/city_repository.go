package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CityRepository handles city lookups
type CityRepository struct {
	db *sqlx.DB
}

// NewCityRepository creates a new CityRepository
func NewCityRepository(db *sqlx.DB) *CityRepository {
	return &CityRepository{db: db}
}

// Exists checks whether a city with the given id exists
func (r *CityRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM cities WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check city: %w", err)
	}
	return exists, nil
}
