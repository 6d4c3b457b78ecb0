package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Transactor runs a unit of work inside one database transaction
type Transactor struct {
	db *sqlx.DB
}

// NewTransactor creates a new Transactor
func NewTransactor(db *sqlx.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx begins a transaction, hands it to fn and commits when fn returns nil.
// Any error from fn rolls every statement back.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, q sqlx.ExtContext) error) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
