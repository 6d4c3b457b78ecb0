package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shubilet/expedition-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExpedition(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExpeditionRepository(db)
	departure := time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO expeditions`).
		WithArgs(int64(1), int64(2), departure, int64(125050), nil, 40, int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(45), now, now))

	expedition := &models.Expedition{
		DepartureCityID: 1,
		ArrivalCityID:   2,
		DateAndTime:     departure,
		PriceCents:      125050,
		Capacity:        40,
		CompanyID:       12,
	}
	id, err := repo.Create(context.Background(), db, expedition)
	require.NoError(t, err)
	assert.Equal(t, int64(45), id)
	assert.Equal(t, 0, expedition.NumberOfBookedSeats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementBookedSeats(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExpeditionRepository(db)

	t.Run("Incremented", func(t *testing.T) {
		mock.ExpectExec(`UPDATE expeditions\s+SET number_of_booked_seats = number_of_booked_seats \+ 1`).
			WithArgs(int64(45)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.IncrementBookedSeats(context.Background(), db, 45)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("FullOrMissing", func(t *testing.T) {
		mock.ExpectExec(`UPDATE expeditions`).
			WithArgs(int64(45)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.IncrementBookedSeats(context.Background(), db, 45)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectExec(`UPDATE expeditions`).
			WithArgs(int64(45)).
			WillReturnError(errors.New("deadlock detected"))

		_, err := repo.IncrementBookedSeats(context.Background(), db, 45)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor(t *testing.T) {
	db, mock := newMockDB(t)
	tx := NewTransactor(db)
	repo := NewExpeditionRepository(db)

	t.Run("Commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE expeditions`).WithArgs(int64(45)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := tx.WithinTx(context.Background(), func(ctx context.Context, q sqlx.ExtContext) error {
			_, err := repo.IncrementBookedSeats(ctx, q, 45)
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback", func(t *testing.T) {
		failure := errors.New("seat lost")
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE expeditions`).WithArgs(int64(45)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		err := tx.WithinTx(context.Background(), func(ctx context.Context, q sqlx.ExtContext) error {
			if _, err := repo.IncrementBookedSeats(ctx, q, 45); err != nil {
				return err
			}
			return failure
		})
		assert.ErrorIs(t, err, failure)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
