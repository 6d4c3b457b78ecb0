package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shubilet/expedition-service/internal/models"
	"github.com/sirupsen/logrus"
)

// PaymentAuditRepository handles payment audit operations
type PaymentAuditRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewPaymentAuditRepository creates a new payment audit repository
func NewPaymentAuditRepository(db *sqlx.DB, logger *logrus.Logger) *PaymentAuditRepository {
	return &PaymentAuditRepository{
		db:     db,
		logger: logger,
	}
}

// Log creates a new payment audit entry
func (r *PaymentAuditRepository) Log(ctx context.Context, audit *models.PaymentAudit) error {
	if audit == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}

	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payment_audits (
			id, hold_id, event_type,
			customer_id, expedition_id, seat_no, card_id,
			payment_id, amount_cents, currency, pnr,
			http_status_code, endpoint_url, response_payload, raw_body,
			error_message, processing_time_ms, created_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13, $14, $15,
			$16, $17, $18
		)`

	_, err := r.db.ExecContext(ctx, query,
		audit.ID, audit.HoldID, audit.EventType,
		audit.CustomerID, audit.ExpeditionID, audit.SeatNo, audit.CardID,
		audit.PaymentID, audit.AmountCents, audit.Currency, audit.PNR,
		audit.HTTPStatusCode, audit.EndpointURL, audit.ResponsePayload, audit.RawBody,
		audit.ErrorMessage, audit.ProcessingTimeMs, audit.CreatedAt,
	)

	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"event_type": audit.EventType,
			"hold_id":    audit.HoldID,
			"payment_id": audit.PaymentID,
		}).Error("Failed to log payment audit")
		return fmt.Errorf("failed to log payment audit: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"audit_id":   audit.ID,
		"event_type": audit.EventType,
		"hold_id":    audit.HoldID,
	}).Debug("Payment audit logged")

	return nil
}

// GetByHoldID retrieves all audit entries of one booking attempt
func (r *PaymentAuditRepository) GetByHoldID(ctx context.Context, holdID uuid.UUID) ([]*models.PaymentAudit, error) {
	var audits []*models.PaymentAudit
	query := `
		SELECT * FROM payment_audits
		WHERE hold_id = $1
		ORDER BY created_at ASC`

	if err := r.db.SelectContext(ctx, &audits, query, holdID); err != nil {
		return nil, fmt.Errorf("failed to get audits by hold ID: %w", err)
	}

	return audits, nil
}

// GetUnrefundedFailures lists charged bookings whose confirmation and refund both failed
func (r *PaymentAuditRepository) GetUnrefundedFailures(ctx context.Context, limit int) ([]*models.PaymentAudit, error) {
	var audits []*models.PaymentAudit
	query := `
		SELECT * FROM payment_audits
		WHERE event_type = $1
		ORDER BY created_at DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &audits, query, models.PaymentEventRefundFailed, limit); err != nil {
		return nil, fmt.Errorf("failed to get refund failures: %w", err)
	}

	return audits, nil
}
