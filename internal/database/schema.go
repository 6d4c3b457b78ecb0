package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// schemaStatements create the expedition service tables when they are missing.
// Constraints mirror the invariants the repositories rely on.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS cities (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS expeditions (
		id                     BIGSERIAL PRIMARY KEY,
		departure_city_id      BIGINT NOT NULL REFERENCES cities(id),
		arrival_city_id        BIGINT NOT NULL REFERENCES cities(id),
		date_and_time          TIMESTAMPTZ NOT NULL,
		price_cents            BIGINT NOT NULL CHECK (price_cents >= 0),
		duration               INTEGER CHECK (duration IS NULL OR duration >= 0),
		capacity               INTEGER NOT NULL CHECK (capacity BETWEEN 1 AND 1000),
		number_of_booked_seats INTEGER NOT NULL DEFAULT 0,
		profit_cents           BIGINT NOT NULL DEFAULT 0,
		company_id             BIGINT NOT NULL,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT expeditions_booked_within_capacity CHECK (number_of_booked_seats BETWEEN 0 AND capacity),
		CONSTRAINT expeditions_distinct_cities CHECK (departure_city_id <> arrival_city_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_expeditions_route_date
		ON expeditions (departure_city_id, arrival_city_id, date_and_time)`,
	`CREATE INDEX IF NOT EXISTS idx_expeditions_company ON expeditions (company_id)`,
	`CREATE TABLE IF NOT EXISTS seats (
		id            BIGSERIAL PRIMARY KEY,
		expedition_id BIGINT NOT NULL REFERENCES expeditions(id) ON DELETE CASCADE,
		seat_no       INTEGER NOT NULL CHECK (seat_no >= 1),
		customer_id   BIGINT,
		status        TEXT NOT NULL DEFAULT 'AVAILABLE' CHECK (status IN ('AVAILABLE', 'RESERVED')),
		held_by       UUID,
		held_until    TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT seats_expedition_seat_no_key UNIQUE (expedition_id, seat_no),
		CONSTRAINT seats_reserved_has_customer CHECK ((status = 'RESERVED') = (customer_id IS NOT NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_seats_held_until ON seats (held_until) WHERE held_by IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS tickets (
		pnr         CHAR(6) PRIMARY KEY,
		seat_id     BIGINT NOT NULL UNIQUE REFERENCES seats(id),
		payment_id  BIGINT NOT NULL,
		customer_id BIGINT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_customer ON tickets (customer_id)`,
	`CREATE TABLE IF NOT EXISTS payment_audits (
		id                 UUID PRIMARY KEY,
		hold_id            UUID,
		event_type         TEXT NOT NULL,
		customer_id        BIGINT,
		expedition_id      BIGINT,
		seat_no            INTEGER,
		card_id            BIGINT,
		payment_id         BIGINT,
		amount_cents       BIGINT,
		currency           TEXT,
		pnr                CHAR(6),
		http_status_code   INTEGER,
		endpoint_url       TEXT,
		response_payload   JSONB,
		raw_body           TEXT,
		error_message      TEXT,
		processing_time_ms INTEGER,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payment_audits_hold ON payment_audits (hold_id)`,
}

// EnsureSchema creates missing tables and indexes
func EnsureSchema(ctx context.Context, db *sqlx.DB, logger *logrus.Logger) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	logger.WithField("statements", len(schemaStatements)).Info("Database schema ensured")
	return nil
}
