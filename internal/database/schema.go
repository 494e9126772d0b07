package database

import (
	"context"
)

// bazaar_items deliberately has no unique constraint on (item_id, timestamp):
// the table is append-only and duplicate observations from overlapping runs
// are tolerated. flip_candidates is keyed by item so analysis cycles can
// upsert their selections.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS bazaar_items (
        id BIGSERIAL PRIMARY KEY,
        item_id VARCHAR(255) NOT NULL,
        timestamp TIMESTAMPTZ NOT NULL,
        buy_price DOUBLE PRECISION NOT NULL DEFAULT 0,
        sell_price DOUBLE PRECISION NOT NULL DEFAULT 0,
        buy_volume BIGINT NOT NULL DEFAULT 0,
        sell_volume BIGINT NOT NULL DEFAULT 0,
        buy_moving_week BIGINT NOT NULL DEFAULT 0,
        sell_moving_week BIGINT NOT NULL DEFAULT 0,
        max_buy DOUBLE PRECISION NOT NULL DEFAULT 0,
        max_sell DOUBLE PRECISION NOT NULL DEFAULT 0,
        min_buy DOUBLE PRECISION NOT NULL DEFAULT 0,
        min_sell DOUBLE PRECISION NOT NULL DEFAULT 0,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_bazaar_items_item_timestamp ON bazaar_items (item_id, timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_bazaar_items_timestamp ON bazaar_items (timestamp)`,
	`CREATE TABLE IF NOT EXISTS flip_candidates (
        id BIGSERIAL PRIMARY KEY,
        item_id VARCHAR(255) NOT NULL UNIQUE,
        avg_buy_price DOUBLE PRECISION NOT NULL DEFAULT 0,
        avg_sell_price DOUBLE PRECISION NOT NULL DEFAULT 0,
        spread_margin DECIMAL(20, 2) NOT NULL DEFAULT 0,
        margin_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
        avg_buy_volume DOUBLE PRECISION NOT NULL DEFAULT 0,
        avg_sell_volume DOUBLE PRECISION NOT NULL DEFAULT 0,
        volatility DOUBLE PRECISION NOT NULL DEFAULT 0,
        volume_score DOUBLE PRECISION NOT NULL DEFAULT 0,
        flip_score DOUBLE PRECISION NOT NULL DEFAULT 0,
        status VARCHAR(16) NOT NULL DEFAULT 'active',
        selected_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        last_evaluated TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_flip_candidates_status ON flip_candidates (status)`,
}

// EnsureSchema creates the tables and indexes this service writes to. Every
// statement is idempotent, so repeated startups are safe.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return newPersistenceError("ensure schema", err)
		}
	}

	r.logger.Info("Database schema ensured")
	return nil
}
