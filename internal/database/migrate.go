package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS products (
    id            SERIAL PRIMARY KEY,
    name          TEXT NOT NULL,
    sku           TEXT NOT NULL UNIQUE,
    category      TEXT NOT NULL,
    price         NUMERIC(10,2) NOT NULL CHECK (price > 0),
    optimal_price NUMERIC(10,2) CHECK (optimal_price > 0),
    status        TEXT NOT NULL DEFAULT 'Unknown',
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS competitor_prices (
    id          SERIAL PRIMARY KEY,
    product_id  INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    competitor  TEXT NOT NULL,
    price       NUMERIC(10,2) NOT NULL CHECK (price > 0),
    "timestamp" TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS competitor_prices_latest_idx
    ON competitor_prices (product_id, competitor, "timestamp" DESC)`,
	`CREATE TABLE IF NOT EXISTS price_history (
    id         SERIAL PRIMARY KEY,
    product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    source     TEXT NOT NULL,
    price      NUMERIC(10,2) NOT NULL CHECK (price > 0),
    date       TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS price_history_product_date_idx
    ON price_history (product_id, date)`,
}

// Migrate creates the schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return errors.Wrapf(err, "migration %d", i+1)
		}
	}
	return nil
}
