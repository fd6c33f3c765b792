package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// CategoryNameIndex backs case-insensitive category name uniqueness.
const CategoryNameIndex = "categories_name_lower_key"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price NUMERIC(12,2) NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		thumbnail TEXT NOT NULL DEFAULT '',
		rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		files JSONB NOT NULL DEFAULT '[]',
		on_sale BOOLEAN NOT NULL DEFAULT FALSE,
		sale_percent INT NOT NULL DEFAULT 0,
		original_price NUMERIC(12,2),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		icon TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + CategoryNameIndex + ` ON categories (lower(name))`,
	`CREATE TABLE IF NOT EXISTS banners (
		id TEXT PRIMARY KEY,
		image TEXT NOT NULL,
		link TEXT NOT NULL DEFAULT '',
		ord INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		id INT PRIMARY KEY CHECK (id = 1),
		app_title TEXT NOT NULL DEFAULT '',
		app_subtitle TEXT NOT NULL DEFAULT '',
		accent TEXT NOT NULL DEFAULT '',
		wallets JSONB NOT NULL DEFAULT '{}',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		product_id TEXT NOT NULL DEFAULT '',
		product_name TEXT NOT NULL,
		amount NUMERIC(12,2) NOT NULL,
		currency TEXT NOT NULL DEFAULT 'USD',
		payment_method TEXT NOT NULL,
		crypto_currency TEXT NOT NULL DEFAULT '',
		crypto_address TEXT NOT NULL DEFAULT '',
		payment_url TEXT NOT NULL DEFAULT '',
		tx_hash TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		files JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		approved_at TIMESTAMPTZ,
		approved_by TEXT NOT NULL DEFAULT '',
		rejected_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS purchases_user_status_idx ON purchases (user_id, status)`,
}

// EnsureSchema creates missing tables and indexes. It is idempotent and runs
// at startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
