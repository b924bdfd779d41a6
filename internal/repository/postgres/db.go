// Package postgres implements the repository interfaces on PostgreSQL.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// InitDB connects to Postgres and applies the schema.
func InitDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("Database connected and migrated")
	return db, nil
}

func migrateDB(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			price BIGINT NOT NULL DEFAULT 0,
			stock INT NOT NULL DEFAULT 0 CHECK (stock >= 0)
		);

		CREATE TABLE IF NOT EXISTS staff (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'staff'
		);

		CREATE TABLE IF NOT EXISTS sales (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL REFERENCES products(id),
			staff_id TEXT NOT NULL REFERENCES staff(id),
			quantity INT NOT NULL,
			total_amount BIGINT NOT NULL,
			sold_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_sales_sold_at ON sales (sold_at);

		CREATE TABLE IF NOT EXISTS daily_rollups (
			day DATE PRIMARY KEY,
			revenue BIGINT NOT NULL DEFAULT 0,
			orders INT NOT NULL DEFAULT 0,
			units INT NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS applied_sale_events (
			sale_id TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}
