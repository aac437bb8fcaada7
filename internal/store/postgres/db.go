// Package postgres provides a PostgreSQL-backed archive of resolved
// alerts removed by retention cleanup.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sentinel-go/internal/config"
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates a new PostgreSQL connection pool.
func NewDB(ctx context.Context, cfg *config.PostgresConfig) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxOpenConns
	poolConfig.MinConns = cfg.MaxIdleConns
	poolConfig.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Pool returns the underlying connection pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// RunMigrations creates the required database tables.
func (db *DB) RunMigrations(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS alert_archive (
			alert_id VARCHAR(255) PRIMARY KEY,
			rule_id VARCHAR(255) NOT NULL,
			rule_name VARCHAR(255) NOT NULL,
			severity VARCHAR(20) NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			message TEXT NOT NULL,
			triggered_at BIGINT NOT NULL,
			recorded_at TIMESTAMP WITH TIME ZONE NOT NULL,
			acknowledged_at TIMESTAMP WITH TIME ZONE,
			acknowledged_by VARCHAR(255),
			acknowledged_note TEXT,
			resolved_at TIMESTAMP WITH TIME ZONE NOT NULL,
			resolution TEXT,
			entry JSONB NOT NULL,
			archived_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_alert_archive_rule ON alert_archive(rule_id);
		CREATE INDEX IF NOT EXISTS idx_alert_archive_severity ON alert_archive(severity);
		CREATE INDEX IF NOT EXISTS idx_alert_archive_archived_at ON alert_archive(archived_at);
	`

	_, err := db.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
