// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"deal-workers/internal/common/config"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/ledger"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL connection pool backing the ledger.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens the pool. No connection is made until first use.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// OpenLedger connects with retry and makes sure the ledger table exists.
func OpenLedger(ctx context.Context, cfg config.PostgresConfig, log logger.Logger) (*ledger.PostgresStore, *PostgresClient, error) {
	pg, err := NewPostgres(cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := RetryWithBackoff(ctx, pg.Ping, 15, 2*time.Second, log, "PostgreSQL connection"); err != nil {
		pg.Close()
		return nil, nil, err
	}

	store := ledger.NewPostgresStore(pg.DB)
	if err := store.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return store, pg, nil
}
