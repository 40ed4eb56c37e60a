// Package repository persists serialized games in PostgreSQL. Games are
// stored as their snapshot form, so resume reconstructs an engine exactly
// as it left off.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/brinkhaven/brinksmanship-server/internal/config"
)

// NewDB connects a pgx pool using the database configuration and verifies
// the connection with a ping.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.HealthCheckTime > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckTime
	}

	connectCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected",
		zap.Int32("max_conns", poolCfg.MaxConns),
	)
	return pool, nil
}

// schema is the storage layout for persisted games. EnsureSchema applies it
// idempotently at startup.
const schema = `
CREATE TABLE IF NOT EXISTS games (
	id           TEXT PRIMARY KEY,
	scenario     TEXT NOT NULL,
	snapshot     JSONB NOT NULL,
	checksum     TEXT NOT NULL,
	turn         INT NOT NULL,
	is_over      BOOLEAN NOT NULL DEFAULT FALSE,
	ending_type  TEXT,
	vp_a         DOUBLE PRECISION,
	vp_b         DOUBLE PRECISION,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS games_is_over_idx ON games (is_over);
`

// EnsureSchema creates the games table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
