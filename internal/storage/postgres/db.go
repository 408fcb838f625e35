// Package postgres provides the pgx-backed repositories and schema
// migrations for the user and event stores.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gatherly/server/internal/config"
)

// Connect opens a connection pool and verifies it with a ping, retrying with
// a fixed backoff up to the configured attempt count. The retry covers slow
// database startup during deploys; once connected, pgxpool handles later
// reconnects itself.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConnections)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	var pingErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		pingErr = pool.Ping(pingCtx)
		cancel()
		if pingErr == nil {
			logger.Info().Msg("database connected")
			return pool, nil
		}

		logger.Warn().
			Err(pingErr).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("database not reachable, retrying")

		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(cfg.ConnectBackoff):
		}
	}

	pool.Close()
	return nil, fmt.Errorf("database not reachable after %d attempts: %w", attempts, pingErr)
}
