// Package database provides database connection and schema utilities.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultConnectAttempts = 5
	connectBackoff         = 500 * time.Millisecond
)

// PoolOption configures the connection pool.
type PoolOption func(*poolSettings)

type poolSettings struct {
	cfg      *pgxpool.Config
	attempts int
}

// WithAfterConnect sets a callback run on each new connection (pgvector type registration).
func WithAfterConnect(fn func(context.Context, *pgx.Conn) error) PoolOption {
	return func(s *poolSettings) {
		s.cfg.AfterConnect = fn
	}
}

// WithMaxConns caps the pool size. Values <= 0 keep the pgxpool default.
func WithMaxConns(n int32) PoolOption {
	return func(s *poolSettings) {
		if n > 0 {
			s.cfg.MaxConns = n
		}
	}
}

// WithApplicationName tags sessions so pg_stat_activity shows which binary holds them.
func WithApplicationName(name string) PoolOption {
	return func(s *poolSettings) {
		if name != "" {
			s.cfg.ConnConfig.RuntimeParams["application_name"] = name
		}
	}
}

// WithConnectAttempts sets how many times the initial ping is tried before giving up.
func WithConnectAttempts(n int) PoolOption {
	return func(s *poolSettings) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// NewPostgresPool creates a pool and waits until the server answers a ping. The wait backs off
// linearly between attempts and stops early when ctx is cancelled.
func NewPostgresPool(ctx context.Context, databaseURL string, opts ...PoolOption) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	settings := &poolSettings{cfg: config, attempts: defaultConnectAttempts}
	for _, opt := range opts {
		opt(settings)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := waitForPing(ctx, pool, settings.attempts); err != nil {
		pool.Close()

		return nil, err
	}

	slog.InfoContext(ctx, "Connected to PostgreSQL",
		"host", config.ConnConfig.Host,
		"database", config.ConnConfig.Database,
		"max_conns", config.MaxConns,
	)

	return pool, nil
}

func waitForPing(ctx context.Context, pool *pgxpool.Pool, attempts int) error {
	var err error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err = pool.Ping(ctx); err == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		slog.WarnContext(ctx, "PostgreSQL not reachable yet, retrying", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to ping database: %w", ctx.Err())
		case <-time.After(time.Duration(attempt) * connectBackoff):
		}
	}

	return fmt.Errorf("failed to ping database after %d attempt(s): %w", attempts, err)
}
