package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq" // database/sql driver used by the migrator
)

// PoolOptions tunes the order ledger pool. Zero fields keep pgxpool's
// defaults, except PingAttempts which defaults to 5.
type PoolOptions struct {
	MaxConns     int32
	PingAttempts int
	// PingBackoff is the wait after the first failed ping; it doubles per attempt.
	PingBackoff time.Duration
}

// NewPool connects and pings until Postgres answers. On compose start-up the
// checkout container is often ready before the database is.
func NewPool(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pingWithBackoff(ctx, pool.Ping, opts); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func pingWithBackoff(ctx context.Context, ping func(context.Context) error, opts PoolOptions) error {
	attempts := opts.PingAttempts
	if attempts <= 0 {
		attempts = 5
	}
	wait := opts.PingBackoff
	if wait <= 0 {
		wait = 200 * time.Millisecond
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = ping(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("ping postgres: %w", ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}
	return fmt.Errorf("ping postgres after %d attempts: %w", attempts, err)
}

// openDB opens a database connection without pinging.
func openDB(dsn string) (*sql.DB, error) {
	return sql.Open("postgres", dsn)
}
