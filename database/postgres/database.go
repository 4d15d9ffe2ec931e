package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/soundmap"
)

type database struct {
	pool   *pgxpool.Pool
	tables soundmap.Tables
}

// Connect creates a PostgreSQL pool and waits until it answers a ping.
// The ping is retried up to retries times with exponential backoff starting
// at 500ms. Tables should be validated before calling Connect.
func Connect(ctx context.Context, dsn string, tables soundmap.Tables, retries int) (*database, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	backoff := 500 * time.Millisecond
	for attempt := 0; ; attempt++ {
		pingErr := pool.Ping(ctx)
		if pingErr == nil {
			break
		}
		if attempt >= retries {
			pool.Close()
			return nil, fmt.Errorf("connect postgres: %w: %w", soundmap.ErrStoreUnavailable, pingErr)
		}

		slog.Warn("postgres not ready, retrying", "attempt", attempt+1, "backoff", backoff, "error", pingErr)
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, fmt.Errorf("connect postgres: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return &database{
		pool:   pool,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate runs database migrations to create required tables.
func (d *database) Migrate(ctx context.Context) error {
	return Migrate(ctx, d.pool, d.tables)
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.pool, d.tables)
}

// GetRepo returns the SoundRepo for database operations.
func (d *database) GetRepo() soundmap.SoundRepo {
	return &Repo{db: d.pool, tableName: d.tables.Sounds}
}

// Close closes the database connection pool.
func (d *database) Close() error {
	d.pool.Close()
	return nil
}
