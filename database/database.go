package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/soundmap"
	"github.com/sagarc03/soundmap/database/postgres"
	"github.com/sagarc03/soundmap/database/sqlite"
)

// Database is a connected metadata backend.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	GetRepo() soundmap.SoundRepo
	Close() error
}

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" validate:"required"`
	// Tables holds the table names
	Tables soundmap.Tables `mapstructure:"tables"`
	// ConnectRetries is how many times a failed postgres ping is retried
	ConnectRetries int `mapstructure:"connect_retries" validate:"min=0"`
}

// Connect opens the configured database backend and verifies it is reachable.
// Migrations and schema validation are left to the caller.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Tables, cfg.ConnectRetries)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}
