package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

func createSoundsTable(ctx context.Context, db Querier, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexEnabled := pgx.Identifier{fmt.Sprintf("idx_%s_enabled", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			filename TEXT NOT NULL UNIQUE,
			url TEXT NOT NULL,
			description TEXT,
			enabled BOOLEAN NOT NULL DEFAULT TRUE
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (id)
		WHERE (enabled);
	`,
		quotedTable,
		indexEnabled, quotedTable,
	)

	_, err := db.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create sounds table: %w", err)
	}
	return nil
}

// Migrate creates the sounds table and its indexes if they do not exist.
func Migrate(ctx context.Context, db Querier, tables Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := createSoundsTable(ctx, db, tables.Sounds); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// DropTables removes the sounds table. Intended for tests and teardown.
func DropTables(ctx context.Context, db Querier, tables Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}

	quotedTable := pgx.Identifier{tables.Sounds}.Sanitize()
	if _, err := db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", quotedTable)); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}
