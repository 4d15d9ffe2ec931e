// Package sqlite implements the repo interface using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sagarc03/soundmap"
)

const soundColumns = "id, created_at, latitude, longitude, filename, url, description, enabled"

type repo struct {
	db        *sql.DB
	tableName string
}

// NewRepo returns a SoundRepo backed by db.
func NewRepo(db *sql.DB, tables soundmap.Tables) (soundmap.SoundRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}
	return &repo{db: db, tableName: tables.Sounds}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSound(row scanner) (soundmap.Sound, error) {
	var s soundmap.Sound
	var createdAt string
	var description sql.NullString

	if err := row.Scan(&s.ID, &createdAt, &s.Latitude, &s.Longitude, &s.Filename, &s.URL, &description, &s.Enabled); err != nil {
		return soundmap.Sound{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return soundmap.Sound{}, fmt.Errorf("parse created_at: %w", err)
	}
	s.CreatedAt = t
	s.Description = description.String

	return s, nil
}

func (r *repo) Insert(ctx context.Context, in soundmap.NewSound) (soundmap.Sound, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (created_at, latitude, longitude, filename, url, description, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING %s`, r.tableName, soundColumns)

	now := time.Now().UTC().Format(time.RFC3339Nano)
	description := sql.NullString{String: in.Description, Valid: in.Description != ""}

	s, err := scanSound(r.db.QueryRowContext(ctx, query,
		now, in.Latitude, in.Longitude, in.Filename, in.URL, description, in.Enabled,
	))
	if err != nil {
		return soundmap.Sound{}, fmt.Errorf("insert: %w: %w", soundmap.ErrStoreUnavailable, err)
	}

	return s, nil
}

func (r *repo) ListPublic(ctx context.Context) ([]soundmap.Sound, error) {
	return r.list(ctx, "WHERE enabled = 1", "list public")
}

func (r *repo) ListAll(ctx context.Context) ([]soundmap.Sound, error) {
	return r.list(ctx, "", "list all")
}

func (r *repo) list(ctx context.Context, whereClause, opName string) ([]soundmap.Sound, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s %s ORDER BY id`, soundColumns, r.tableName, whereClause)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", opName, soundmap.ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	sounds := []soundmap.Sound{}
	for rows.Next() {
		s, err := scanSound(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w: %w", opName, soundmap.ErrStoreUnavailable, err)
		}
		sounds = append(sounds, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", opName, soundmap.ErrStoreUnavailable, err)
	}

	return sounds, nil
}

func (r *repo) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	query := fmt.Sprintf(`UPDATE %s SET enabled = ? WHERE id = ?`, r.tableName) //nolint:gosec // table name is validated

	if _, err := r.db.ExecContext(ctx, query, enabled, id); err != nil {
		return fmt.Errorf("set enabled: %w: %w", soundmap.ErrStoreUnavailable, err)
	}

	return nil
}

func (r *repo) FetchFilename(ctx context.Context, id int64) (string, error) {
	query := fmt.Sprintf(`SELECT filename FROM %s WHERE id = ?`, r.tableName) //nolint:gosec // table name is validated

	var filename string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&filename)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", soundmap.ErrNotFound
		}
		return "", fmt.Errorf("fetch filename: %w: %w", soundmap.ErrStoreUnavailable, err)
	}

	return filename, nil
}

func (r *repo) DeleteByID(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.tableName) //nolint:gosec // table name is validated

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete: %w: %w", soundmap.ErrStoreUnavailable, err)
	}

	return nil
}

func (r *repo) ListFilenames(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT filename FROM %s ORDER BY id`, r.tableName) //nolint:gosec // table name is validated

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list filenames: %w: %w", soundmap.ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	filenames := []string{}
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("list filenames: scan: %w: %w", soundmap.ErrStoreUnavailable, err)
		}
		filenames = append(filenames, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list filenames: %w: %w", soundmap.ErrStoreUnavailable, err)
	}

	return filenames, nil
}
