// Package postgres implements soundmap.SoundRepo on PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sagarc03/soundmap"
)

// Tables is an alias for soundmap.Tables for package compatibility.
type Tables = soundmap.Tables

// Querier is the subset of *pgxpool.Pool used by this package.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const soundColumns = "id, created_at, latitude, longitude, filename, url, description, enabled"

type Repo struct {
	db        Querier
	tableName string
}

func NewRepo(db Querier, tables Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{db: db, tableName: tables.Sounds}, nil
}

func scanSound(row pgx.Row) (soundmap.Sound, error) {
	var s soundmap.Sound
	var description *string
	if err := row.Scan(&s.ID, &s.CreatedAt, &s.Latitude, &s.Longitude, &s.Filename, &s.URL, &description, &s.Enabled); err != nil {
		return soundmap.Sound{}, err
	}
	if description != nil {
		s.Description = *description
	}
	return s, nil
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *Repo) Insert(ctx context.Context, in soundmap.NewSound) (soundmap.Sound, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (latitude, longitude, filename, url, description, enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s
	`, r.tableName, soundColumns)

	row := r.db.QueryRow(ctx, query,
		in.Latitude, in.Longitude, in.Filename, in.URL, nullableText(in.Description), in.Enabled,
	)

	s, err := scanSound(row)
	if err != nil {
		return soundmap.Sound{}, fmt.Errorf("insert: %w: %w", soundmap.ErrStoreUnavailable, err)
	}

	return s, nil
}

func (r *Repo) ListPublic(ctx context.Context) ([]soundmap.Sound, error) {
	return r.list(ctx, "WHERE enabled = TRUE", "list public")
}

func (r *Repo) ListAll(ctx context.Context) ([]soundmap.Sound, error) {
	return r.list(ctx, "", "list all")
}

func (r *Repo) list(ctx context.Context, whereClause, opName string) ([]soundmap.Sound, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		%s
		ORDER BY id
	`, soundColumns, r.tableName, whereClause)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", opName, soundmap.ErrStoreUnavailable, err)
	}
	defer rows.Close()

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

// SetEnabled updates the visibility flag. Zero affected rows is not an error.
func (r *Repo) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	query := fmt.Sprintf(`UPDATE %s SET enabled = $1 WHERE id = $2`, r.tableName)

	if _, err := r.db.Exec(ctx, query, enabled, id); err != nil {
		return fmt.Errorf("set enabled: %w: %w", soundmap.ErrStoreUnavailable, err)
	}

	return nil
}

func (r *Repo) FetchFilename(ctx context.Context, id int64) (string, error) {
	query := fmt.Sprintf(`SELECT filename FROM %s WHERE id = $1`, r.tableName)

	var filename string
	err := r.db.QueryRow(ctx, query, id).Scan(&filename)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", soundmap.ErrNotFound
		}
		return "", fmt.Errorf("fetch filename: %w: %w", soundmap.ErrStoreUnavailable, err)
	}

	return filename, nil
}

func (r *Repo) DeleteByID(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tableName)

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete: %w: %w", soundmap.ErrStoreUnavailable, err)
	}

	return nil
}

func (r *Repo) ListFilenames(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT filename FROM %s ORDER BY id`, r.tableName)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list filenames: %w: %w", soundmap.ErrStoreUnavailable, err)
	}

	filenames, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list filenames: %w: %w", soundmap.ErrStoreUnavailable, err)
	}
	if filenames == nil {
		filenames = []string{}
	}

	return filenames, nil
}
