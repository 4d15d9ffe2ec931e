package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sagarc03/soundmap"
)

// soundColumn is the expected shape of one column of the sounds table as
// reported by PRAGMA table_info.
type soundColumn struct {
	affinity string
	notNull  bool
	pk       bool
}

var soundsColumns = map[string]soundColumn{
	"id":          {affinity: "integer", notNull: true, pk: true},
	"created_at":  {affinity: "text", notNull: true},
	"latitude":    {affinity: "real", notNull: true},
	"longitude":   {affinity: "real", notNull: true},
	"filename":    {affinity: "text", notNull: true},
	"url":         {affinity: "text", notNull: true},
	"description": {affinity: "text"},
	"enabled":     {affinity: "integer", notNull: true},
}

// soundsColumnOrder fixes the order problems are reported in.
var soundsColumnOrder = []string{"id", "created_at", "latitude", "longitude", "filename", "url", "description", "enabled"}

// ValidateSchema checks that the sounds table exists with the columns the
// repo reads and writes, that id is its primary key and that filename is
// unique. Delete and reconcile key blobs by filename, so a table without
// that constraint is rejected.
func ValidateSchema(ctx context.Context, db *sql.DB, tables soundmap.Tables) error {
	tableName := tables.Sounds
	if !soundmap.IsValidTableName(tableName) {
		return fmt.Errorf("validate schema: invalid table name: %s", tableName)
	}

	exists, err := tableExists(ctx, db, tableName)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tableName, err)
	}
	if !exists {
		return fmt.Errorf("validate schema %s: table does not exist", tableName)
	}

	actual, err := readColumns(ctx, db, tableName)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tableName, err)
	}

	var missing, mismatched []string
	for _, name := range soundsColumnOrder {
		want := soundsColumns[name]
		got, ok := actual[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if got.affinity != want.affinity {
			mismatched = append(mismatched, fmt.Sprintf("%s: expected %s, got %s", name, want.affinity, got.affinity))
		}
		if got.notNull != want.notNull {
			mismatched = append(mismatched, fmt.Sprintf("%s: expected not null=%v, got %v", name, want.notNull, got.notNull))
		}
		if got.pk != want.pk {
			mismatched = append(mismatched, fmt.Sprintf("%s: expected primary key=%v, got %v", name, want.pk, got.pk))
		}
	}

	if _, ok := actual["filename"]; ok {
		unique, err := hasUniqueIndexOn(ctx, db, tableName, "filename")
		if err != nil {
			return fmt.Errorf("validate schema %s: %w", tableName, err)
		}
		if !unique {
			mismatched = append(mismatched, "filename: expected unique")
		}
	}

	if len(missing) == 0 && len(mismatched) == 0 {
		return nil
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "table %s schema validation failed:\n", tableName)
	if len(missing) > 0 {
		fmt.Fprintf(&msg, "  missing columns: %s\n", strings.Join(missing, ", "))
	}
	if len(mismatched) > 0 {
		fmt.Fprintf(&msg, "  mismatched columns:\n")
		for _, m := range mismatched {
			fmt.Fprintf(&msg, "    - %s\n", m)
		}
	}
	return fmt.Errorf("validate schema %s: %w", tableName, errors.New(msg.String()))
}

func readColumns(ctx context.Context, db *sql.DB, tableName string) (map[string]soundColumn, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(tableName)))
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(map[string]soundColumn)
	for rows.Next() {
		var (
			cid       int
			name      string
			declType  string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = soundColumn{
			affinity: strings.ToLower(declType),
			notNull:  notNull != 0,
			pk:       pk > 0,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return columns, nil
}

// hasUniqueIndexOn reports whether a unique index covers exactly column.
// Both UNIQUE column constraints and CREATE UNIQUE INDEX show up here.
func hasUniqueIndexOn(ctx context.Context, db *sql.DB, tableName, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA index_list(%s)`, quoteIdentifier(tableName)))
	if err != nil {
		return false, fmt.Errorf("query indexes: %w", err)
	}

	var unique []string
	for rows.Next() {
		var (
			seq     int
			name    string
			isUniq  int
			origin  string
			partial int
		)
		if err := rows.Scan(&seq, &name, &isUniq, &origin, &partial); err != nil {
			_ = rows.Close()
			return false, fmt.Errorf("scan index: %w", err)
		}
		if isUniq != 0 && partial == 0 {
			unique = append(unique, name)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return false, fmt.Errorf("index rows error: %w", err)
	}
	_ = rows.Close()

	// Connect limits the pool to one connection, so index_info is only
	// queried after the index_list rows are closed.
	for _, index := range unique {
		var cols []string
		infoRows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA index_info(%s)`, quoteIdentifier(index)))
		if err != nil {
			return false, fmt.Errorf("query index %s: %w", index, err)
		}
		for infoRows.Next() {
			var seqno, cid int
			var name sql.NullString
			if err := infoRows.Scan(&seqno, &cid, &name); err != nil {
				_ = infoRows.Close()
				return false, fmt.Errorf("scan index %s: %w", index, err)
			}
			cols = append(cols, name.String)
		}
		err = infoRows.Err()
		_ = infoRows.Close()
		if err != nil {
			return false, fmt.Errorf("index %s rows error: %w", index, err)
		}
		if len(cols) == 1 && cols[0] == column {
			return true, nil
		}
	}
	return false, nil
}

func tableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var name string
	query := `SELECT name FROM sqlite_master WHERE type='table' AND name=?`
	err := db.QueryRowContext(ctx, query, tableName).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check table exists: %w", err)
	}
	return true, nil
}
