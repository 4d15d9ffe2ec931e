package soundmap

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Sound is a published recording as stored in the metadata store.
type Sound struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Filename    string    `json:"filename"`
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	Enabled     bool      `json:"enabled"`
}

// NewSound is the row handed to SoundRepo.Insert.
type NewSound struct {
	Latitude    float64
	Longitude   float64
	Filename    string
	URL         string
	Description string
	Enabled     bool
}

// CreateSound is the caller's input to SoundService.Create.
type CreateSound struct {
	Latitude    float64
	Longitude   float64
	Description string
	ContentType string
	// Size is the content length in bytes, or -1 when unknown.
	Size int64
}

// ReconcileOptions controls SoundService.Reconcile.
type ReconcileOptions struct {
	// Delete removes orphaned blobs instead of only reporting them.
	Delete bool
}

// ReconcileReport lists the drift found between the two stores.
type ReconcileReport struct {
	OrphanBlobs  []string `json:"orphan_blobs"`
	DanglingRows []string `json:"dangling_rows"`
	Deleted      int      `json:"deleted"`
}

// Tables holds configurable table names for metadata storage.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	Sounds string `mapstructure:"sounds"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Sounds == "" {
		return errors.New("validate tables: sounds table name cannot be empty")
	}

	if !IsValidTableName(t.Sounds) {
		return fmt.Errorf("validate tables: invalid sounds table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Sounds)
	}

	return nil
}
