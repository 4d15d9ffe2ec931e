package soundmap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
)

type SoundService struct {
	repo       SoundRepo
	blobs      BlobStore
	blobPrefix string
}

// ServiceConfig holds configuration options for SoundService.
type ServiceConfig struct {
	BlobPrefix string // Prefix for generated blob names (default: "sound")
}

func NewSoundService(repo SoundRepo, blobs BlobStore, cfg ServiceConfig) (*SoundService, error) {
	if repo == nil {
		return nil, errors.New("new sound service: repo cannot be nil")
	}
	if blobs == nil {
		return nil, errors.New("new sound service: blob store cannot be nil")
	}

	prefix := cfg.BlobPrefix
	if prefix == "" {
		prefix = DefaultBlobPrefix
	}
	if !IsValidBlobName(prefix) {
		return nil, fmt.Errorf("new sound service: invalid blob prefix: %s", prefix)
	}

	return &SoundService{
		repo:       repo,
		blobs:      blobs,
		blobPrefix: prefix,
	}, nil
}

// Create stores the audio blob and then inserts its metadata row.
//
// The method performs the following steps:
//  1. Validates context is not cancelled
//  2. Validates coordinates and content
//  3. Writes the blob under a freshly generated name
//  4. Inserts the row with enabled set to true
//
// Cancellation is only observed before step 3. The store calls ignore it.
//
// Error types returned:
//   - ErrInvalidInput: coordinates out of range or missing content
//   - ErrUploadFailed: the blob write failed, no row was written
//   - ErrMetadataWriteFailed: the insert failed after the blob was written
//
// A failed insert leaves the blob in place. Its name is logged with the
// "orphan_blob" attribute so it can be swept by Reconcile.
func (s *SoundService) Create(ctx context.Context, in CreateSound, content io.Reader) (Sound, error) {
	if err := ctx.Err(); err != nil {
		return Sound{}, fmt.Errorf("create sound: %w", err)
	}

	if content == nil {
		return Sound{}, fmt.Errorf("create sound: %w: content cannot be empty", ErrInvalidInput)
	}

	if !IsValidCoordinate(in.Latitude, in.Longitude) {
		return Sound{}, fmt.Errorf("create sound: %w: coordinates out of range (%v, %v)", ErrInvalidInput, in.Latitude, in.Longitude)
	}

	name := NewBlobName(s.blobPrefix, in.ContentType)

	// Store calls run to completion once started.
	ctx = context.WithoutCancel(ctx)

	url, putErr := s.blobs.Put(ctx, name, content, in.Size, in.ContentType)
	if putErr != nil {
		return Sound{}, fmt.Errorf("create sound %s: %w: %w", name, ErrUploadFailed, putErr)
	}

	sound, insertErr := s.repo.Insert(ctx, NewSound{
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Filename:    name,
		URL:         url,
		Description: in.Description,
		Enabled:     true,
	})
	if insertErr != nil {
		slog.Error("sound metadata insert failed",
			"orphan_blob", name,
			"error", insertErr,
		)
		return Sound{}, fmt.Errorf("create sound %s: %w: %w", name, ErrMetadataWriteFailed, insertErr)
	}

	return sound, nil
}

// ListPublic returns the enabled sounds.
func (s *SoundService) ListPublic(ctx context.Context) ([]Sound, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list public sounds: %w", err)
	}

	sounds, err := s.repo.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("list public sounds: %w: %w", ErrMetadataReadFailed, err)
	}

	return sounds, nil
}

// ListAll returns every sound, including disabled ones.
func (s *SoundService) ListAll(ctx context.Context) ([]Sound, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list all sounds: %w", err)
	}

	sounds, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all sounds: %w: %w", ErrMetadataReadFailed, err)
	}

	return sounds, nil
}

// SetEnabled toggles public visibility. An unknown id is not an error.
func (s *SoundService) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("set sound %d enabled: %w", id, err)
	}
	ctx = context.WithoutCancel(ctx)

	if err := s.repo.SetEnabled(ctx, id, enabled); err != nil {
		return fmt.Errorf("set sound %d enabled: %w: %w", id, ErrMetadataWriteFailed, err)
	}

	return nil
}

// Delete removes the blob of a sound and then its row.
//
// The method performs the following steps:
//  1. Looks up the blob name for id
//  2. Deletes the blob, skipped when the row does not exist
//  3. Deletes the row
//
// Error types returned:
//   - ErrMetadataReadFailed: the filename lookup failed for a reason other than ErrNotFound
//   - ErrDeleteFailed: the blob delete failed, the row is left untouched
//   - ErrMetadataWriteFailed: the row delete failed after the blob was removed
//
// Deleting an id that does not exist performs no blob mutation and succeeds.
// Cancellation is only observed before the first store call.
func (s *SoundService) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete sound %d: %w", id, err)
	}

	// A client going away between the blob delete and the row delete must
	// not leave an enabled row pointing at a missing blob.
	ctx = context.WithoutCancel(ctx)

	filename, fetchErr := s.repo.FetchFilename(ctx, id)
	switch {
	case errors.Is(fetchErr, ErrNotFound):
		filename = ""
	case fetchErr != nil:
		return fmt.Errorf("delete sound %d: %w: %w", id, ErrMetadataReadFailed, fetchErr)
	}

	if filename != "" {
		if err := s.blobs.Delete(ctx, filename); err != nil {
			return fmt.Errorf("delete sound %d: %w: %w", id, ErrDeleteFailed, err)
		}
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if filename != "" {
			slog.Error("sound row delete failed after blob removal",
				"id", id,
				"dangling_row", filename,
				"error", err,
			)
		}
		return fmt.Errorf("delete sound %d: %w: %w", id, ErrMetadataWriteFailed, err)
	}

	return nil
}

// Reconcile compares blob names against row filenames.
//
// Orphan blobs (blob without row) are reported, and removed when opts.Delete
// is set. Dangling rows (row without blob) are only reported; removing them
// is left to an administrator through Delete.
//
// This is never run on a request path. It lists both stores in full.
func (s *SoundService) Reconcile(ctx context.Context, opts ReconcileOptions) (ReconcileReport, error) {
	if err := ctx.Err(); err != nil {
		return ReconcileReport{}, fmt.Errorf("reconcile: %w", err)
	}

	blobNames, err := s.blobs.List(ctx)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("reconcile: list blobs: %w", err)
	}

	filenames, err := s.repo.ListFilenames(ctx)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("reconcile: %w: %w", ErrMetadataReadFailed, err)
	}

	indexed := make(map[string]struct{}, len(filenames))
	for _, f := range filenames {
		indexed[f] = struct{}{}
	}
	stored := make(map[string]struct{}, len(blobNames))
	for _, b := range blobNames {
		stored[b] = struct{}{}
	}

	report := ReconcileReport{
		OrphanBlobs:  []string{},
		DanglingRows: []string{},
	}
	for _, b := range blobNames {
		if _, ok := indexed[b]; !ok {
			report.OrphanBlobs = append(report.OrphanBlobs, b)
		}
	}
	for _, f := range filenames {
		if _, ok := stored[f]; !ok {
			report.DanglingRows = append(report.DanglingRows, f)
		}
	}
	slices.Sort(report.OrphanBlobs)
	slices.Sort(report.DanglingRows)

	if !opts.Delete {
		return report, nil
	}

	for _, name := range report.OrphanBlobs {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("reconcile: %w", err)
		}
		if err := s.blobs.Delete(ctx, name); err != nil {
			return report, fmt.Errorf("reconcile '%s': %w: %w", name, ErrDeleteFailed, err)
		}
		report.Deleted++
	}

	return report, nil
}
