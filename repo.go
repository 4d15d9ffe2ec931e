package soundmap

import (
	"context"
	"io"
)

// SoundRepo defines the interface for sound metadata persistence.
// Implementations must be safe for concurrent use.
//
// All statements must be parameterized. Only a validated table name may be
// formatted into statement text.
type SoundRepo interface {
	// Insert creates a row and returns it with its assigned ID and creation
	// time. IDs are never reused.
	//
	// Returns:
	//   - Sound: the inserted row
	//   - error: wraps ErrStoreUnavailable on any database failure
	Insert(ctx context.Context, s NewSound) (Sound, error)

	// ListPublic returns enabled rows ordered by ID. An empty store returns
	// an empty, non-nil slice.
	ListPublic(ctx context.Context) ([]Sound, error)

	// ListAll returns every row ordered by ID, enabled or not.
	ListAll(ctx context.Context) ([]Sound, error)

	// SetEnabled updates the visibility flag. Zero affected rows is not an
	// error.
	SetEnabled(ctx context.Context, id int64, enabled bool) error

	// FetchFilename returns the blob name for a row.
	//
	// Returns:
	//   - string: the blob name
	//   - error: ErrNotFound when no row has this ID, ErrStoreUnavailable otherwise
	FetchFilename(ctx context.Context, id int64) (string, error)

	// DeleteByID removes a row. Deleting an absent row succeeds.
	DeleteByID(ctx context.Context, id int64) error

	// ListFilenames returns the blob name of every row.
	ListFilenames(ctx context.Context) ([]string, error)
}

// BlobStore defines the interface for binary audio storage.
// Implementations can use the local filesystem, S3, or any other backend.
//
// All methods accept a context for cancellation and timeout control.
type BlobStore interface {
	// Put stores content under name and returns a durable URL from which the
	// blob can be fetched. Writing an existing name overwrites it.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - name: blob name, a single path segment
	//   - content: the audio bytes
	//   - size: content length, or -1 when unknown
	//   - contentType: MIME type recorded with the blob when supported
	//
	// Returns:
	//   - string: retrieval URL for the blob
	//   - error: wraps ErrStoreUnavailable on transport, auth or IO failures
	Put(ctx context.Context, name string, content io.Reader, size int64, contentType string) (string, error)

	// Delete removes a blob. Deleting a missing blob succeeds.
	Delete(ctx context.Context, name string) error

	// List returns the names of all stored blobs. An empty store returns an
	// empty, non-nil slice.
	//
	// Warning: this walks the whole store. It backs the out-of-band
	// reconciliation sweep and is not meant for request paths.
	List(ctx context.Context) ([]string, error)
}
