// Package filesystem provides a local directory blob store for soundmap.
// Writes are atomic (temp file then rename) and blobs are exposed through
// URLs rooted at a configurable public base URL.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sagarc03/soundmap"
)

// Store provides file system blob storage.
type Store struct {
	root    *os.Root
	baseURL string
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
// baseURL is the prefix of the URLs returned by Put, typically the server's
// public URL followed by the media route, e.g. "http://localhost:8080/media".
func NewFileStorage(root *os.Root, baseURL string) *Store {
	return &Store{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// Get opens a blob for reading. Returns soundmap.ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, name string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("get blob %s: %w: %w", name, soundmap.ErrStoreUnavailable, err)
	}

	if !soundmap.IsValidBlobName(name) {
		return nil, soundmap.ErrNotFound
	}

	f, err := s.root.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, soundmap.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open blob: %w: %w", soundmap.ErrStoreUnavailable, err)
	}

	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Put atomically writes content under name using a temp file and rename and
// returns the blob's URL. The size and content type are not needed on disk;
// Get callers derive the type from the extension.
func (s *Store) Put(ctx context.Context, name string, content io.Reader, _ int64, _ string) (string, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("put blob %s: %w: %w", name, soundmap.ErrStoreUnavailable, ctxErr)
	}

	if !soundmap.IsValidBlobName(name) {
		return "", fmt.Errorf("put blob %q: %w", name, soundmap.ErrInvalidInput)
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return "", fmt.Errorf("could not open temp file: %w: %w", soundmap.ErrStoreUnavailable, createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	if _, err := io.Copy(t, &ctxReader{ctx: ctx, r: content}); err != nil {
		return "", fmt.Errorf("could not copy blob contents: %w: %w", soundmap.ErrStoreUnavailable, err)
	}

	if err := t.Sync(); err != nil {
		return "", fmt.Errorf("could not sync written blob: %w: %w", soundmap.ErrStoreUnavailable, err)
	}

	if renameErr := s.root.Rename(tmpFile, name); renameErr != nil {
		return "", fmt.Errorf("failed to rename blob: %w: %w", soundmap.ErrStoreUnavailable, renameErr)
	}

	success = true

	return s.URL(name), nil
}

// URL returns the public URL of a blob.
func (s *Store) URL(name string) string {
	return s.baseURL + "/" + url.PathEscape(name)
}

// Delete removes a blob. A missing blob is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete blob %s: %w: %w", name, soundmap.ErrStoreUnavailable, err)
	}

	if !soundmap.IsValidBlobName(name) {
		return fmt.Errorf("delete blob %q: %w", name, soundmap.ErrInvalidInput)
	}

	err := s.root.Remove(name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete blob: %w: %w", soundmap.ErrStoreUnavailable, err)
	}
	return nil
}

// List returns the names of all blobs in the root directory. Directories
// and in-flight temp files are skipped.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list blobs: %w: %w", soundmap.ErrStoreUnavailable, err)
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w: %w", soundmap.ErrStoreUnavailable, err)
	}

	names := make([]string, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("list blobs: %w: %w", soundmap.ErrStoreUnavailable, err)
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}

	return names, nil
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
