package clientcli

import (
	"time"
)

// Sound mirrors a sound record as returned by the server.
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

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath   string
	Latitude    float64
	Longitude   float64
	Description string
	ContentType string // optional, auto-detect if empty
}

// UploadResult represents the result of uploading a recording.
type UploadResult struct {
	LocalPath string `json:"local_path"`
	Size      int64  `json:"size_bytes"`
	Sound     Sound  `json:"sound"`
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	ID        int64
	LocalPath string // empty = derive from filename, "-" = stdout
}

// DownloadResult represents the result of downloading a recording.
type DownloadResult struct {
	ID          int64  `json:"id"`
	URL         string `json:"url"`
	LocalPath   string `json:"local_path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// StatusOptions configures a status change.
type StatusOptions struct {
	ID      int64
	Enabled bool
}

// StatusResult represents the result of a status change.
type StatusResult struct {
	ID      int64 `json:"id"`
	Enabled bool  `json:"enabled"`
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	IDs []int64
}

// DeleteResult represents the result of deleting a single sound.
type DeleteResult struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
	Err     error `json:"-"` // nil on success
}

// ListOptions configures a list operation.
type ListOptions struct {
	All bool // include disabled sounds; requires the admin scope
}

// ListResult contains the listed sounds.
type ListResult struct {
	Items []Sound `json:"items"`
}

// Enabled counts the enabled sounds in the result.
func (r *ListResult) Enabled() int {
	n := 0
	for i := range r.Items {
		if r.Items[i].Enabled {
			n++
		}
	}
	return n
}

// serverMessage mirrors the {"message": "..."} body the server sends for
// errors and acknowledgements.
type serverMessage struct {
	Message string `json:"message"`
}
