package soundmap

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthenticated is returned when a request carries no valid credential
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when a credential lacks a required scope
	ErrForbidden = errors.New("forbidden")
	// ErrStoreUnavailable is returned by store clients on transport, auth or IO failures
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrUploadFailed is returned when a blob could not be written during create
	ErrUploadFailed = errors.New("upload failed")
	// ErrMetadataWriteFailed is returned when a row could not be inserted, updated or deleted
	ErrMetadataWriteFailed = errors.New("metadata write failed")
	// ErrMetadataReadFailed is returned when rows could not be read
	ErrMetadataReadFailed = errors.New("metadata read failed")
	// ErrDeleteFailed is returned when a blob could not be removed during delete
	ErrDeleteFailed = errors.New("delete failed")
)
