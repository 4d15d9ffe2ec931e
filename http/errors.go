package http

import "errors"

var (
	// ErrMissingCredential is returned when a protected route is called without a bearer token.
	ErrMissingCredential = errors.New("missing bearer token")

	// ErrUploadTooLarge is returned when a request body exceeds the configured upload limit.
	ErrUploadTooLarge = errors.New("upload too large")
)
