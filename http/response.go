package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/soundmap"
)

// Response messages.
const (
	MsgRequiresAuthentication = "Requires authentication"
	MsgBadCredentials         = "Bad credentials"
	MsgPermissionDenied       = "Permission denied"
	MsgTooManyRequests        = "Too many requests, please try again later."
	MsgUploadTooLarge         = "Upload too large"
	MsgNotFound               = "Not Found"
	MsgMethodNotAllowed       = "Method Not Allowed"
	MsgInternalServerError    = "Internal Server Error"
	MsgServiceUnavailable     = "Service Unavailable"
	MsgInvalidInput           = "Invalid input"

	MsgUploadFailed = "Failed to upload sound"
	MsgSaveFailed   = "Failed to save sound"
	MsgDeleteFailed = "Failed to delete sound"
	MsgUpdateFailed = "Failed to update sound"
	MsgListFailed   = "Failed to list sounds"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Message: message}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError logs err and writes the response matching its sentinel.
// Store failures are reported as 400 with storeMessage so that backend
// details never reach the client; upload failures always use MsgUploadFailed.
func HandleError(w http.ResponseWriter, err error, storeMessage string) {
	slog.Error("request error", "error", err)

	switch {
	case errors.Is(err, ErrMissingCredential):
		WriteError(w, http.StatusUnauthorized, MsgRequiresAuthentication)
	case errors.Is(err, soundmap.ErrUnauthenticated):
		WriteError(w, http.StatusUnauthorized, MsgBadCredentials)
	case errors.Is(err, soundmap.ErrForbidden):
		WriteError(w, http.StatusForbidden, MsgPermissionDenied)
	case errors.Is(err, ErrUploadTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, MsgUploadTooLarge)
	case errors.Is(err, soundmap.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, MsgInvalidInput)
	case errors.Is(err, soundmap.ErrUploadFailed):
		WriteError(w, http.StatusBadRequest, MsgUploadFailed)
	case errors.Is(err, soundmap.ErrMetadataWriteFailed),
		errors.Is(err, soundmap.ErrMetadataReadFailed),
		errors.Is(err, soundmap.ErrDeleteFailed),
		errors.Is(err, soundmap.ErrStoreUnavailable):
		if storeMessage == "" {
			storeMessage = MsgSaveFailed
		}
		WriteError(w, http.StatusBadRequest, storeMessage)
	case errors.Is(err, soundmap.ErrNotFound):
		WriteError(w, http.StatusNotFound, MsgNotFound)
	default:
		WriteError(w, http.StatusInternalServerError, MsgInternalServerError)
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
