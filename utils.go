package soundmap

import (
	"math"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// DefaultBlobPrefix is prepended to every generated blob name.
const DefaultBlobPrefix = "sound"

// DefaultBlobExtension is used when the content type has no known extension.
const DefaultBlobExtension = ".mp4"

var audioExtensions = map[string]string{
	"audio/mp4":   ".mp4",
	"video/mp4":   ".mp4",
	"audio/x-m4a": ".m4a",
	"audio/mpeg":  ".mp3",
	"audio/ogg":   ".ogg",
	"audio/webm":  ".webm",
	"video/webm":  ".webm",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/aac":   ".aac",
	"audio/flac":  ".flac",
}

var contentTypes = map[string]string{
	".mp4":  "audio/mp4",
	".m4a":  "audio/x-m4a",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".webm": "audio/webm",
	".wav":  "audio/wav",
	".aac":  "audio/aac",
	".flac": "audio/flac",
}

// ExtensionFor returns the file extension for an audio content type.
// Parameters such as "; codecs=opus" are ignored. Unknown types map to
// DefaultBlobExtension.
func ExtensionFor(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if ext, ok := audioExtensions[mediaType]; ok {
		return ext
	}
	return DefaultBlobExtension
}

// ContentTypeFor returns the content type for a blob name based on its extension.
func ContentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// NewBlobName generates a unique blob name of the form <prefix>-<uuid><ext>.
func NewBlobName(prefix, contentType string) string {
	if prefix == "" {
		prefix = DefaultBlobPrefix
	}
	return prefix + "-" + uuid.Must(uuid.NewV7()).String() + ExtensionFor(contentType)
}

var validBlobNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]*$`)

// IsValidBlobName reports whether name is a single, safe path segment.
// Leading dots, separators and ".." are rejected.
func IsValidBlobName(name string) bool {
	if len(name) == 0 || len(name) > 255 {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	return validBlobNameRegex.MatchString(name)
}

// IsValidCoordinate reports whether lat and lng are finite and within
// [-90, 90] and [-180, 180] respectively.
func IsValidCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
