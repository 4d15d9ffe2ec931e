package keybackend

import "errors"

// ErrKeyNotFound is returned when no key matches the token's key id.
var ErrKeyNotFound = errors.New("signing key not found")
