// Package keybackend provides soundmap.KeyStore implementations for
// resolving token signing keys.
package keybackend

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sagarc03/soundmap"
)

// MapKeyStore resolves keys from an in-memory map of key id to public key.
// Suitable for configuration file-based keys and tests.
type MapKeyStore struct {
	keys map[string]any
}

// NewMapKeyStore creates a new map-based key store.
func NewMapKeyStore(keys map[string]any) *MapKeyStore {
	return &MapKeyStore{keys: keys}
}

// Keyfunc returns the key named by the token's "kid" header. A token without
// a kid matches when the store holds exactly one key.
func (s *MapKeyStore) Keyfunc(token *jwt.Token) (any, error) {
	kid, _ := token.Header["kid"].(string)

	if kid == "" && len(s.keys) == 1 {
		for _, key := range s.keys {
			return key, nil
		}
	}

	key, found := s.keys[kid]
	if !found {
		return nil, fmt.Errorf("%w: kid %q: %w", ErrKeyNotFound, kid, soundmap.ErrUnauthenticated)
	}
	return key, nil
}
