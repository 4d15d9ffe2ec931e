package keybackend

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sagarc03/soundmap"
)

// KeysConfig holds configuration for resolving token signing keys.
type KeysConfig struct {
	JWKSURL string    `mapstructure:"jwks_url"` // Remote JWKS endpoint, cached and refreshed in the background
	File    string    `mapstructure:"jwks_file"` // Path to a JWKS JSON file
	Inline  []KeyPair `mapstructure:"inline"`    // PEM public keys from config
}

type chainStore []soundmap.KeyStore

// Keyfunc asks each source in order and returns the first key found.
func (c chainStore) Keyfunc(token *jwt.Token) (any, error) {
	var errs []error
	for _, s := range c {
		key, err := s.Keyfunc(token)
		if err == nil {
			return key, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%w: %w", soundmap.ErrUnauthenticated, errors.Join(errs...))
}

// NewKeyStore creates a KeyStore from the given configuration.
// Sources are consulted in the order inline keys, JWKS file, JWKS URL.
//
// The remote JWKS is fetched once up front and then refreshed in the
// background until ctx is cancelled.
func NewKeyStore(ctx context.Context, cfg KeysConfig) (soundmap.KeyStore, error) {
	var chain chainStore

	if len(cfg.Inline) > 0 {
		keys := make(map[string]any, len(cfg.Inline))
		for _, p := range cfg.Inline {
			if p.PublicKey == "" {
				continue
			}
			key, err := ParsePublicKey(p.PublicKey)
			if err != nil {
				return nil, fmt.Errorf("new key store: kid %q: %w", p.KeyID, err)
			}
			keys[p.KeyID] = key
		}
		if len(keys) > 0 {
			chain = append(chain, NewMapKeyStore(keys))
		}
	}

	if cfg.File != "" {
		kf, err := LoadKeysFromFile(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("new key store: %w", err)
		}
		chain = append(chain, kf)
	}

	if cfg.JWKSURL != "" {
		kf, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURL})
		if err != nil {
			return nil, fmt.Errorf("new key store: jwks %s: %w", cfg.JWKSURL, err)
		}
		chain = append(chain, kf)
	}

	switch len(chain) {
	case 0:
		return nil, errors.New("new key store: no key source configured (set jwks_url, jwks_file or inline keys)")
	case 1:
		return chain[0], nil
	default:
		return chain, nil
	}
}
