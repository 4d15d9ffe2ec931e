package soundmap

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// KeyStore resolves the public key that verifies a token's signature,
// usually from the token's "kid" header.
type KeyStore interface {
	Keyfunc(token *jwt.Token) (any, error)
}

// Claims are the token claims soundmap reads. Scopes are granted either
// through the "permissions" array claim or the space separated "scope" claim.
type Claims struct {
	Scope       string   `json:"scope,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// Scopes returns the union of the permissions and scope claims.
func (c *Claims) Scopes() []string {
	scopes := slices.Clone(c.Permissions)
	for s := range strings.FieldsSeq(c.Scope) {
		if !slices.Contains(scopes, s) {
			scopes = append(scopes, s)
		}
	}
	return scopes
}

// HasScopes reports whether every required scope is granted.
func (c *Claims) HasScopes(required ...string) bool {
	granted := c.Scopes()
	for _, r := range required {
		if !slices.Contains(granted, r) {
			return false
		}
	}
	return true
}

// CredentialVerifier validates bearer tokens issued by an OAuth2 identity provider.
type CredentialVerifier struct {
	keys   KeyStore
	parser *jwt.Parser
}

// VerifierConfig holds the expectations a token must meet.
type VerifierConfig struct {
	Issuer     string
	Audience   string
	Algorithms []string      // default: RS256
	Leeway     time.Duration // clock skew tolerance for exp, nbf and iat
}

// NewCredentialVerifier creates a verifier that resolves signing keys through keys.
func NewCredentialVerifier(keys KeyStore, cfg VerifierConfig) (*CredentialVerifier, error) {
	if keys == nil {
		return nil, errors.New("new credential verifier: key store cannot be nil")
	}

	algs := cfg.Algorithms
	if len(algs) == 0 {
		algs = []string{jwt.SigningMethodRS256.Alg()}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(algs),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &CredentialVerifier{
		keys:   keys,
		parser: jwt.NewParser(opts...),
	}, nil
}

// Verify parses and validates a raw bearer token.
//
// The method checks, in order:
//  1. Signature, using an allowed algorithm and a key from the KeyStore
//  2. Expiry, not-before and issued-at, within the configured leeway
//  3. Issuer and audience, when configured
//
// Every failure wraps ErrUnauthenticated.
func (v *CredentialVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("verify credential: %w", err)
	}

	if raw == "" {
		return nil, fmt.Errorf("verify credential: empty token: %w", ErrUnauthenticated)
	}

	claims := &Claims{}
	if _, err := v.parser.ParseWithClaims(raw, claims, v.keys.Keyfunc); err != nil {
		return nil, fmt.Errorf("verify credential: %w: %w", ErrUnauthenticated, err)
	}

	return claims, nil
}
