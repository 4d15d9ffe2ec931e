// Package testjwt issues RS256 tokens and matching JWKS documents for tests.
package testjwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	Issuer   = "https://soundmap.test/"
	Audience = "https://api.soundmap.test"
)

// Signer signs tokens with a single RSA key.
type Signer struct {
	KeyID string
	Key   *rsa.PrivateKey
}

// NewSigner generates a 2048 bit RSA key.
func NewSigner(t testing.TB, kid string) *Signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return &Signer{KeyID: kid, Key: key}
}

// Claims mirrors the claims an identity provider would put in an access token.
type Claims struct {
	Scope       string   `json:"scope,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// Token signs a token valid for an hour with the given permissions.
func (s *Signer) Token(t testing.TB, permissions ...string) string {
	t.Helper()
	now := time.Now()
	return s.Sign(t, Claims{
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   "auth0|tester",
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
}

// Sign signs arbitrary claims.
func (s *Signer) Sign(t testing.TB, claims Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = s.KeyID
	raw, err := tok.SignedString(s.Key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

// JWKS returns the public key as a JSON Web Key Set document.
func (s *Signer) JWKS(t testing.TB) []byte {
	t.Helper()
	pub := s.Key.PublicKey
	doc := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": s.KeyID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}
	return b
}

// PublicPEM returns the public key PEM encoded.
func (s *Signer) PublicPEM(t testing.TB) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&s.Key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

// ServeJWKS starts an HTTP server publishing the key set and returns its URL.
func (s *Signer) ServeJWKS(t testing.TB) string {
	t.Helper()
	body := s.JWKS(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/.well-known/jwks.json"
}
