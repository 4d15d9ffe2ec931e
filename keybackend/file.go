package keybackend

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// KeyPair is a statically configured public key.
type KeyPair struct {
	KeyID     string `json:"kid" mapstructure:"kid"`
	PublicKey string `json:"public_key" mapstructure:"public_key"` // PEM encoded RSA or ECDSA key
}

// ParsePublicKey decodes a PEM encoded RSA or ECDSA public key.
func ParsePublicKey(pemData string) (any, error) {
	if key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemData)); err == nil {
		return key, nil
	}
	key, err := jwt.ParseECPublicKeyFromPEM([]byte(pemData))
	if err != nil {
		return nil, fmt.Errorf("parse public key: not an RSA or ECDSA PEM key: %w", err)
	}
	return key, nil
}

// LoadKeysFromFile loads a JSON Web Key Set from a file, as published by an
// identity provider at its /.well-known/jwks.json endpoint:
//
//	{
//	  "keys": [
//	    {"kty": "RSA", "kid": "abc", "use": "sig", "alg": "RS256", "n": "...", "e": "AQAB"}
//	  ]
//	}
func LoadKeysFromFile(path string) (keyfunc.Keyfunc, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read keys file: %w", err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("parse keys file: invalid JSON")
	}

	kf, err := keyfunc.NewJWKSetJSON(json.RawMessage(data))
	if err != nil {
		return nil, fmt.Errorf("parse keys file: %w", err)
	}

	return kf, nil
}
