// Package config provides configuration loading and validation for soundmap.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (SOUNDMAP_ prefix)
//  4. CLI flags
//
// A .env file is read by the command before Load runs, so its entries behave
// like ordinary environment variables.
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with SOUNDMAP_ prefix:
//   - server.port → SOUNDMAP_SERVER_PORT
//   - database.dsn → SOUNDMAP_DATABASE_DSN
//   - auth.jwks_url → SOUNDMAP_AUTH_JWKS_URL
//   - storage.s3.secret_key → SOUNDMAP_STORAGE_S3_SECRET_KEY
//
// # Configuration Structure
//
// The Config struct contains:
//   - Env: dev or prod, selects the log format
//   - Server: port, public URL, upload limit and timeouts
//   - Database: type, DSN, table names, auto migration and connect retries
//   - Storage: blob backend (filesystem or s3) and blob name prefix
//   - Auth: issuer, audience, signing key sources, algorithms and scopes
//   - RateLimit: fixed-window limiter per client IP
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
package config
