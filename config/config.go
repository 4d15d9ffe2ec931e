package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/soundmap/database"
	soundhttp "github.com/sagarc03/soundmap/http"
	"github.com/sagarc03/soundmap/keybackend"
	"github.com/sagarc03/soundmap/s3"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "SOUNDMAP"

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for soundmap.
type Config struct {
	Env       string               `mapstructure:"env" validate:"omitempty,oneof=dev development prod production test"`
	Server    ServerConfig         `mapstructure:"server"`
	Database  DatabaseConfig       `mapstructure:"database"`
	Storage   StorageConfig        `mapstructure:"storage"`
	Auth      AuthConfig           `mapstructure:"auth"`
	RateLimit RateLimitConfig      `mapstructure:"ratelimit"`
	CORS      soundhttp.CORSConfig `mapstructure:"cors"`
	Log       LogConfig            `mapstructure:"log"`
}

// IsProd reports whether the process runs in production mode.
func (c *Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxUploadSize   int64  `mapstructure:"max_upload_size" validate:"min=0"`
	PublicURL       string `mapstructure:"public_url" validate:"required,url"`
	ReadTimeout     int    `mapstructure:"read_timeout" validate:"min=1"`
	WriteTimeout    int    `mapstructure:"write_timeout" validate:"min=1"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" validate:"min=1"`
}

// DatabaseConfig holds metadata store configuration.
type DatabaseConfig struct {
	database.Config `mapstructure:",squash"`
	AutoMigrate     bool `mapstructure:"auto_migrate"`
}

// StorageConfig holds blob storage configuration.
type StorageConfig struct {
	Backend    string           `mapstructure:"backend" validate:"required,oneof=filesystem s3"`
	NamePrefix string           `mapstructure:"name_prefix" validate:"required,max=64"`
	Filesystem FilesystemConfig `mapstructure:"filesystem"`
	S3         S3Config         `mapstructure:"s3"`
}

// FilesystemConfig holds local blob storage configuration.
type FilesystemConfig struct {
	Path string `mapstructure:"path"`
}

// S3Config holds S3-compatible blob storage configuration.
type S3Config struct {
	s3.Config    `mapstructure:",squash"`
	CreateBucket bool `mapstructure:"create_bucket"`
}

// AuthConfig holds bearer token verification configuration.
type AuthConfig struct {
	Issuer      string                `mapstructure:"issuer"`
	Audience    string                `mapstructure:"audience"`
	Keys        keybackend.KeysConfig `mapstructure:",squash"`
	Algorithms  []string              `mapstructure:"algorithms" validate:"required,min=1,dive,oneof=RS256 RS384 RS512 PS256 PS384 PS512 ES256 ES384 ES512"`
	Leeway      int                   `mapstructure:"leeway" validate:"min=0"`
	AdminScope  string                `mapstructure:"admin_scope" validate:"required"`
	CreateScope string                `mapstructure:"create_scope" validate:"required"`
}

// RateLimitConfig holds the fixed-window rate limiter configuration.
type RateLimitConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Requests int  `mapstructure:"requests" validate:"min=1"`
	Window   int  `mapstructure:"window" validate:"min=1"`
}

// HTTP converts the configuration to the http package form.
func (c RateLimitConfig) HTTP() soundhttp.RateLimitConfig {
	return soundhttp.RateLimitConfig{
		Enabled:  c.Enabled,
		Requests: c.Requests,
		Window:   time.Duration(c.Window) * time.Second,
	}
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":         "database.type",
	"db-dsn":          "database.dsn",
	"storage-backend": "storage.backend",
	"storage-path":    "storage.filesystem.path",
	"port":            "server.port",
	"public-url":      "server.public_url",
	"log-level":       "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
// Every key needs a default so that AutomaticEnv can override it on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_size", 10<<20)
	v.SetDefault("server.public_url", "http://localhost:8080")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.shutdown_timeout", 30)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "soundmap.db")
	v.SetDefault("database.tables.sounds", "sounds")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.connect_retries", 5)

	v.SetDefault("storage.backend", "filesystem")
	v.SetDefault("storage.name_prefix", "sound")
	v.SetDefault("storage.filesystem.path", "./data")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.use_ssl", true)
	v.SetDefault("storage.s3.public_url", "")
	v.SetDefault("storage.s3.create_bucket", false)

	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.jwks_url", "")
	v.SetDefault("auth.jwks_file", "")
	v.SetDefault("auth.algorithms", []string{"RS256"})
	v.SetDefault("auth.leeway", 30)
	v.SetDefault("auth.admin_scope", soundhttp.DefaultAdminScope)
	v.SetDefault("auth.create_scope", soundhttp.DefaultCreateScope)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests", 100)
	v.SetDefault("ratelimit.window", 900)

	v.SetDefault("cors.enabled", false)

	v.SetDefault("log.level", "")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := cfg.validateBackends(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// validateBackends checks settings that depend on the selected backends.
func (c *Config) validateBackends() error {
	if err := c.Database.Tables.Validate(); err != nil {
		return err
	}

	switch c.Storage.Backend {
	case "filesystem":
		if c.Storage.Filesystem.Path == "" {
			return errors.New("storage.filesystem.path is required for the filesystem backend")
		}
	case "s3":
		if c.Storage.S3.Endpoint == "" || c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.endpoint and storage.s3.bucket are required for the s3 backend")
		}
	}

	return nil
}

// RequireKeySource reports an error when no signing key source is configured.
// Only the serve command needs one.
func (c *Config) RequireKeySource() error {
	k := c.Auth.Keys
	if k.JWKSURL == "" && k.File == "" && len(k.Inline) == 0 {
		return errors.New("auth: one of jwks_url, jwks_file or inline keys is required")
	}
	return nil
}
