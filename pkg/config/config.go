// Package config holds the settings of an atalogics API client.
//
// A Config is built once at startup, either directly or with [Load], and is
// passed by value into the client constructors. Nothing in this module reads
// process-wide configuration after that point.
//
// [Load] reads an optional TOML file and overlays ATALOGICS_* environment
// variables on top of it:
//
//	client_id     = "..."
//	client_secret = "..."
//	sandbox_mode  = true
//
//	[cache]
//	type      = "redis"
//	redis_url = "redis://localhost:6379/0"
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"

	"github.com/matzehuels/atalogics/pkg/errors"
)

// Default endpoints and limits.
const (
	DefaultProductionBaseURL = "https://beta.atalogics.com"
	DefaultSandboxBaseURL    = "https://sandbox.atalogics.com"
	DefaultTimeoutSeconds    = 10

	DefaultMongoDatabase   = "atalogics"
	DefaultMongoCollection = "cache"
	DefaultMaxEntries      = 10_000

	// TokenPath is the identity endpoint, relative to the base URL.
	TokenPath = "/oauth/token"
)

// Cache store types accepted in [CacheConfig.Type].
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
	CacheMongo  = "mongo"
)

// Config is the full client configuration.
type Config struct {
	ClientID     string `toml:"client_id" env:"ATALOGICS_CLIENT_ID, overwrite"`
	ClientSecret string `toml:"client_secret" env:"ATALOGICS_CLIENT_SECRET, overwrite"`

	// SandboxMode selects the sandbox base URL instead of production.
	SandboxMode bool `toml:"sandbox_mode" env:"ATALOGICS_SANDBOX_MODE, overwrite"`

	// Optional overrides of the default base URLs.
	ProductionBaseURL string `toml:"production_base_url" env:"ATALOGICS_PRODUCTION_BASE_URL, overwrite"`
	SandboxBaseURL    string `toml:"sandbox_base_url" env:"ATALOGICS_SANDBOX_BASE_URL, overwrite"`

	TimeoutSeconds int `toml:"timeout_seconds" env:"ATALOGICS_TIMEOUT_SECS, overwrite"`

	// AutoRefresh enables one token refresh and retry when a call is
	// rejected with 401 or 403.
	AutoRefresh bool `toml:"auto_refresh" env:"ATALOGICS_AUTO_REFRESH, overwrite"`

	Cache CacheConfig `toml:"cache"`
}

// CacheConfig selects and configures the response cache store.
type CacheConfig struct {
	// Type selects the store: "none" (default), "memory", "file", "redis" or "mongo".
	Type string `toml:"type" env:"ATALOGICS_CACHE_TYPE, overwrite"`

	// Dir is the file store directory. Empty means ~/.cache/atalogics.
	Dir string `toml:"dir" env:"ATALOGICS_CACHE_DIR, overwrite"`

	// MaxEntries bounds the memory store.
	MaxEntries int `toml:"max_entries" env:"ATALOGICS_CACHE_MAX_ENTRIES, overwrite"`

	RedisURL string `toml:"redis_url" env:"ATALOGICS_REDIS_URL, overwrite"`

	MongoURI        string `toml:"mongo_uri" env:"ATALOGICS_MONGO_URI, overwrite"`
	MongoDatabase   string `toml:"mongo_database" env:"ATALOGICS_MONGO_DATABASE, overwrite"`
	MongoCollection string `toml:"mongo_collection" env:"ATALOGICS_MONGO_COLLECTION, overwrite"`
}

// Load reads the TOML file at path (skipped when path is empty), overlays
// the process environment, applies defaults and validates the result.
func Load(ctx context.Context, path string) (Config, error) {
	return load(ctx, path, nil) // load from OS environment
}

// Read is Load without validation, for callers that only need part of the
// configuration (the cache commands of the CLI need no credentials).
func Read(ctx context.Context, path string) (Config, error) {
	return read(ctx, path, nil)
}

func load(ctx context.Context, path string, lookup envconfig.Lookuper) (Config, error) {
	cfg, err := read(ctx, path, lookup)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func read(ctx context.Context, path string, lookup envconfig.Lookuper) (Config, error) {
	var cfg Config
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookup, // nil defaults to OS environment
	})
	if err != nil {
		return cfg, fmt.Errorf("read environment: %w", err)
	}

	cfg.SetDefaults()
	return cfg, nil
}

// DefaultPath returns ~/.config/atalogics/config.toml, or "" when the file
// does not exist.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, "atalogics", "config.toml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// SetDefaults fills zero-valued optional fields.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Cache.Type == "" {
		c.Cache.Type = CacheNone
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = DefaultMaxEntries
	}
	if c.Cache.MongoDatabase == "" {
		c.Cache.MongoDatabase = DefaultMongoDatabase
	}
	if c.Cache.MongoCollection == "" {
		c.Cache.MongoCollection = DefaultMongoCollection
	}
}

// Validate checks the credentials first, then the remaining settings.
func (c Config) Validate() error {
	if err := errors.ValidateCredentials(c.ClientID, c.ClientSecret); err != nil {
		return err
	}
	if c.TimeoutSeconds < 0 {
		return errors.New(errors.ErrCodeConfiguration, "timeout must not be negative")
	}
	return c.Cache.Validate()
}

// Validate checks that the selected store has what it needs to connect.
func (c CacheConfig) Validate() error {
	switch c.Type {
	case "", CacheNone, CacheMemory, CacheFile:
		return nil
	case CacheRedis:
		if c.RedisURL == "" {
			return errors.New(errors.ErrCodeConfiguration, "cache type redis requires redis_url")
		}
		return nil
	case CacheMongo:
		if c.MongoURI == "" {
			return errors.New(errors.ErrCodeConfiguration, "cache type mongo requires mongo_uri")
		}
		return nil
	default:
		return errors.New(errors.ErrCodeConfiguration, "unknown cache type %q", c.Type)
	}
}

// BaseURL returns the sandbox or production base URL without a trailing slash.
func (c Config) BaseURL() string {
	if c.SandboxMode {
		return trimURL(c.SandboxBaseURL, DefaultSandboxBaseURL)
	}
	return trimURL(c.ProductionBaseURL, DefaultProductionBaseURL)
}

// TokenURL returns the identity endpoint URL.
func (c Config) TokenURL() string {
	return c.BaseURL() + TokenPath
}

// APIURL returns the root of a versioned API, e.g. {base}/api/v3.
func (c Config) APIURL(version int) string {
	return fmt.Sprintf("%s/api/v%d", c.BaseURL(), version)
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func trimURL(override, fallback string) string {
	if override == "" {
		return fallback
	}
	return strings.TrimRight(override, "/")
}
