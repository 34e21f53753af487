// Package common provides shared utilities for papertrade
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for papertrade
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Locking     LockingConfig `toml:"locking"`
	Wallet      WalletConfig  `toml:"wallet"`
	Quotes      QuotesConfig  `toml:"quotes"`
	Logging     LoggingConfig `toml:"logging"`
	Auth        AuthConfig    `toml:"auth"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Storage backends.
const (
	StorageBadger    = "badger"
	StorageSurrealDB = "surrealdb"
)

// StorageConfig selects and configures the ledger store.
type StorageConfig struct {
	Backend   string          `toml:"backend"` // "badger" (default) or "surrealdb"
	Badger    BadgerConfig    `toml:"badger"`
	SurrealDB SurrealDBConfig `toml:"surrealdb"`
}

// BadgerConfig holds the embedded store location.
type BadgerConfig struct {
	Path string `toml:"path"`
}

// SurrealDBConfig holds SurrealDB connection settings.
type SurrealDBConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// Lock backends.
const (
	LockLocal = "local"
	LockRedis = "redis"
)

// LockingConfig selects how per-user operations are serialized.
type LockingConfig struct {
	Backend string      `toml:"backend"` // "local" (default) or "redis"
	TTL     string      `toml:"ttl"`
	Redis   RedisConfig `toml:"redis"`
}

// GetTTL parses and returns the lock lease duration
func (c *LockingConfig) GetTTL() time.Duration {
	return parseDuration(c.TTL, 15*time.Second)
}

// RedisConfig holds the Redis connection used for distributed locks.
type RedisConfig struct {
	Address  string `toml:"address"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// AdjustmentPolicy governs whether admin adjustments obey the balance floor.
type AdjustmentPolicy string

const (
	AdjustmentFloor    AdjustmentPolicy = "floor"
	AdjustmentOverride AdjustmentPolicy = "override"
)

// WalletConfig holds ledger policy.
type WalletConfig struct {
	AdjustmentPolicy AdjustmentPolicy `toml:"adjustment_policy"`
}

// QuotesConfig configures the quote provider chain.
type QuotesConfig struct {
	Timeout      string            `toml:"timeout"`
	CacheTTL     string            `toml:"cache_ttl"`
	Cooldown     string            `toml:"cooldown"`
	Synthetic    bool              `toml:"synthetic"` // deterministic fallback for demo/offline use
	Finnhub      QuoteClientConfig `toml:"finnhub"`
	AlphaVantage QuoteClientConfig `toml:"alphavantage"`

	// Refresh is the stored price refresh period; empty disables it.
	Refresh string `toml:"refresh_interval"`
}

// QuoteClientConfig holds one quote API's settings.
type QuoteClientConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
}

// GetTimeout parses and returns the per-call quote timeout
func (c *QuotesConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// GetCacheTTL parses and returns how long a quote is reused
func (c *QuotesConfig) GetCacheTTL() time.Duration {
	return parseDuration(c.CacheTTL, 60*time.Second)
}

// GetCooldown parses and returns how long a rate-limited source is skipped
func (c *QuotesConfig) GetCooldown() time.Duration {
	return parseDuration(c.Cooldown, time.Minute)
}

// GetRefreshInterval returns the background price refresh period, or 0 when disabled.
func (c *QuotesConfig) GetRefreshInterval() time.Duration {
	return parseDuration(c.Refresh, 0)
}

// AuthConfig holds bearer token configuration.
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"` // duration string, default "24h"
	Breakglass  bool   `toml:"breakglass"`   // log an admin token at startup (never in production)
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	return parseDuration(c.TokenExpiry, 24*time.Hour)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Backend: StorageBadger,
			Badger:  BadgerConfig{Path: "data/ledger"},
			SurrealDB: SurrealDBConfig{
				Address:   "ws://localhost:8000/rpc",
				Namespace: "papertrade",
				Database:  "ledger",
				Username:  "root",
				Password:  "root",
			},
		},
		Locking: LockingConfig{
			Backend: LockLocal,
			TTL:     "15s",
			Redis:   RedisConfig{Address: "localhost:6379"},
		},
		Wallet: WalletConfig{
			AdjustmentPolicy: AdjustmentFloor,
		},
		Quotes: QuotesConfig{
			Timeout:   "10s",
			CacheTTL:  "60s",
			Cooldown:  "1m",
			Synthetic: true,
			Finnhub: QuoteClientConfig{
				BaseURL:   "https://finnhub.io/api/v1",
				RateLimit: 5,
			},
			AlphaVantage: QuoteClientConfig{
				BaseURL:   "https://www.alphavantage.co",
				RateLimit: 1,
			},
		},
		Auth: AuthConfig{
			JWTSecret:   "dev-jwt-secret-change-in-production",
			TokenExpiry: "24h",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PAPERTRADE_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("PAPERTRADE_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("PAPERTRADE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("PAPERTRADE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// Storage
	if v := os.Getenv("PAPERTRADE_STORAGE_BACKEND"); v != "" {
		config.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("PAPERTRADE_BADGER_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("PAPERTRADE_SURREALDB_ADDRESS"); v != "" {
		config.Storage.SurrealDB.Address = v
	}
	if v := os.Getenv("PAPERTRADE_SURREALDB_USERNAME"); v != "" {
		config.Storage.SurrealDB.Username = v
	}
	if v := os.Getenv("PAPERTRADE_SURREALDB_PASSWORD"); v != "" {
		config.Storage.SurrealDB.Password = v
	}

	// Locking
	if v := os.Getenv("PAPERTRADE_LOCK_BACKEND"); v != "" {
		config.Locking.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("PAPERTRADE_REDIS_ADDRESS"); v != "" {
		config.Locking.Redis.Address = v
	}
	if v := os.Getenv("PAPERTRADE_REDIS_PASSWORD"); v != "" {
		config.Locking.Redis.Password = v
	}

	if v := os.Getenv("PAPERTRADE_ADJUSTMENT_POLICY"); v != "" {
		config.Wallet.AdjustmentPolicy = AdjustmentPolicy(strings.ToLower(v))
	}

	// Quote API keys: the provider's conventional name wins over ours
	for _, name := range []string{"FINNHUB_API_KEY", "PAPERTRADE_FINNHUB_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Quotes.Finnhub.APIKey = v
			break
		}
	}
	for _, name := range []string{"ALPHAVANTAGE_API_KEY", "PAPERTRADE_ALPHAVANTAGE_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Quotes.AlphaVantage.APIKey = v
			break
		}
	}
	if v := os.Getenv("PAPERTRADE_QUOTES_SYNTHETIC"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Quotes.Synthetic = b
		}
	}

	// Auth overrides
	if v := os.Getenv("PAPERTRADE_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("PAPERTRADE_TOKEN_EXPIRY"); v != "" {
		config.Auth.TokenExpiry = v
	}
	if v := os.Getenv("PAPERTRADE_BREAKGLASS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Auth.Breakglass = b
		}
	}
	if v := os.Getenv("PAPERTRADE_PRICE_REFRESH"); v != "" {
		config.Quotes.Refresh = v
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageBadger, StorageSurrealDB:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Locking.Backend {
	case LockLocal, LockRedis:
	default:
		return fmt.Errorf("unknown lock backend %q", c.Locking.Backend)
	}
	switch c.Wallet.AdjustmentPolicy {
	case AdjustmentFloor, AdjustmentOverride:
	default:
		return fmt.Errorf("unknown adjustment policy %q", c.Wallet.AdjustmentPolicy)
	}
	if c.IsProduction() && c.Auth.JWTSecret == NewDefaultConfig().Auth.JWTSecret {
		return fmt.Errorf("auth.jwt_secret must be set in production")
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
