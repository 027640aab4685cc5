package types

import (
	"fmt"
	"strings"
	"time"
)

// HTTPConfig holds shared HTTP settings for requests to the catalog service.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "catalog-search/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// Locale selects the Accept-Language sent to the catalog. The client treats
// translated strings as opaque.
type Locale string

const (
	LocaleSwedish Locale = "sv"
	LocaleEnglish Locale = "en"

	DefaultLocale = LocaleSwedish
)

// ParseLocale accepts "sv" or "en" (case-insensitive). Empty input yields
// DefaultLocale.
func ParseLocale(s string) (Locale, error) {
	switch Locale(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultLocale, nil
	case LocaleSwedish:
		return LocaleSwedish, nil
	case LocaleEnglish:
		return LocaleEnglish, nil
	}
	return "", fmt.Errorf("unsupported locale %q (want sv or en)", s)
}

// ClientConfig holds settings for the catalog HTTP client.
type ClientConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is prefixed to every RequestKey (e.g. "http://localhost:8000").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Locale is sent as Accept-Language (default sv).
	Locale Locale `json:"locale" yaml:"locale" mapstructure:"locale"`

	// APIKey is sent as a bearer token when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// RequestsPerSecond throttles outgoing requests. Zero disables throttling.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// MaxRetries is the number of retries on HTTP 429. Zero means a single
	// attempt; other failures are never retried.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// MaxBodyBytes caps the decoded response body (default 5 MiB).
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// DefaultClientConfig returns the client settings used when no config file
// overrides them.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   15 * time.Second,
			UserAgent: "catalog-search/0.1",
		},
		BaseURL:      "http://localhost:8000",
		Locale:       DefaultLocale,
		MaxBodyBytes: 5 * 1024 * 1024,
	}
}

// CachePolicy selects how long Ready entries stay fresh.
type CachePolicy string

const (
	// PolicyNone always goes to the network. Concurrent resolves of the same
	// key still share one request.
	PolicyNone CachePolicy = "none"

	// PolicyTTL keeps entries fresh for CacheConfig.TTL.
	PolicyTTL CachePolicy = "ttl"

	// PolicyForever keeps entries until invalidated.
	PolicyForever CachePolicy = "forever"
)

// CacheBackend selects the persistent second-tier store.
type CacheBackend string

const (
	BackendMemory CacheBackend = "memory"
	BackendSQLite CacheBackend = "sqlite"
	BackendRedis  CacheBackend = "redis"
)

// RedisConfig configures the Redis-backed result store.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr" mapstructure:"addr"`
	DB       int    `json:"db" yaml:"db" mapstructure:"db"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`

	// Prefix namespaces stored keys (default "catalog-search:").
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
}

// CacheConfig holds settings for the fetch cache.
type CacheConfig struct {
	Policy CachePolicy `json:"policy" yaml:"policy" mapstructure:"policy"`

	// TTL is the freshness window under PolicyTTL (default 5m).
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`

	Backend CacheBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// SQLitePath is the database file used by BackendSQLite.
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path" mapstructure:"sqlite_path"`

	Redis RedisConfig `json:"redis" yaml:"redis" mapstructure:"redis"`
}

// DefaultCacheConfig returns an in-memory cache with a five minute TTL.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Policy:     PolicyTTL,
		TTL:        5 * time.Minute,
		Backend:    BackendMemory,
		SQLitePath: "catalog-cache.db",
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "catalog-search:",
		},
	}
}

// Config groups all settings read from the config file.
type Config struct {
	Client ClientConfig `json:"client" yaml:"client" mapstructure:"client"`
	Cache  CacheConfig  `json:"cache" yaml:"cache" mapstructure:"cache"`
}
