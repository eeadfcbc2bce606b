// Package config defines the top-level configuration for marketlens and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by MARKETLENS_* environment variables.
type Config struct {
	Upstream UpstreamConfig `toml:"upstream"`
	Client   ClientConfig   `toml:"client"`
	Redis    RedisConfig    `toml:"redis"`
	Server   ServerConfig   `toml:"server"`
	LogLevel string         `toml:"log_level"`
}

// UpstreamConfig holds the external market-data API endpoints.
type UpstreamConfig struct {
	ClobHost       string `toml:"clob_host"`
	GammaHost      string `toml:"gamma_host"`
	SubgraphURL    string `toml:"subgraph_url"`
	SubgraphAPIKey string `toml:"subgraph_api_key"`
}

// ClientConfig holds the resilient request pipeline parameters shared by all
// upstream clients.
type ClientConfig struct {
	CacheTTL           duration `toml:"cache_ttl"`
	CacheCapacity      int      `toml:"cache_capacity"` // 0 = unbounded
	MinRequestInterval duration `toml:"min_request_interval"`
	MaxRetries         int      `toml:"max_retries"`
	AttemptTimeout     duration `toml:"attempt_timeout"`
	TotalTimeout       duration `toml:"total_timeout"`
}

// RedisConfig holds the optional shared response cache. When Enabled is false
// the in-process memory cache is used instead.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Upstream: UpstreamConfig{
			ClobHost:    "https://clob.polymarket.com",
			GammaHost:   "https://gamma-api.polymarket.com",
			SubgraphURL: "https://subgraph.satsuma-prod.com/f5c1a7dd3ab7/polymarket/matic-markets/api",
		},
		Client: ClientConfig{
			CacheTTL:           duration{5 * time.Minute},
			CacheCapacity:      0,
			MinRequestInterval: duration{5 * time.Second},
			MaxRetries:         3,
			AttemptTimeout:     duration{30 * time.Second},
			TotalTimeout:       duration{5 * time.Minute},
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			DB:       0,
			PoolSize: 20,
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Upstream endpoints
	if c.Upstream.ClobHost == "" {
		errs = append(errs, "upstream: clob_host must not be empty")
	}
	if c.Upstream.GammaHost == "" {
		errs = append(errs, "upstream: gamma_host must not be empty")
	}
	if c.Upstream.SubgraphURL == "" {
		errs = append(errs, "upstream: subgraph_url must not be empty")
	}

	// Client pipeline
	if c.Client.CacheTTL.Duration <= 0 {
		errs = append(errs, "client: cache_ttl must be positive")
	}
	if c.Client.CacheCapacity < 0 {
		errs = append(errs, "client: cache_capacity must be >= 0")
	}
	if c.Client.MinRequestInterval.Duration < 0 {
		errs = append(errs, "client: min_request_interval must be >= 0")
	}
	if c.Client.MaxRetries < 1 {
		errs = append(errs, "client: max_retries must be >= 1")
	}
	if c.Client.AttemptTimeout.Duration <= 0 {
		errs = append(errs, "client: attempt_timeout must be positive")
	}
	if c.Client.TotalTimeout.Duration <= 0 {
		errs = append(errs, "client: total_timeout must be positive")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
