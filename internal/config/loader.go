package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MARKETLENS_* environment variable overrides, and
// returns the final Config. A missing file is not an error: the defaults plus
// environment overrides are used. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MARKETLENS_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This lets
// operators inject endpoints and secrets at deploy time without touching the
// TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Upstream ──
	setStr(&cfg.Upstream.ClobHost, "MARKETLENS_UPSTREAM_CLOB_HOST")
	setStr(&cfg.Upstream.GammaHost, "MARKETLENS_UPSTREAM_GAMMA_HOST")
	setStr(&cfg.Upstream.SubgraphURL, "MARKETLENS_UPSTREAM_SUBGRAPH_URL")
	setStr(&cfg.Upstream.SubgraphAPIKey, "MARKETLENS_UPSTREAM_SUBGRAPH_API_KEY")

	// ── Client ──
	setDuration(&cfg.Client.CacheTTL, "MARKETLENS_CLIENT_CACHE_TTL")
	setInt(&cfg.Client.CacheCapacity, "MARKETLENS_CLIENT_CACHE_CAPACITY")
	setDuration(&cfg.Client.MinRequestInterval, "MARKETLENS_CLIENT_MIN_REQUEST_INTERVAL")
	setInt(&cfg.Client.MaxRetries, "MARKETLENS_CLIENT_MAX_RETRIES")
	setDuration(&cfg.Client.AttemptTimeout, "MARKETLENS_CLIENT_ATTEMPT_TIMEOUT")
	setDuration(&cfg.Client.TotalTimeout, "MARKETLENS_CLIENT_TOTAL_TIMEOUT")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "MARKETLENS_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "MARKETLENS_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MARKETLENS_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MARKETLENS_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MARKETLENS_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "MARKETLENS_REDIS_TLS_ENABLED")

	// ── Server ──
	setInt(&cfg.Server.Port, "MARKETLENS_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "MARKETLENS_SERVER_CORS_ORIGINS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "MARKETLENS_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
