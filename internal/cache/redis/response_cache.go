package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/marketlens/internal/domain"
)

// ResponseCache stores raw upstream response bodies in Redis under a TTL.
// Expiry is enforced by Redis itself, so unlike the in-process cache there is
// no lazy eviction to perform here.
//
// Key schema:
//
//	response:{request key} - raw JSON body
type ResponseCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewResponseCache creates a ResponseCache backed by the given Client.
func NewResponseCache(c *Client, ttl time.Duration, logger *slog.Logger) *ResponseCache {
	return &ResponseCache{
		rdb:    c.Underlying(),
		ttl:    ttl,
		logger: logger,
	}
}

func responseKey(key string) string { return "response:" + key }

// Get returns the cached body for key, or absent on a miss. Redis errors are
// treated as misses so a cache outage degrades to extra upstream calls rather
// than request failures.
func (rc *ResponseCache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	data, err := rc.rdb.Get(ctx, responseKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			rc.logger.WarnContext(ctx, "redis: response cache get failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}
	return data, true
}

// Put stores value under key with the configured TTL. Write failures are
// logged, not surfaced: the entry will simply not be available for reuse.
func (rc *ResponseCache) Put(ctx context.Context, key string, value json.RawMessage) {
	if err := rc.rdb.Set(ctx, responseKey(key), []byte(value), rc.ttl).Err(); err != nil {
		rc.logger.WarnContext(ctx, "redis: response cache put failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// Compile-time interface check.
var _ domain.ResponseCache = (*ResponseCache)(nil)
