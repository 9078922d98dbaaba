package signals

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/localrank/localrank/pkg/types"
)

const cacheKeyPrefix = "localrank:signals:"

// CachedSource serves repeated fetches for the same business from Redis.
// Redis errors are logged and bypassed; they never fail a fetch.
type CachedSource struct {
	next Source
	rdb  *redis.Client
	ttl  time.Duration
}

// WithCache wraps next so that successful results are stored in rdb for ttl.
func WithCache(next Source, rdb *redis.Client, ttl time.Duration) *CachedSource {
	return &CachedSource{next: next, rdb: rdb, ttl: ttl}
}

// CacheKey returns the Redis key for a business. Lookups are case-insensitive.
func CacheKey(name, address string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(name) + "|" + strings.ToLower(address)))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedSource) Fetch(ctx context.Context, name, address string) (*types.RawSignals, error) {
	key := CacheKey(name, address)

	b, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var raw types.RawSignals
		uerr := json.Unmarshal(b, &raw)
		if uerr == nil {
			return &raw, nil
		}
		slog.Warn("signals: discarding undecodable cache entry", "key", key, "err", uerr)
	case !errors.Is(err, redis.Nil):
		slog.Warn("signals: cache read failed", "key", key, "err", err)
	}

	raw, err := c.next.Fetch(ctx, name, address)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(raw); err == nil {
		if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
			slog.Warn("signals: cache write failed", "key", key, "err", err)
		}
	}
	return raw, nil
}

// Close releases the Redis connection pool.
func (c *CachedSource) Close() error {
	return c.rdb.Close()
}
