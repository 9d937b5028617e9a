package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateLimitKeyPrefix is the Redis key prefix for rate-limit counters.
const rateLimitKeyPrefix = "ratelimit:"

// RateLimitResult contains the outcome of an admission check.
type RateLimitResult struct {
	Allowed    bool
	Count      int64
	Limit      int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// fixedWindowScript implements fixed-window counting. INCR and EXPIRE run
// in a single script so concurrent requests from the same client never
// lose an update. A counter with no TTL (first increment, or a window
// created before EXPIRE could run) gets the full window.
var fixedWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local window = tonumber(ARGV[1])

	local count = redis.call('INCR', key)
	if count == 1 then
		redis.call('EXPIRE', key, window)
	end

	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		redis.call('EXPIRE', key, window)
		ttl = window
	end

	return {count, ttl}
`)

// CheckRateLimit applies fixed-window admission for a (client, endpoint)
// pair. The first call in a window starts it with count=1; subsequent
// calls increment and are admitted while count <= limit. Window
// boundaries are not smoothed: a burst straddling an edge can see up to
// twice the limit, which is accepted.
func (c *Cache) CheckRateLimit(ctx context.Context, clientKey, endpoint string, limit int, window time.Duration) (*RateLimitResult, error) {
	key := RateLimitKey(clientKey, endpoint)

	result, err := fixedWindowScript.Run(ctx, c.client,
		[]string{key},
		int(window.Seconds()),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script failed: %w", err)
	}

	count := result[0]
	ttl := time.Duration(result[1]) * time.Second

	res := &RateLimitResult{
		Allowed: count <= int64(limit),
		Count:   count,
		Limit:   int64(limit),
		ResetAt: time.Now().Add(ttl),
	}
	if !res.Allowed {
		res.RetryAfter = ttl
	}

	return res, nil
}

// RateLimitKey derives the counter key for a (client, endpoint) pair.
// The client key is hashed so raw addresses never land in Redis.
func RateLimitKey(clientKey, endpoint string) string {
	sum := sha256.Sum256([]byte(clientKey))
	return rateLimitKeyPrefix + endpoint + ":" + hex.EncodeToString(sum[:8])
}
