package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// responseKeyPrefix is the Redis key prefix for cached handler outputs.
const responseKeyPrefix = "respcache:"

// ErrCacheMiss indicates the requested entry is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// CachedResponse is a stored handler output. Entries expire passively via
// the Redis TTL; there is no explicit invalidation.
type CachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// GetResponse retrieves a cached handler output.
// Returns ErrCacheMiss if the key is absent or the entry is corrupted.
func (c *Cache) GetResponse(ctx context.Context, key string) (*CachedResponse, error) {
	data, err := c.client.Get(ctx, responseKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cached CachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted entry - treat as a miss
		return nil, ErrCacheMiss
	}

	return &cached, nil
}

// SetResponse stores a handler output with TTL-based expiry.
func (c *Cache) SetResponse(ctx context.Context, key string, resp *CachedResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal cached response: %w", err)
	}

	if err := c.client.Set(ctx, responseKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache response: %w", err)
	}

	return nil
}

// ResponseKey derives a deterministic cache key from the route identity
// and normalized pagination parameters. The key carries no caller
// identity: cached listings are shared across all callers that request
// the same page.
func ResponseKey(route string, page, perPage int) string {
	return fmt.Sprintf("%s:page=%d:per_page=%d", route, page, perPage)
}
