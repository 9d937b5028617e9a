//go:build integration

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestCache(t *testing.T) (context.Context, *Cache) {
	t.Helper()

	ctx := context.Background()
	cacheClient, err := New(ctx, "redis://localhost:6379")
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	t.Cleanup(func() { cacheClient.Close() })

	_ = cacheClient.Client().FlushDB(ctx).Err()

	return ctx, cacheClient
}

func TestIntegrationCheckRateLimit_FixedWindow(t *testing.T) {
	ctx, cacheClient := newTestCache(t)

	clientKey := "203.0.113.10"
	limit := 10

	// The first `limit` calls in the window are admitted
	for i := 1; i <= limit; i++ {
		result, err := cacheClient.CheckRateLimit(ctx, clientKey, "users.list", limit, time.Minute)
		if err != nil {
			t.Fatalf("CheckRateLimit failed: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("call %d should be admitted", i)
		}
		if result.Count != int64(i) {
			t.Errorf("call %d: expected count %d, got %d", i, i, result.Count)
		}
	}

	// The next call is rejected with a retry hint
	result, err := cacheClient.CheckRateLimit(ctx, clientKey, "users.list", limit, time.Minute)
	if err != nil {
		t.Fatalf("CheckRateLimit failed: %v", err)
	}
	if result.Allowed {
		t.Error("call past the limit should be rejected")
	}
	if result.RetryAfter <= 0 {
		t.Errorf("rejection should carry a retry hint, got %s", result.RetryAfter)
	}
}

func TestIntegrationCheckRateLimit_WindowExpiry(t *testing.T) {
	ctx, cacheClient := newTestCache(t)

	clientKey := "203.0.113.11"
	window := 1 * time.Second

	for i := 0; i < 3; i++ {
		if _, err := cacheClient.CheckRateLimit(ctx, clientKey, "users.list", 2, window); err != nil {
			t.Fatalf("CheckRateLimit failed: %v", err)
		}
	}

	time.Sleep(window + 200*time.Millisecond)

	// A new window starts with a fresh counter
	result, err := cacheClient.CheckRateLimit(ctx, clientKey, "users.list", 2, window)
	if err != nil {
		t.Fatalf("CheckRateLimit failed: %v", err)
	}
	if !result.Allowed {
		t.Error("first call of a new window should be admitted")
	}
	if result.Count != 1 {
		t.Errorf("new window should start at count 1, got %d", result.Count)
	}
}

func TestIntegrationCheckRateLimit_PerClientCounters(t *testing.T) {
	ctx, cacheClient := newTestCache(t)

	// Exhaust one client's budget
	for i := 0; i < 3; i++ {
		if _, err := cacheClient.CheckRateLimit(ctx, "203.0.113.20", "users.list", 2, time.Minute); err != nil {
			t.Fatalf("CheckRateLimit failed: %v", err)
		}
	}

	// Another client is unaffected
	result, err := cacheClient.CheckRateLimit(ctx, "203.0.113.21", "users.list", 2, time.Minute)
	if err != nil {
		t.Fatalf("CheckRateLimit failed: %v", err)
	}
	if !result.Allowed {
		t.Error("counters must be independent per client")
	}
}

func TestIntegrationCheckRateLimit_Concurrency(t *testing.T) {
	ctx, cacheClient := newTestCache(t)

	clientKey := "203.0.113.30"
	limit := 10

	var allowed, rejected int64
	var wg sync.WaitGroup

	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := cacheClient.CheckRateLimit(ctx, clientKey, "users.list", limit, time.Minute)
			if err != nil {
				t.Errorf("CheckRateLimit error: %v", err)
				return
			}
			if result.Allowed {
				atomic.AddInt64(&allowed, 1)
			} else {
				atomic.AddInt64(&rejected, 1)
			}
		}()
	}

	wg.Wait()

	t.Logf("Concurrency test: %d allowed, %d rejected", allowed, rejected)

	// The Lua script makes INCR and EXPIRE atomic: exactly `limit`
	// admissions regardless of interleaving.
	if allowed != int64(limit) {
		t.Errorf("expected exactly %d admissions, got %d", limit, allowed)
	}
	if rejected != int64(30-limit) {
		t.Errorf("expected %d rejections, got %d", 30-limit, rejected)
	}
}

func TestIntegrationResponseCache_RoundTrip(t *testing.T) {
	ctx, cacheClient := newTestCache(t)

	key := ResponseKey("users.list", 1, 10)
	entry := &CachedResponse{
		Status:      200,
		ContentType: "application/json",
		Body:        []byte(`{"users":[],"total":0}`),
	}

	if err := cacheClient.SetResponse(ctx, key, entry, time.Minute); err != nil {
		t.Fatalf("SetResponse failed: %v", err)
	}

	got, err := cacheClient.GetResponse(ctx, key)
	if err != nil {
		t.Fatalf("GetResponse failed: %v", err)
	}
	if got.Status != entry.Status || got.ContentType != entry.ContentType {
		t.Errorf("entry mismatch: got %+v", got)
	}
	if string(got.Body) != string(entry.Body) {
		t.Errorf("body mismatch: got %s", got.Body)
	}
}

func TestIntegrationResponseCache_Miss(t *testing.T) {
	ctx, cacheClient := newTestCache(t)

	_, err := cacheClient.GetResponse(ctx, ResponseKey("users.list", 99, 10))
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestIntegrationResponseCache_Expiry(t *testing.T) {
	ctx, cacheClient := newTestCache(t)

	key := ResponseKey("users.list", 2, 10)
	entry := &CachedResponse{Status: 200, ContentType: "application/json", Body: []byte(`{}`)}

	if err := cacheClient.SetResponse(ctx, key, entry, 1*time.Second); err != nil {
		t.Fatalf("SetResponse failed: %v", err)
	}

	time.Sleep(1200 * time.Millisecond)

	if _, err := cacheClient.GetResponse(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expired entry should be a miss, got %v", err)
	}
}

func TestIntegrationResponseCache_CorruptEntry(t *testing.T) {
	ctx, cacheClient := newTestCache(t)

	key := ResponseKey("users.list", 3, 10)
	if err := cacheClient.Client().Set(ctx, responseKeyPrefix+key, "not json", time.Minute).Err(); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := cacheClient.GetResponse(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("corrupt entry should be treated as a miss, got %v", err)
	}
}
