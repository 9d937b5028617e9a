//go:build integration

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/userhub/userhub/internal/auth"
	"github.com/userhub/userhub/internal/cache"
	"github.com/userhub/userhub/internal/metrics"
)

// newChainEnv wires the listing policy chain the way the server does:
// admission first, then the response cache, then token verification.
func newChainEnv(t *testing.T, limit int) (http.Handler, *auth.TokenService, *metrics.InMemoryRecorder, *int64) {
	t.Helper()

	ctx := context.Background()
	cacheClient, err := cache.New(ctx, "redis://localhost:6379")
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	t.Cleanup(func() { cacheClient.Close() })
	_ = cacheClient.Client().FlushDB(ctx).Err()

	logger := testLogger()
	recorder := metrics.NewInMemory()
	tokens := auth.NewTokenService("test-secret", time.Hour)

	var handlerCalls int64
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&handlerCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"users":[],"total":0}`))
	})

	chain := RateLimit(RateLimitConfig{
		Logger:   logger,
		Cache:    cacheClient,
		Metrics:  recorder,
		Enabled:  true,
		Endpoint: "users.list",
		Limit:    limit,
		Window:   time.Minute,
	})(CacheResponse(CacheConfig{
		Logger:  logger,
		Cache:   cacheClient,
		Metrics: recorder,
		Enabled: true,
		Route:   "users.list",
		TTL:     time.Minute,
	})(Auth(AuthConfig{
		Logger:  logger,
		Tokens:  tokens,
		Metrics: recorder,
	})(inner)))

	return chain, tokens, recorder, &handlerCalls
}

func doGet(t *testing.T, chain http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "203.0.113.50:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	return rec
}

func TestIntegrationChain_CacheHitBypassesAuth(t *testing.T) {
	chain, tokens, recorder, handlerCalls := newChainEnv(t, 100)

	token, err := tokens.Issue(1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// First request populates the cache
	rec := doGet(t, chain, "/api/users", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Errorf("first request should be a miss, got %q", rec.Header().Get("X-Cache"))
	}

	// Second request without any token is served from the cache. The
	// cache runs before token verification, so the hit never consults it.
	rec = doGet(t, chain, "/api/users", "")
	if rec.Code != http.StatusOK {
		t.Errorf("cache hit should be served without a token, got %d", rec.Code)
	}
	if rec.Header().Get("X-Cache") != "HIT" {
		t.Errorf("second request should be a hit, got %q", rec.Header().Get("X-Cache"))
	}

	if got := atomic.LoadInt64(handlerCalls); got != 1 {
		t.Errorf("handler should run once, ran %d times", got)
	}

	snap := recorder.Snapshot()
	if snap.ListCacheHits != 1 || snap.ListCacheMisses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %+v", snap)
	}
}

func TestIntegrationChain_AuthFailuresNotCached(t *testing.T) {
	chain, tokens, _, handlerCalls := newChainEnv(t, 100)

	// A tokenless request on a cold cache is rejected by auth
	rec := doGet(t, chain, "/api/users?page=2", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on cold cache without token, got %d", rec.Code)
	}

	// The 401 must not have been cached: a valid token now reaches the
	// handler instead of replaying the rejection.
	token, err := tokens.Issue(1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	rec = doGet(t, chain, "/api/users?page=2", token)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with valid token, got %d", rec.Code)
	}
	if got := atomic.LoadInt64(handlerCalls); got != 1 {
		t.Errorf("handler should run once, ran %d times", got)
	}
}

func TestIntegrationChain_RejectionShortCircuits(t *testing.T) {
	chain, tokens, recorder, handlerCalls := newChainEnv(t, 2)

	token, err := tokens.Issue(1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Distinct pages keep the cache cold so every admitted request
	// reaches the handler.
	pages := []string{"/api/users?page=1", "/api/users?page=2", "/api/users?page=3"}
	codes := make([]int, 0, len(pages))
	for _, page := range pages {
		codes = append(codes, doGet(t, chain, page, token).Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("first two requests should be admitted, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request should be rejected, got %v", codes)
	}

	// The rejected call never reached the cache or the handler
	if got := atomic.LoadInt64(handlerCalls); got != 2 {
		t.Errorf("handler should run twice, ran %d times", got)
	}
	snap := recorder.Snapshot()
	if snap.RateLimitRejected != 1 {
		t.Errorf("expected 1 rejection, got %d", snap.RateLimitRejected)
	}
	if snap.ListCacheMisses != 2 {
		t.Errorf("rejected request should not count as a cache miss, got %d", snap.ListCacheMisses)
	}
}
