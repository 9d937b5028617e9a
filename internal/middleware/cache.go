package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/userhub/userhub/internal/cache"
	"github.com/userhub/userhub/internal/handler/dto"
	"github.com/userhub/userhub/internal/metrics"
)

// CacheConfig holds configuration for the response cache middleware.
type CacheConfig struct {
	Logger  *slog.Logger
	Cache   *cache.Cache
	Metrics metrics.Recorder
	Enabled bool
	// Route namespaces the cached entries, e.g. "users.list".
	Route string
	// TTL bounds how long a cached response is served.
	TTL time.Duration
}

// CacheResponse returns middleware that serves recent listing output from
// Redis. It runs after admission control and before token verification: a
// hit short-circuits the rest of the chain, so cached pages are shared
// across callers with the same pagination parameters.
func CacheResponse(cfg CacheConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			page, err := dto.ParsePagination(r.URL.Query())
			if err != nil {
				// Invalid parameters are rejected downstream and never cached.
				next.ServeHTTP(w, r)
				return
			}

			key := cache.ResponseKey(cfg.Route, page.Page, page.PerPage)

			cached, err := cfg.Cache.GetResponse(r.Context(), key)
			if err == nil {
				recorder.IncListCacheHit()
				w.Header().Set("Content-Type", cached.ContentType)
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(cached.Status)
				_, _ = w.Write(cached.Body)
				return
			}
			if !errors.Is(err, cache.ErrCacheMiss) {
				cfg.Logger.Error("response cache lookup failed",
					slog.String("error", err.Error()),
					slog.String("route", cfg.Route),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				// Treat as a miss
			}
			recorder.IncListCacheMiss()

			rec := newResponseRecorder(w)
			rec.Header().Set("X-Cache", "MISS")
			next.ServeHTTP(rec, r)

			// Only successful listings are cached; auth and validation
			// failures must stay uncacheable.
			if rec.status != http.StatusOK {
				return
			}

			entry := &cache.CachedResponse{
				Status:      rec.status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			}
			if err := cfg.Cache.SetResponse(r.Context(), key, entry, cfg.TTL); err != nil {
				cfg.Logger.Error("response cache store failed",
					slog.String("error", err.Error()),
					slog.String("route", cfg.Route),
					slog.String("request_id", GetRequestID(r.Context())),
				)
			}
		})
	}
}

// responseRecorder tees the response body so a copy can be cached after
// the handler runs.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rec *responseRecorder) WriteHeader(code int) {
	if rec.wroteHeader {
		return
	}
	rec.status = code
	rec.wroteHeader = true
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *responseRecorder) Write(b []byte) (int, error) {
	if !rec.wroteHeader {
		rec.WriteHeader(http.StatusOK)
	}
	rec.body.Write(b)
	return rec.ResponseWriter.Write(b)
}
