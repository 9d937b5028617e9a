package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/userhub/userhub/internal/cache"
	"github.com/userhub/userhub/internal/metrics"
)

// RateLimitConfig holds configuration for the admission middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Cache   *cache.Cache
	Metrics metrics.Recorder
	Enabled bool
	// Endpoint namespaces the counters, e.g. "users.list".
	Endpoint string
	// Limit is the number of admitted requests per window.
	Limit int
	// Window is the fixed counting window.
	Window time.Duration
}

// RateLimit returns middleware applying fixed-window admission per client
// source address. It runs first in the chain: a rejected request is
// answered with 429 before the response cache or token verification see
// it, so rejection mutates no other component's state.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			clientKey := getClientIP(r)

			result, err := cfg.Cache.CheckRateLimit(
				r.Context(),
				clientKey,
				cfg.Endpoint,
				cfg.Limit,
				cfg.Window,
			)
			if err != nil {
				cfg.Logger.Error("rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("endpoint", cfg.Endpoint),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				// Fail open - allow request
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, result)

			if !result.Allowed {
				recorder.IncRateLimitRejected()
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("endpoint", cfg.Endpoint),
					slog.String("ip", clientKey),
					slog.Int64("count", result.Count),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded",
					fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", int(result.RetryAfter.Seconds())))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders sets standard rate limit response headers.
func setRateLimitHeaders(w http.ResponseWriter, result *cache.RateLimitResult) {
	remaining := result.Limit - result.Count
	if remaining < 0 {
		remaining = 0
	}
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
