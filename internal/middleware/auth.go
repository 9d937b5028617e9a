package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/userhub/userhub/internal/auth"
	"github.com/userhub/userhub/internal/metrics"
)

// TokenVerifier verifies a bearer token and returns the identity it
// carries.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger  *slog.Logger
	Tokens  TokenVerifier
	Metrics metrics.Recorder
}

// Auth returns middleware that authenticates requests on protected
// routes. It extracts the bearer token from the Authorization header,
// verifies it statelessly, and injects the user ID into the request
// context. Verification happens before any store access; on failure the
// endpoint answers 401 without touching the store. The token value itself
// is never logged.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				recorder.IncAuthFailure()
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			userID, err := cfg.Tokens.Verify(token)
			if err != nil {
				reason := "malformed_token"
				switch {
				case errors.Is(err, auth.ErrBadSignature):
					reason = "bad_signature"
				case errors.Is(err, auth.ErrTokenExpired):
					reason = "expired"
				}

				recorder.IncAuthFailure()
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			ctx := auth.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken extracts the token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures so callers cannot
// distinguish missing, forged, and expired tokens.
func writeAuthError(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing token")
}
