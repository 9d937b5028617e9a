package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/userhub/userhub/internal/auth"
	"github.com/userhub/userhub/internal/metrics"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// okHandler records the user ID the middleware injected into context.
func okHandler(gotUserID *int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := auth.UserIDFromContext(r.Context()); ok {
			*gotUserID = id
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_ValidToken(t *testing.T) {
	t.Parallel()

	tokens := auth.NewTokenService("test-secret", time.Hour)
	token, err := tokens.Issue(42)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	var gotUserID int64
	handler := Auth(AuthConfig{Logger: testLogger(), Tokens: tokens})(okHandler(&gotUserID))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if gotUserID != 42 {
		t.Errorf("expected user ID 42 in context, got %d", gotUserID)
	}
}

func TestAuth_Rejections(t *testing.T) {
	t.Parallel()

	tokens := auth.NewTokenService("test-secret", time.Hour)
	otherIssuer := auth.NewTokenService("other-secret", time.Hour)

	forged, err := otherIssuer.Issue(1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not-a-token"},
		{"forged token", "Bearer " + forged},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			recorder := metrics.NewInMemory()
			var gotUserID int64
			handler := Auth(AuthConfig{
				Logger:  testLogger(),
				Tokens:  tokens,
				Metrics: recorder,
			})(okHandler(&gotUserID))

			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
			if gotUserID != 0 {
				t.Error("handler should not run on rejected requests")
			}
			if recorder.Snapshot().AuthFailures != 1 {
				t.Error("rejection should count an auth failure")
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("error body should be JSON: %v", err)
			}
			// Every rejection uses the same body so callers cannot
			// distinguish missing, forged, and expired tokens.
			if body["error"] != "unauthorized" {
				t.Errorf("expected unauthorized kind, got %q", body["error"])
			}
		})
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	t.Parallel()

	tokens := auth.NewTokenService("test-secret", -time.Minute)
	token, err := tokens.Issue(1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	var gotUserID int64
	handler := Auth(AuthConfig{Logger: testLogger(), Tokens: tokens})(okHandler(&gotUserID))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expired token should be rejected with 401, got %d", rec.Code)
	}
}
