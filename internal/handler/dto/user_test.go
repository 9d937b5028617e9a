package dto

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/userhub/userhub/internal/model"
)

func TestParsePagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		query       string
		wantPage    int
		wantPerPage int
		wantErr     bool
	}{
		{"defaults", "", 1, 10, false},
		{"explicit", "page=3&per_page=25", 3, 25, false},
		{"page only", "page=2", 2, 10, false},
		{"per_page only", "per_page=50", 1, 50, false},
		{"max per_page", "per_page=100", 1, 100, false},
		{"zero page", "page=0", 0, 0, true},
		{"negative page", "page=-1", 0, 0, true},
		{"zero per_page", "per_page=0", 0, 0, true},
		{"over cap", "per_page=101", 0, 0, true},
		{"non-numeric page", "page=abc", 0, 0, true},
		{"non-numeric per_page", "per_page=ten", 0, 0, true},
		{"float page", "page=1.5", 0, 0, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			query, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("bad test query: %v", err)
			}

			params, err := ParsePagination(query)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPagination) {
					t.Errorf("expected ErrInvalidPagination, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParsePagination failed: %v", err)
			}
			if params.Page != tt.wantPage || params.PerPage != tt.wantPerPage {
				t.Errorf("got page=%d per_page=%d, want page=%d per_page=%d",
					params.Page, params.PerPage, tt.wantPage, tt.wantPerPage)
			}
		})
	}
}

func TestToUserResponse_OmitsPasswordHash(t *testing.T) {
	t.Parallel()

	user := &model.User{
		ID:           1,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	body, err := json.Marshal(ToUserResponse(user))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	serialized := string(body)
	if strings.Contains(serialized, "argon2id") || strings.Contains(serialized, "password") {
		t.Errorf("response body must not carry credential material: %s", serialized)
	}
	if !strings.Contains(serialized, `"username":"alice"`) {
		t.Errorf("response body should carry the username: %s", serialized)
	}
}

func TestToUserListResponse(t *testing.T) {
	t.Parallel()

	users := []*model.User{
		{ID: 1, Username: "alice", Email: "alice@example.com"},
		{ID: 2, Username: "bob", Email: "bob@example.com"},
	}

	resp := ToUserListResponse(users, 12, 2, 1, 10)

	if len(resp.Users) != 2 {
		t.Errorf("expected 2 users, got %d", len(resp.Users))
	}
	if resp.Total != 12 || resp.Pages != 2 || resp.CurrentPage != 1 || resp.PerPage != 10 {
		t.Errorf("unexpected page metadata: %+v", resp)
	}
}

func TestToUserListResponse_Empty(t *testing.T) {
	t.Parallel()

	resp := ToUserListResponse(nil, 0, 0, 1, 10)

	// An empty page serializes as [], not null
	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(body), `"users":[]`) {
		t.Errorf("empty listing should serialize as an empty array: %s", body)
	}
}
