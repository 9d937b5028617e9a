// Package dto defines request and response shapes for the HTTP API.
package dto

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/userhub/userhub/internal/model"
)

// Pagination defaults and bounds for the listing endpoint.
const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// ErrInvalidPagination indicates page or per_page is not a positive
// integer (or per_page exceeds the cap).
var ErrInvalidPagination = errors.New("page and per_page must be positive integers")

// RegisterRequest is the body for POST /api/users.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body for POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateUserRequest is the body for PUT /api/users/{id}.
// Nil fields are left unchanged; only username and email are mutable.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// UserResponse carries a user's public fields. The password hash is
// deliberately absent.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// UserListResponse is one page of users.
type UserListResponse struct {
	Users       []UserResponse `json:"users"`
	Total       int64          `json:"total"`
	Pages       int            `json:"pages"`
	CurrentPage int            `json:"current_page"`
	PerPage     int            `json:"per_page"`
}

// MessageResponse is a simple confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the generic error body: {"error": <kind>, "message": <description>}.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// PageParams holds normalized pagination parameters.
type PageParams struct {
	Page    int
	PerPage int
}

// ParsePagination normalizes page/per_page query parameters. Absent
// parameters take the defaults; explicit values must be positive integers
// with per_page capped at MaxPerPage. The normalization is shared by the
// listing handler and the response cache so both derive the same key for
// a given request.
func ParsePagination(query url.Values) (PageParams, error) {
	params := PageParams{Page: DefaultPage, PerPage: DefaultPerPage}

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return PageParams{}, ErrInvalidPagination
		}
		params.Page = page
	}

	if raw := query.Get("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil || perPage < 1 || perPage > MaxPerPage {
			return PageParams{}, ErrInvalidPagination
		}
		params.PerPage = perPage
	}

	return params, nil
}

// ToUserResponse maps a user entity to its public representation.
func ToUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}

// ToUserListResponse maps one page of users to the listing body.
func ToUserListResponse(users []*model.User, total int64, pages, currentPage, perPage int) UserListResponse {
	items := make([]UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, ToUserResponse(user))
	}

	return UserListResponse{
		Users:       items,
		Total:       total,
		Pages:       pages,
		CurrentPage: currentPage,
		PerPage:     perPage,
	}
}
