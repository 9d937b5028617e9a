// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/userhub/userhub/internal/auth"
	"github.com/userhub/userhub/internal/metrics"
	"github.com/userhub/userhub/internal/model"
	"github.com/userhub/userhub/internal/repository"
)

// Service errors.
var (
	ErrMissingFields      = errors.New("username, email and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidPagination  = errors.New("page and per_page must be positive integers")
)

// UserStore is the persistence surface the service depends on.
// Implemented by *repository.Repository; tests use an in-memory fake.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context, offset, limit int) ([]*model.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// UserService handles account business logic.
type UserService struct {
	store   UserStore
	tokens  *auth.TokenService
	metrics metrics.Recorder
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore, tokens *auth.TokenService, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		store:   store,
		tokens:  tokens,
		metrics: recorder,
	}
}

// RegisterInput defines input for creating an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register validates the input, hashes the password and inserts the
// record. The plaintext password exists only for the duration of this
// call and is never stored or logged. Duplicate usernames surface as
// ErrUsernameTaken via the store's uniqueness constraint.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if username == "" || email == "" || input.Password == "" {
		return nil, ErrMissingFields
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.metrics.IncUserRegistered()
	return user, nil
}

// Login verifies credentials and issues an access token. A missing user
// and a wrong password collapse into the same ErrInvalidCredentials so
// callers cannot probe for valid usernames.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", ErrMissingFields
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLoginFailure()
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !match {
		s.metrics.IncLoginFailure()
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	s.metrics.IncLoginSuccess()
	return token, nil
}

// Get retrieves a user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateInput defines input for a partial account update.
// Nil fields are left unchanged.
type UpdateInput struct {
	ID       int64
	Username *string
	Email    *string
}

// Update applies only the supplied fields, leaving the rest unchanged.
func (s *UserService) Update(ctx context.Context, input UpdateInput) (*model.User, error) {
	user, err := s.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, ErrMissingFields
		}
		user.Username = username
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email == "" {
			return nil, ErrMissingFields
		}
		user.Email = strings.ToLower(email)
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrUsernameExists):
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.metrics.IncUserUpdated()
	return user, nil
}

// Delete removes a user record.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.metrics.IncUserDeleted()
	return nil
}

// UserPage is one page of a user listing.
type UserPage struct {
	Users   []*model.User
	Total   int64
	Pages   int
	Page    int
	PerPage int
}

// List returns one page of users with offset = (page-1)*perPage.
func (s *UserService) List(ctx context.Context, page, perPage int) (*UserPage, error) {
	if page < 1 || perPage < 1 {
		return nil, ErrInvalidPagination
	}

	offset := (page - 1) * perPage
	users, err := s.store.ListUsers(ctx, offset, perPage)
	if err != nil {
		return nil, err
	}

	total, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}

	pages := int((total + int64(perPage) - 1) / int64(perPage))

	return &UserPage{
		Users:   users,
		Total:   total,
		Pages:   pages,
		Page:    page,
		PerPage: perPage,
	}, nil
}
