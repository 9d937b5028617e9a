// Package model defines domain entities for the application.
package model

import "time"

// User represents an account record. The store assigns the ID on insert.
// PasswordHash never leaves the process: responses are built from
// dto.UserResponse, which has no hash field.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
