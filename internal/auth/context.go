package auth

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// identityContextKey is the context key for the authenticated user ID.
const identityContextKey contextKey = "auth_identity"

// ContextWithUserID adds the authenticated user ID to the context.
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, identityContextKey, userID)
}

// UserIDFromContext retrieves the authenticated user ID from the context.
// The second return value is false if no auth middleware has run.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(identityContextKey).(int64)
	return id, ok
}
