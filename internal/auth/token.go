package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Token verification errors, ordered by check: signature integrity is
// validated before expiry.
var (
	// ErrBadSignature indicates the token signature does not match.
	ErrBadSignature = errors.New("token signature is invalid")
	// ErrTokenExpired indicates the token is past its expiry.
	ErrTokenExpired = errors.New("token is expired")
	// ErrTokenMalformed indicates the token could not be parsed.
	ErrTokenMalformed = errors.New("token is malformed")
)

// tokenIssuer is the iss claim stamped on every issued token.
const tokenIssuer = "userhub"

// Claims is the payload carried by an access token.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed, expiring identity tokens.
// Tokens are stateless: there is no revocation, expiry is purely
// time-based.
type TokenService struct {
	secret []byte
	ttl    time.Duration

	// now is the clock used for issuance and expiry checks.
	// Overridable in tests.
	now func() time.Time
}

// NewTokenService creates a TokenService signing with the given secret.
// The secret is process-wide and loaded once at startup.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue creates a signed HS256 token embedding the user ID and an expiry
// of now + TTL. The jti claim gets a fresh ULID for log correlation.
func (s *TokenService) Issue(userID int64) (string, error) {
	now := s.now()

	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify checks signature integrity first, then expiry, and returns the
// embedded user ID only if both checks pass.
func (s *TokenService) Verify(tokenString string) (int64, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return 0, ErrBadSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, ErrTokenExpired
		default:
			return 0, ErrTokenMalformed
		}
	}

	return claims.UserID, nil
}
