package auth

import (
	"context"
	"io"
	"time"
)

// TokenService defines the interface for session token creation and validation.
// Implementations include JWTService (HS256) and PasetoService (PASETO v4.local).
// CreateToken also returns the exact expiry encoded in the token.
type TokenService interface {
	CreateToken(userID, email string, duration time.Duration) (string, time.Time, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// PasswordHasher hashes new passwords and checks candidates against stored hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encodedHash, password string) bool
}

// AvatarStore persists an uploaded profile picture and returns its public reference.
type AvatarStore interface {
	StoreAvatar(ctx context.Context, filename string, content io.Reader) (string, error)
}

// RateLimiter throttles sign-in and sign-up attempts per client IP.
type RateLimiter interface {
	CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error
}
