package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/marsesrobotics/dashboard/internal/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const (
	tokenIssuer = "robotics-dashboard"

	claimUserID = "id"
	claimEmail  = "email"
)

// TokenClaims is the verified content of a session token
type TokenClaims struct {
	UserID    string    `json:"id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// NewTokenService builds the token implementation selected by AUTH_TOKEN_FORMAT.
func NewTokenService(cfg config.AuthConfig) (TokenService, error) {
	switch cfg.TokenFormat {
	case config.TokenFormatJWT:
		return NewJWTService(cfg.Secret)
	case config.TokenFormatPaseto:
		return NewPasetoService(cfg.Secret)
	default:
		return nil, fmt.Errorf("unknown token format %q", cfg.TokenFormat)
	}
}

// expiryFor rounds now+duration up to a whole second, so the encoded expiry
// is never earlier than the requested lifetime.
func expiryFor(now time.Time, duration time.Duration) time.Time {
	exp := now.Add(duration)
	if t := exp.Truncate(time.Second); !t.Equal(exp) {
		return t.Add(time.Second)
	}
	return exp
}

// checkExpiry accepts a token up to and including its expiry instant.
func checkExpiry(now, expiresAt time.Time) error {
	if now.After(expiresAt) {
		return ErrExpiredToken
	}
	return nil
}
