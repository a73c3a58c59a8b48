package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marsesrobotics/dashboard/internal/config"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

const thirtyDays = 30 * 24 * time.Hour

type clockSetter interface {
	TokenService
	setClock(func() time.Time)
}

func (s *JWTService) setClock(now func() time.Time)    { s.now = now }
func (s *PasetoService) setClock(now func() time.Time) { s.now = now }

func tokenServices(t *testing.T, secret []byte) map[string]clockSetter {
	t.Helper()

	jwtSvc, err := NewJWTService(secret)
	require.NoError(t, err)

	pasetoSvc, err := NewPasetoService(secret)
	require.NoError(t, err)

	return map[string]clockSetter{
		"jwt":    jwtSvc,
		"paseto": pasetoSvc,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	for name, svc := range tokenServices(t, testSecret) {
		t.Run(name, func(t *testing.T) {
			token, _, err := svc.CreateToken("user-1", "a@b.com", thirtyDays)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			claims, err := svc.VerifyToken(token)
			require.NoError(t, err)
			assert.Equal(t, "user-1", claims.UserID)
			assert.Equal(t, "a@b.com", claims.Email)
			assert.WithinDuration(t, claims.IssuedAt.Add(thirtyDays), claims.ExpiresAt, time.Second)
		})
	}
}

func TestTokenExpiryBoundary(t *testing.T) {
	issued := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	for name, svc := range tokenServices(t, testSecret) {
		t.Run(name, func(t *testing.T) {
			svc.setClock(func() time.Time { return issued })
			token, _, err := svc.CreateToken("user-1", "a@b.com", thirtyDays)
			require.NoError(t, err)

			svc.setClock(func() time.Time { return issued.Add(thirtyDays) })
			claims, err := svc.VerifyToken(token)
			require.NoError(t, err, "token must still be valid at its expiry instant")
			assert.Equal(t, issued.Add(thirtyDays).Unix(), claims.ExpiresAt.Unix())

			svc.setClock(func() time.Time { return issued.Add(thirtyDays + time.Second) })
			_, err = svc.VerifyToken(token)
			assert.ErrorIs(t, err, ErrExpiredToken)
		})
	}
}

func TestTokenExpiryBoundary_SubSecondIssue(t *testing.T) {
	issued := time.Date(2026, 1, 10, 12, 0, 0, 500_000_000, time.UTC)
	wantExpiry := time.Date(2026, 2, 9, 12, 0, 1, 0, time.UTC)

	for name, svc := range tokenServices(t, testSecret) {
		t.Run(name, func(t *testing.T) {
			svc.setClock(func() time.Time { return issued })
			token, expiresAt, err := svc.CreateToken("user-1", "a@b.com", thirtyDays)
			require.NoError(t, err)
			assert.True(t, wantExpiry.Equal(expiresAt), "expiry %s", expiresAt)

			svc.setClock(func() time.Time { return issued.Add(thirtyDays - 100*time.Millisecond) })
			_, err = svc.VerifyToken(token)
			require.NoError(t, err)

			svc.setClock(func() time.Time { return issued.Add(thirtyDays) })
			claims, err := svc.VerifyToken(token)
			require.NoError(t, err, "token must be accepted for the full lifetime")
			assert.Equal(t, expiresAt.Unix(), claims.ExpiresAt.Unix())

			svc.setClock(func() time.Time { return wantExpiry.Add(time.Millisecond) })
			_, err = svc.VerifyToken(token)
			assert.ErrorIs(t, err, ErrExpiredToken)
		})
	}
}

func TestExpiryFor(t *testing.T) {
	whole := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	assert.True(t, whole.Add(time.Hour).Equal(expiryFor(whole, time.Hour)))

	fractional := whole.Add(time.Nanosecond)
	assert.True(t, whole.Add(time.Hour+time.Second).Equal(expiryFor(fractional, time.Hour)))
}

func TestTokenRejectsOtherSecret(t *testing.T) {
	other := []byte("ffffffffffffffffffffffffffffffff")

	issuers := tokenServices(t, testSecret)
	verifiers := tokenServices(t, other)

	for name, svc := range issuers {
		t.Run(name, func(t *testing.T) {
			token, _, err := svc.CreateToken("user-1", "a@b.com", time.Hour)
			require.NoError(t, err)

			_, err = verifiers[name].VerifyToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenRejectsMalformed(t *testing.T) {
	for name, svc := range tokenServices(t, testSecret) {
		t.Run(name, func(t *testing.T) {
			for _, bad := range []string{"", "garbage", "a.b.c", "v4.local.AAAA"} {
				_, err := svc.VerifyToken(bad)
				assert.ErrorIs(t, err, ErrInvalidToken, "input %q", bad)
			}

			token, _, err := svc.CreateToken("user-1", "a@b.com", time.Hour)
			require.NoError(t, err)

			tampered := token[:len(token)-2] + flip(token[len(token)-2:])
			_, err = svc.VerifyToken(tampered)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenFormatsDoNotCrossVerify(t *testing.T) {
	services := tokenServices(t, testSecret)

	jwtToken, _, err := services["jwt"].CreateToken("user-1", "a@b.com", time.Hour)
	require.NoError(t, err)
	_, err = services["paseto"].VerifyToken(jwtToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	pasetoToken, _, err := services["paseto"].CreateToken("user-1", "a@b.com", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pasetoToken, "v4.local."))
	_, err = services["jwt"].VerifyToken(pasetoToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenService(t *testing.T) {
	svc, err := NewTokenService(config.AuthConfig{Secret: testSecret, TokenFormat: config.TokenFormatJWT})
	require.NoError(t, err)
	assert.IsType(t, &JWTService{}, svc)

	svc, err = NewTokenService(config.AuthConfig{Secret: testSecret, TokenFormat: config.TokenFormatPaseto})
	require.NoError(t, err)
	assert.IsType(t, &PasetoService{}, svc)

	_, err = NewTokenService(config.AuthConfig{Secret: testSecret, TokenFormat: "saml"})
	assert.Error(t, err)
}

// flip changes every character of s to a different base64url character.
func flip(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c == 'A' {
			out[i] = 'B'
		} else {
			out[i] = 'A'
		}
	}
	return string(out)
}
