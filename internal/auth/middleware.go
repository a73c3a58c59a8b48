package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/marsesrobotics/dashboard/internal/httputil"
	"github.com/marsesrobotics/dashboard/internal/logging"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	ClaimsContextKey ContextKey = "session_claims"
)

// Middleware handles authentication for protected API routes
type Middleware struct {
	tokenService TokenService
	cookies      *SessionCookies
}

func NewMiddleware(tokenService TokenService, cookies *SessionCookies) *Middleware {
	return &Middleware{tokenService: tokenService, cookies: cookies}
}

// RequireAuth rejects requests without a valid session with a JSON 401
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := m.cookies.TokenFromRequest(r)
		if err != nil {
			if errors.Is(err, ErrInvalidAuthHeader) {
				httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "unauthorized", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokenService.VerifyToken(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// LoadSession attaches the session claims when a valid token is present and
// never rejects the request.
func (m *Middleware) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := m.SessionFromRequest(r); ok {
			r = r.WithContext(WithClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromRequest verifies the request's token, if any
func (m *Middleware) SessionFromRequest(r *http.Request) (*TokenClaims, bool) {
	token, err := m.cookies.TokenFromRequest(r)
	if err != nil {
		return nil, false
	}
	claims, err := m.tokenService.VerifyToken(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// WithClaims stores claims in ctx and tags the request log with the user.
func WithClaims(ctx context.Context, claims *TokenClaims) context.Context {
	if claims != nil {
		logging.SetUserID(ctx, claims.UserID)
	}
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// GetClaimsFromContext extracts the verified session claims from the request context
func GetClaimsFromContext(ctx context.Context) (*TokenClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*TokenClaims)
	return claims, ok && claims != nil
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	claims, ok := GetClaimsFromContext(ctx)
	if !ok {
		return "", false
	}
	return claims.UserID, true
}

// GetUserEmailFromContext extracts the user email from the request context
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	claims, ok := GetClaimsFromContext(ctx)
	if !ok {
		return "", false
	}
	return claims.Email, true
}
