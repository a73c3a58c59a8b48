package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

var (
	ErrNoSessionToken    = errors.New("no session token")
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
)

// SessionCookies writes and reads the HttpOnly session cookie
type SessionCookies struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

func NewSessionCookies(name string, secure bool, maxAge time.Duration) *SessionCookies {
	return &SessionCookies{Name: name, Secure: secure, MaxAge: maxAge}
}

// Set stores the session token in an HttpOnly cookie scoped to the whole site
func (c *SessionCookies) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.MaxAge.Seconds()),
		Expires:  time.Now().Add(c.MaxAge),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie
func (c *SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest returns the session token.
// Priority 1: Authorization header, Priority 2: cookie.
func (c *SessionCookies) TokenFromRequest(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", ErrInvalidAuthHeader
		}
		return parts[1], nil
	}

	cookie, err := r.Cookie(c.Name)
	if err != nil || cookie.Value == "" {
		return "", ErrNoSessionToken
	}
	return cookie.Value, nil
}

// ShouldUseCookies reports whether the caller is a browser.
// API clients opt out with "X-Client-Type: api" and receive the token in the body.
func ShouldUseCookies(r *http.Request) bool {
	return !strings.EqualFold(r.Header.Get("X-Client-Type"), "api")
}
