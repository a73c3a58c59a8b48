package http

import (
	"net/http"
	"strings"
)

const (
	pagePolicy    = "default-src 'self'; img-src 'self' data: https:; style-src 'self'; form-action 'self'; frame-ancestors 'none'"
	swaggerPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:"
	apiPolicy     = "default-src 'none'"
)

// SecurityHeaders adds security-related headers to all responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", contentSecurityPolicy(r.URL.Path))

		next.ServeHTTP(w, r)
	})
}

func contentSecurityPolicy(path string) string {
	switch {
	case strings.HasPrefix(path, "/swagger/"):
		// Swagger UI needs inline scripts and styles to render
		return swaggerPolicy
	case strings.HasPrefix(path, "/api/"), strings.HasPrefix(path, "/auth/"), path == "/health":
		return apiPolicy
	default:
		return pagePolicy
	}
}
