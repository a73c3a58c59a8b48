package auth

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	SignInPath         = "/signin"
	DefaultLandingPath = "/dashboard"
	CallbackURLParam   = "callbackUrl"
)

// Gatekeeper redirects anonymous visitors of protected pages to the sign-in page.
// Paths under a public prefix are passed through untouched.
type Gatekeeper struct {
	tokens         TokenService
	cookies        *SessionCookies
	publicPrefixes []string
}

func NewGatekeeper(tokens TokenService, cookies *SessionCookies, publicPrefixes []string) *Gatekeeper {
	prefixes := make([]string, 0, len(publicPrefixes))
	for _, p := range publicPrefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if p != "/" {
			p = strings.TrimSuffix(p, "/")
		}
		prefixes = append(prefixes, p)
	}
	return &Gatekeeper{tokens: tokens, cookies: cookies, publicPrefixes: prefixes}
}

// IsPublic matches whole path segments, so "/signin" covers "/signin/x" but not "/signinx".
func (g *Gatekeeper) IsPublic(path string) bool {
	for _, p := range g.publicPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func (g *Gatekeeper) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.IsPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if token, err := g.cookies.TokenFromRequest(r); err == nil {
			if _, err := g.tokens.VerifyToken(token); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}

		http.Redirect(w, r, SignInRedirect(r), http.StatusFound)
	})
}

// SignInRedirect builds /signin?callbackUrl=<absolute URL of r>
func SignInRedirect(r *http.Request) string {
	q := url.Values{}
	q.Set(CallbackURLParam, RequestURL(r))
	return SignInPath + "?" + q.Encode()
}

// RequestURL reconstructs the absolute URL the client asked for
func RequestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// SafeCallbackURL returns a same-site path to continue to after sign-in.
// Relative paths and absolute URLs on the request's own host are accepted;
// anything else falls back to the dashboard.
func SafeCallbackURL(r *http.Request, raw string) string {
	if raw == "" {
		return DefaultLandingPath
	}

	u, err := url.Parse(raw)
	if err != nil {
		return DefaultLandingPath
	}

	if u.Scheme != "" || u.Host != "" {
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host != r.Host {
			return DefaultLandingPath
		}
	} else if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return DefaultLandingPath
	}

	target := u.EscapedPath()
	if target == "" {
		target = "/"
	}
	if target == SignInPath || strings.HasPrefix(target, SignInPath+"/") {
		return DefaultLandingPath
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return target
}
