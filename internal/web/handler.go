package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/marsesrobotics/dashboard/internal/auth"
	"github.com/marsesrobotics/dashboard/internal/dashboard"
	"github.com/marsesrobotics/dashboard/internal/logging"
	"github.com/marsesrobotics/dashboard/internal/user"
)

const (
	multipartMemory = 8 << 20

	tooManyAttempts = "Too many attempts, please try again later"
)

// Handler serves the server-rendered sign-in, sign-up and dashboard pages
type Handler struct {
	renderer       *Renderer
	auth           *auth.Service
	dashboard      *dashboard.Service
	sessions       *auth.Middleware
	cookies        *auth.SessionCookies
	rateLimiter    auth.RateLimiter
	maxUploadBytes int64
	now            func() time.Time
}

func NewHandler(
	renderer *Renderer,
	authService *auth.Service,
	dashboardService *dashboard.Service,
	sessions *auth.Middleware,
	cookies *auth.SessionCookies,
	rateLimiter auth.RateLimiter,
	maxUploadBytes int64,
) *Handler {
	return &Handler{
		renderer:       renderer,
		auth:           authService,
		dashboard:      dashboardService,
		sessions:       sessions,
		cookies:        cookies,
		rateLimiter:    rateLimiter,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

type signInPage struct {
	Email       string
	CallbackURL string
	Error       string
}

type signUpPage struct {
	Form   auth.SignUpRequest
	Fields map[string]string
	Error  string
}

type dashboardPage struct {
	User        *user.User
	Now         time.Time
	View        dashboard.View
	Donut       Donut
	Trend       TrendChart
	Unavailable bool
}

// Root sends visitors to the dashboard; the gatekeeper handles anonymous ones
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, auth.DefaultLandingPath, http.StatusFound)
}

func (h *Handler) SignInForm(w http.ResponseWriter, r *http.Request) {
	callback := r.URL.Query().Get(auth.CallbackURLParam)

	if _, ok := h.sessions.SessionFromRequest(r); ok {
		http.Redirect(w, r, auth.SafeCallbackURL(r, callback), http.StatusFound)
		return
	}

	h.render(w, r, http.StatusOK, "signin", signInPage{CallbackURL: callback})
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !auth.AllowAttempt(r, h.rateLimiter, auth.PurposeSignIn) {
		h.render(w, r, http.StatusTooManyRequests, "signin", signInPage{
			Email:       r.PostFormValue("email"),
			CallbackURL: r.PostFormValue(auth.CallbackURLParam),
			Error:       tooManyAttempts,
		})
		return
	}

	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "signin", signInPage{Error: "Invalid form submission"})
		return
	}

	page := signInPage{
		Email:       r.PostFormValue("email"),
		CallbackURL: r.PostFormValue(auth.CallbackURLParam),
	}

	session, err := h.auth.SignIn(r.Context(), auth.SignInRequest{
		Email:    page.Email,
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingCredentials):
			page.Error = "Please enter your email and password"
			h.render(w, r, http.StatusBadRequest, "signin", page)
		case errors.Is(err, auth.ErrInvalidCredentials):
			logger.Warn("sign-in failed: invalid credentials")
			page.Error = "Invalid email or password"
			h.render(w, r, http.StatusUnauthorized, "signin", page)
		default:
			logger.Error("sign-in failed: internal error", "error", err.Error())
			page.Error = "Something went wrong, please try again"
			h.render(w, r, http.StatusInternalServerError, "signin", page)
		}
		return
	}

	logger.Info("user signed in", "user_id", session.User.ID)
	h.cookies.Set(w, session.Token)
	http.Redirect(w, r, auth.SafeCallbackURL(r, page.CallbackURL), http.StatusSeeOther)
}

func (h *Handler) SignUpForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessions.SessionFromRequest(r); ok {
		http.Redirect(w, r, auth.DefaultLandingPath, http.StatusFound)
		return
	}

	h.render(w, r, http.StatusOK, "signup", signUpPage{})
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !auth.AllowAttempt(r, h.rateLimiter, auth.PurposeSignUp) {
		h.render(w, r, http.StatusTooManyRequests, "signup", signUpPage{Error: tooManyAttempts})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartMemory)
	req, avatar, cleanup, err := auth.ParseSignUpForm(r)
	if err != nil {
		logger.Warn("invalid sign-up form", "error", err.Error())
		h.render(w, r, http.StatusBadRequest, "signup", signUpPage{Error: "Invalid form submission"})
		return
	}
	defer cleanup()

	page := signUpPage{Form: req}
	page.Form.Password, page.Form.ConfirmPassword = "", ""

	newUser, err := h.auth.SignUp(r.Context(), req, avatar)
	if err != nil {
		var vErr *auth.ValidationError
		switch {
		case errors.As(err, &vErr):
			page.Fields = vErr.Fields
			h.render(w, r, http.StatusBadRequest, "signup", page)
		case errors.Is(err, user.ErrDuplicateEmail):
			page.Error = "Email already exists"
			h.render(w, r, http.StatusBadRequest, "signup", page)
		default:
			logger.Error("sign-up failed: internal error", "error", err.Error())
			page.Error = "Something went wrong, please try again"
			h.render(w, r, http.StatusInternalServerError, "signup", page)
		}
		return
	}

	logger.Info("user signed up", "user_id", newUser.ID)

	session, err := h.auth.IssueSession(newUser)
	if err != nil {
		logger.Error("failed to issue session after sign-up", "error", err.Error())
		http.Redirect(w, r, auth.SignInPath, http.StatusSeeOther)
		return
	}

	h.cookies.Set(w, session.Token)
	http.Redirect(w, r, auth.DefaultLandingPath, http.StatusSeeOther)
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	http.Redirect(w, r, auth.SignInPath, http.StatusSeeOther)
}

// Dashboard renders the metrics page. If the data cannot be loaded the page
// still renders, with empty panels.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	claims, ok := auth.GetClaimsFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, auth.SignInRedirect(r), http.StatusFound)
		return
	}

	u, err := h.auth.CurrentUser(r.Context(), claims)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			logger.Warn("session refers to a missing user", "user_id", claims.UserID)
			h.cookies.Clear(w)
			http.Redirect(w, r, auth.SignInRedirect(r), http.StatusFound)
			return
		}
		logger.Error("failed to load current user", "error", err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	page := dashboardPage{User: u, Now: h.now()}

	data, err := h.dashboard.Load(r.Context())
	if err != nil {
		logger.Error("failed to load dashboard data", "error", err.Error())
		page.Unavailable = true
	}

	page.View = dashboard.BuildView(data, page.Now)
	page.Donut = newDonut(page.View.Pie)
	page.Trend = newTrendChart(page.View.Trend)

	h.render(w, r, http.StatusOK, "dashboard", page)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := h.renderer.Render(w, status, name, data); err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to render page", "page", name, "error", err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
