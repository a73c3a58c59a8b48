package auth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/marsesrobotics/dashboard/internal/httputil"
	"github.com/marsesrobotics/dashboard/internal/logging"
	"github.com/marsesrobotics/dashboard/internal/user"
)

const (
	PurposeSignIn = "signin"
	PurposeSignUp = "signup"

	multipartMemory = 8 << 20
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service        *Service
	cookies        *SessionCookies
	rateLimiter    RateLimiter
	logger         *logging.Logger
	maxUploadBytes int64
}

func NewHandler(service *Service, cookies *SessionCookies, rateLimiter RateLimiter, logger *logging.Logger, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        service,
		cookies:        cookies,
		rateLimiter:    rateLimiter,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// ErrorResponse represents an error response
type ErrorResponse = httputil.ErrorResponse

// UserResponse represents a user in API responses
type UserResponse struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture"`
}

// SignUpResponse represents the sign-up response
type SignUpResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// SignInResponse represents the sign-in response. Token fields are only
// filled for API clients that do not use cookies.
type SignInResponse struct {
	Success   bool         `json:"success"`
	User      UserResponse `json:"user"`
	Token     string       `json:"token,omitempty"`
	TokenType string       `json:"tokenType,omitempty"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
}

func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Name:           u.FullName(),
		ProfilePicture: u.ProfilePicture,
	}
}

// SignUp handles user registration
// @Summary      Register a new user
// @Description  Create an account from a multipart form with an optional profile picture. The new user is signed in immediately.
// @Tags         auth
// @Accept       multipart/form-data
// @Produce      json
// @Param        firstName       formData string true  "First name"
// @Param        lastName        formData string true  "Last name"
// @Param        email           formData string true  "Email"
// @Param        password        formData string true  "Password"
// @Param        confirmPassword formData string true  "Password confirmation"
// @Param        terms           formData bool   true  "Terms accepted"
// @Param        profilePicture  formData file   false "Profile picture"
// @Success      200 {object} SignUpResponse
// @Failure      400 {object} ErrorResponse "Invalid form, validation error or email already exists"
// @Failure      429 {object} ErrorResponse "Too many requests"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/signup [post]
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allow(w, r, PurposeSignUp) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartMemory)
	req, avatar, cleanup, err := ParseSignUpForm(r)
	if err != nil {
		logger.Warn("invalid sign-up form", "error", err.Error())
		respondError(w, "invalid form data", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	defer cleanup()

	logger = logger.WithFields(map[string]any{"email": normalizeEmail(req.Email)})

	newUser, err := h.service.SignUp(r.Context(), req, avatar)
	if err != nil {
		var vErr *ValidationError
		switch {
		case errors.As(err, &vErr):
			logger.Warn("sign-up failed: validation error", "fields", vErr.Fields)
			httputil.RespondValidationError(w, "validation failed", vErr.Fields)
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("sign-up failed: email already exists")
			respondError(w, "Email already exists", httputil.CodeEmailAlreadyExists, http.StatusBadRequest)
		default:
			logger.Error("sign-up failed: internal error", "error", err.Error())
			respondError(w, "failed to create account", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user signed up", "user_id", newUser.ID)

	// Sign the new user in right away
	session, err := h.service.IssueSession(newUser)
	if err != nil {
		logger.Error("failed to issue session after sign-up", "error", err.Error())
	} else if ShouldUseCookies(r) {
		h.cookies.Set(w, session.Token)
	}

	respondJSON(w, SignUpResponse{
		Success: true,
		Message: "User created successfully",
		User:    NewUserResponse(newUser),
	}, http.StatusOK)
}

// SignIn handles credential sign-in
// @Summary      Sign in
// @Description  Check email and password and start a 30-day session. Browsers receive an HttpOnly cookie; clients sending "X-Client-Type: api" receive the token in the body.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignInRequest true "Credentials"
// @Success      200 {object} SignInResponse
// @Failure      400 {object} ErrorResponse "Invalid request body or missing credentials"
// @Failure      401 {object} ErrorResponse "Invalid credentials"
// @Failure      429 {object} ErrorResponse "Too many requests"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/signin [post]
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allow(w, r, PurposeSignIn) {
		return
	}

	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid sign-in request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": normalizeEmail(req.Email)})

	session, err := h.service.SignIn(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingCredentials):
			logger.Warn("sign-in failed: missing credentials")
			respondError(w, "Missing credentials", httputil.CodeMissingCredentials, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("sign-in failed: invalid credentials")
			respondError(w, "Invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		default:
			logger.Error("sign-in failed: internal error", "error", err.Error())
			respondError(w, "failed to sign in", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user signed in", "user_id", session.User.ID)

	resp := SignInResponse{
		Success: true,
		User:    NewUserResponse(session.User),
	}

	// Set cookies if request is from browser
	if ShouldUseCookies(r) {
		h.cookies.Set(w, session.Token)
	} else {
		resp.Token = session.Token
		resp.TokenType = "Bearer"
		resp.ExpiresAt = &session.ExpiresAt
	}

	respondJSON(w, resp, http.StatusOK)
}

// Me returns the signed-in user
// @Summary      Current user
// @Description  Return the user the session token belongs to
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserResponse
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Router       /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	claims, ok := GetClaimsFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	u, err := h.service.CurrentUser(r.Context(), claims)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			logger.Warn("session refers to a missing user", "user_id", claims.UserID)
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusUnauthorized)
			return
		}
		logger.Error("failed to load current user", "error", err.Error())
		respondError(w, "failed to load user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	respondJSON(w, NewUserResponse(u), http.StatusOK)
}

// SignOut clears the session cookie of a signed-in user
// @Summary      Sign out
// @Description  Clear the session cookie. Tokens are stateless and stay valid until they expire.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]bool
// @Failure      401 {object} ErrorResponse "No active session"
// @Router       /auth/signout [post]
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	claims, ok := GetClaimsFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	h.cookies.Clear(w)

	logger.Info("user signed out", "user_id", claims.UserID)

	respondJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

func (h *Handler) allow(w http.ResponseWriter, r *http.Request, purpose string) bool {
	if AllowAttempt(r, h.rateLimiter, purpose) {
		return true
	}
	respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
	return false
}

// AllowAttempt applies the per-IP limit for purpose and records the attempt.
// Limiter failures are logged and do not block the request. A nil limiter
// allows everything.
func AllowAttempt(r *http.Request, limiter RateLimiter, purpose string) bool {
	if limiter == nil {
		return true
	}

	logger := logging.GetLoggerFromContext(r.Context())
	ip := getClientIP(r)

	exceeded, err := limiter.CheckIPRateLimitWithPurpose(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		return false
	}

	if err := limiter.RecordIPRequestWithPurpose(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
	return true
}

// ParseSignUpForm reads the multipart or urlencoded sign-up form.
// The returned cleanup removes temporary multipart files.
func ParseSignUpForm(r *http.Request) (SignUpRequest, *AvatarUpload, func(), error) {
	noop := func() {}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return SignUpRequest{}, nil, noop, err
		}
	} else if err := r.ParseForm(); err != nil {
		return SignUpRequest{}, nil, noop, err
	}

	req := SignUpRequest{
		FirstName:       strings.TrimSpace(r.FormValue("firstName")),
		LastName:        strings.TrimSpace(r.FormValue("lastName")),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirmPassword"),
		Terms:           parseFormBool(r.FormValue("terms")),
	}

	if r.MultipartForm == nil {
		return req, nil, noop, nil
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	file, header, err := r.FormFile("profilePicture")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, nil, cleanup, nil
		}
		return req, nil, cleanup, err
	}

	// Browsers submit an empty part when no file was picked
	if header.Size == 0 {
		_ = file.Close()
		return req, nil, cleanup, nil
	}

	prev := cleanup
	cleanup = func() {
		_ = file.Close()
		prev()
	}

	return req, &AvatarUpload{Filename: header.Filename, Content: file}, cleanup, nil
}

func parseFormBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "1", "yes":
		return true
	default:
		return false
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}

// getClientIP extracts the client IP address from the request.
// chi's RealIP middleware has already applied X-Forwarded-For / X-Real-IP.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
