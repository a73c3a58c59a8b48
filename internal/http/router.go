package http

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/marsesrobotics/dashboard/internal/auth"
	"github.com/marsesrobotics/dashboard/internal/config"
	"github.com/marsesrobotics/dashboard/internal/dashboard"
	"github.com/marsesrobotics/dashboard/internal/httputil"
	"github.com/marsesrobotics/dashboard/internal/logging"
	"github.com/marsesrobotics/dashboard/internal/profile"
	"github.com/marsesrobotics/dashboard/internal/web"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Auth       *auth.Handler
	Profile    *profile.Handler
	Dashboard  *dashboard.Handler
	Pages      *web.Handler
	Sessions   *auth.Middleware
	Gatekeeper *auth.Gatekeeper

	// Static holds css/ and images/. Uploads is nil when avatars live in S3.
	Static  fs.FS
	Uploads http.FileSystem
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Client-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))
	r.Use(h.Gatekeeper.Handler)

	r.Get("/health", handleHealth)

	if h.Static != nil {
		mountFS(r, "/static", http.FS(h.Static))
		if images, err := fs.Sub(h.Static, "images"); err == nil {
			mountFS(r, "/images", http.FS(images))
		}
	}
	if h.Uploads != nil {
		mountFS(r, cfg.Upload.PublicPath, h.Uploads)
	}

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled", "path", "/swagger/")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Auth.SignUp)
		r.Post("/signin", h.Auth.SignIn)
		r.With(h.Sessions.RequireAuth).Post("/signout", h.Auth.SignOut)
		r.With(h.Sessions.RequireAuth).Get("/me", h.Auth.Me)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", h.Dashboard.Data)
		r.With(h.Sessions.RequireAuth).Post("/user/upload-image", h.Profile.UploadImage)
	})

	r.Get("/", h.Pages.Root)
	r.Get("/signin", h.Pages.SignInForm)
	r.Post("/signin", h.Pages.SignIn)
	r.Get("/signup", h.Pages.SignUpForm)
	r.Post("/signup", h.Pages.SignUp)
	r.Post("/signout", h.Pages.SignOut)
	r.With(h.Sessions.LoadSession).Get("/dashboard", h.Pages.Dashboard)

	return r
}

func mountFS(r chi.Router, prefix string, fsys http.FileSystem) {
	fileServer := http.StripPrefix(prefix, http.FileServer(fsys))
	r.Get(prefix+"/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(w, r)
	})
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the service is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
