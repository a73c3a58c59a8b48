package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	_ "github.com/marsesrobotics/dashboard/docs" // Swagger docs (generated)
	"github.com/marsesrobotics/dashboard/internal/auth"
	"github.com/marsesrobotics/dashboard/internal/config"
	"github.com/marsesrobotics/dashboard/internal/dashboard"
	"github.com/marsesrobotics/dashboard/internal/database"
	httpServer "github.com/marsesrobotics/dashboard/internal/http"
	"github.com/marsesrobotics/dashboard/internal/logging"
	"github.com/marsesrobotics/dashboard/internal/profile"
	"github.com/marsesrobotics/dashboard/internal/ratelimit"
	"github.com/marsesrobotics/dashboard/internal/storage"
	"github.com/marsesrobotics/dashboard/internal/user"
	"github.com/marsesrobotics/dashboard/internal/web"
	"github.com/marsesrobotics/dashboard/templates"
)

// @title           Marses Robotics Dashboard API
// @version         1.0
// @description     Credential authentication, dashboard aggregates and profile pictures for the robotics services dashboard.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"user_store", cfg.Auth.UserStore,
		"token_format", cfg.Auth.TokenFormat,
	)

	ctx := context.Background()

	// MongoDB holds the dashboard collections and, by default, the users
	mongoDB, err := database.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		return fmt.Errorf("failed to initialize MongoDB: %w", err)
	}
	defer func() {
		if err := mongoDB.Close(context.Background()); err != nil {
			logger.Warn("failed to close MongoDB", "error", err)
		}
	}()

	userRepo, closeUsers, err := initUserStore(ctx, cfg, mongoDB, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize user store: %w", err)
	}
	defer closeUsers()

	redisClient := initRedis(ctx, cfg.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	rateLimiter := ratelimit.Disabled()
	var dashboardCache dashboard.Cache = dashboard.NoopCache{}
	if redisClient != nil {
		if cfg.RateLimit.Enabled {
			rateLimiter = ratelimit.NewLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
		dashboardCache = dashboard.NewRedisCache(redisClient, cfg.Dashboard.CacheTTL)
	} else if cfg.RateLimit.Enabled {
		logger.Warn("rate limiting requested but Redis is unavailable, continuing without it")
	}

	tokenService, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	avatarStorage, err := storage.New(ctx, cfg.Upload)
	if err != nil {
		return fmt.Errorf("failed to initialize upload storage: %w", err)
	}

	profileService := profile.NewService(avatarStorage, userRepo, cfg.Upload.MaxBytes)

	authService := auth.NewService(
		userRepo,
		auth.NewPasswordHasher(cfg.Auth.PasswordHash),
		tokenService,
		profileService,
		logger,
		cfg.Auth.SessionMaxAge,
		cfg.Upload.DefaultAvatar,
	)

	dashboardService := dashboard.NewService(
		dashboard.NewMongoRepository(mongoDB.Database()),
		dashboardCache,
		logger,
	)

	renderer, err := web.NewRenderer(templates.PagesFS)
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	staticFS, err := fs.Sub(templates.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("failed to open static assets: %w", err)
	}

	cookies := auth.NewSessionCookies(cfg.Auth.CookieName, !cfg.Server.IsDevelopment(), cfg.Auth.SessionMaxAge)
	sessions := auth.NewMiddleware(tokenService, cookies)

	handlers := httpServer.Handlers{
		Auth:       auth.NewHandler(authService, cookies, rateLimiter, logger, cfg.Upload.MaxBytes),
		Profile:    profile.NewHandler(profileService, cfg.Upload.MaxBytes),
		Dashboard:  dashboard.NewHandler(dashboardService),
		Pages:      web.NewHandler(renderer, authService, dashboardService, sessions, cookies, rateLimiter, cfg.Upload.MaxBytes),
		Sessions:   sessions,
		Gatekeeper: auth.NewGatekeeper(tokenService, cookies, cfg.Auth.PublicPrefixes),
		Static:     staticFS,
	}
	if local, ok := avatarStorage.(*storage.LocalStorage); ok {
		handlers.Uploads = http.Dir(local.Dir())
	}

	router := httpServer.NewRouter(cfg, handlers, logger)
	server := httpServer.NewServer(cfg.Server, router, logger)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initUserStore opens the repository selected by USER_STORE. The returned
// func releases whatever connection the store opened.
func initUserStore(ctx context.Context, cfg *config.Config, mongoDB *database.Mongo, logger *logging.Logger) (user.Repository, func(), error) {
	noop := func() {}

	switch cfg.Auth.UserStore {
	case config.UserStoreMongo:
		repo := user.NewMongoRepository(mongoDB.Database())
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, noop, err
		}
		return repo, noop, nil

	case config.UserStorePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		closeDB := func() { closeBun(db, logger) }
		if err := database.Migrate(ctx, db); err != nil {
			closeDB()
			return nil, noop, err
		}
		return user.NewPostgresRepository(db), closeDB, nil

	case config.UserStoreMemory:
		logger.Warn("using in-memory user store, accounts are lost on restart")
		return user.NewMemoryRepository(), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown user store %q", cfg.Auth.UserStore)
	}
}

func closeBun(db *bun.DB, logger *logging.Logger) {
	if err := db.Close(); err != nil {
		logger.Warn("failed to close PostgreSQL", "error", err)
	}
}

// initRedis returns nil when Redis is disabled or unreachable; the cache and
// rate limiter are optional.
func initRedis(ctx context.Context, cfg config.RedisConfig, logger *logging.Logger) *redis.Client {
	if !cfg.Enabled {
		return nil
	}

	client, err := database.NewRedis(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, dashboard cache and rate limiting disabled", "error", err)
		return nil
	}
	return client
}
