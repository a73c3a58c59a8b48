package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	UserStoreMongo    = "mongo"
	UserStorePostgres = "postgres"
	UserStoreMemory   = "memory"

	UploadBackendLocal = "local"
	UploadBackendS3    = "s3"

	TokenFormatJWT    = "jwt"
	TokenFormatPaseto = "paseto"

	PasswordHashArgon2id = "argon2id"
	PasswordHashBcrypt   = "bcrypt"

	minAuthSecretLen = 32
)

type Config struct {
	Server    ServerConfig
	Mongo     MongoConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Upload    UploadConfig
	Dashboard DashboardConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins for cookie auth
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// DatabaseConfig is only used when USER_STORE=postgres.
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	ChannelBinding string // "require" for Neon DB, empty for local
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	// Secret shared by token issuance and verification (AUTH_SECRET)
	Secret         []byte
	TokenFormat    string
	SessionMaxAge  time.Duration
	PasswordHash   string
	CookieName     string
	UserStore      string
	PublicPrefixes []string
}

type UploadConfig struct {
	Backend       string
	Dir           string
	PublicPath    string
	MaxBytes      int64
	DefaultAvatar string

	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string
}

type DashboardConfig struct {
	CacheTTL time.Duration
}

type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "dashboard"),
			ConnectTimeout: getDurationEnv("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "dashboard"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			ChannelBinding: getEnv("DB_CHANNEL_BINDING", ""),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Secret:        []byte(getEnv("AUTH_SECRET", "")),
			TokenFormat:   getEnv("AUTH_TOKEN_FORMAT", TokenFormatJWT),
			SessionMaxAge: getDurationEnv("AUTH_SESSION_MAX_AGE", 30*24*time.Hour),
			PasswordHash:  getEnv("PASSWORD_HASH", PasswordHashArgon2id),
			CookieName:    getEnv("AUTH_COOKIE_NAME", "session_token"),
			UserStore:     getEnv("USER_STORE", UserStoreMongo),
			PublicPrefixes: getSliceEnv("AUTH_PUBLIC_PATHS", []string{
				"/auth", "/api", "/static", "/uploads", "/images",
				"/favicon.ico", "/signin", "/signup", "/health", "/swagger",
			}),
		},
		Upload: UploadConfig{
			Backend:         getEnv("UPLOAD_BACKEND", UploadBackendLocal),
			Dir:             getEnv("UPLOAD_DIR", "public/uploads"),
			PublicPath:      getEnv("UPLOAD_PUBLIC_PATH", "/uploads"),
			MaxBytes:        getInt64Env("UPLOAD_MAX_BYTES", 5<<20),
			DefaultAvatar:   getEnv("DEFAULT_AVATAR", "/images/default-avatar.png"),
			S3Bucket:        getEnv("S3_BUCKET", ""),
			S3Region:        getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:      getEnv("S3_ENDPOINT", ""),
			S3AccessKey:     getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:     getEnv("S3_SECRET_KEY", ""),
			S3PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
		},
		Dashboard: DashboardConfig{
			CacheTTL: getDurationEnv("DASHBOARD_CACHE_TTL", 60*time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getBoolEnv("RATE_LIMIT_ENABLED", false),
			Requests: getIntEnv("RATE_LIMIT_REQUESTS", 10),
			Window:   getDurationEnv("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	if len(c.Auth.Secret) < minAuthSecretLen {
		return fmt.Errorf("AUTH_SECRET must be at least %d bytes, got %d", minAuthSecretLen, len(c.Auth.Secret))
	}

	switch c.Auth.TokenFormat {
	case TokenFormatJWT, TokenFormatPaseto:
	default:
		return fmt.Errorf("AUTH_TOKEN_FORMAT must be %q or %q, got %q", TokenFormatJWT, TokenFormatPaseto, c.Auth.TokenFormat)
	}

	switch c.Auth.PasswordHash {
	case PasswordHashArgon2id, PasswordHashBcrypt:
	default:
		return fmt.Errorf("PASSWORD_HASH must be %q or %q, got %q", PasswordHashArgon2id, PasswordHashBcrypt, c.Auth.PasswordHash)
	}

	switch c.Auth.UserStore {
	case UserStoreMongo, UserStorePostgres, UserStoreMemory:
	default:
		return fmt.Errorf("USER_STORE must be one of mongo, postgres, memory, got %q", c.Auth.UserStore)
	}

	if c.Auth.SessionMaxAge <= 0 {
		return fmt.Errorf("AUTH_SESSION_MAX_AGE must be positive")
	}

	switch c.Upload.Backend {
	case UploadBackendLocal:
	case UploadBackendS3:
		if c.Upload.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when UPLOAD_BACKEND=s3")
		}
	default:
		return fmt.Errorf("UPLOAD_BACKEND must be %q or %q, got %q", UploadBackendLocal, UploadBackendS3, c.Upload.Backend)
	}

	if c.RateLimit.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("RATE_LIMIT_ENABLED requires REDIS_ENABLED")
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

// getDurationEnv reads a whole number of seconds.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Split by comma and trim whitespace
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
