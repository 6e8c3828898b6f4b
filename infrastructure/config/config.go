package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Token store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	RefreshTimeout time.Duration
	UserAgent      string

	DevMode     bool
	AdminUserID string

	TokenStore          string
	TokenFile           string
	TokenFilePassphrase string
	RedisURL            string
	DatabaseURL         string
	TokenNamespace      string

	LogLevel  string
	LogFormat string

	MetricsEnabled bool

	DevBackend DevBackendConfig
}

// DevBackendConfig configures the development fake backend.
type DevBackendConfig struct {
	Host            string
	Port            string
	JWTSecret       string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SeedEmail       string
	SeedPassword    string
}

func (c DevBackendConfig) Addr() string {
	return c.Host + ":" + c.Port
}

var (
	ErrMissingAPIURL       = errors.New("TOURNEY_API_URL is required")
	ErrInvalidAPIURL       = errors.New("TOURNEY_API_URL must be an absolute http(s) URL")
	ErrInvalidTimeout      = errors.New("invalid timeout format")
	ErrInvalidTokenStore   = errors.New("TOKEN_STORE must be one of memory, file, redis, postgres")
	ErrMissingTokenFile    = errors.New("TOKEN_FILE is required when TOKEN_STORE=file")
	ErrMissingRedisURL     = errors.New("REDIS_URL is required when TOKEN_STORE=redis")
	ErrMissingDatabaseURL  = errors.New("DATABASE_URL is required when TOKEN_STORE=postgres")
	ErrInvalidLogFormat    = errors.New("LOG_FORMAT must be json or text")
	ErrAdminOverrideNoUser = errors.New("ADMIN_USER_ID is required when DEV_MODE is enabled")
)

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds and validates a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		APIBaseURL:  strings.TrimRight(getEnvOrDefault("TOURNEY_API_URL", "http://localhost:8000"), "/"),
		UserAgent:   getEnvOrDefault("USER_AGENT", "tourney-client/1.0"),
		DevMode:     getEnvOrDefaultBool("DEV_MODE", false),
		AdminUserID: os.Getenv("ADMIN_USER_ID"),

		TokenStore:          strings.ToLower(getEnvOrDefault("TOKEN_STORE", StoreMemory)),
		TokenFile:           getEnvOrDefault("TOKEN_FILE", defaultTokenFile()),
		TokenFilePassphrase: os.Getenv("TOKEN_FILE_PASSPHRASE"),
		RedisURL:            os.Getenv("REDIS_URL"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		TokenNamespace:      getEnvOrDefault("TOKEN_NAMESPACE", "default"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text")),

		MetricsEnabled: getEnvOrDefaultBool("METRICS_ENABLED", false),

		DevBackend: DevBackendConfig{
			Host:          getEnvOrDefault("DEV_BACKEND_HOST", "localhost"),
			Port:          getEnvOrDefault("DEV_BACKEND_PORT", "8000"),
			JWTSecret:     getEnvOrDefault("DEV_BACKEND_JWT_SECRET", "dev-access-secret"),
			RefreshSecret: getEnvOrDefault("DEV_BACKEND_REFRESH_SECRET", "dev-refresh-secret"),
			SeedEmail:     os.Getenv("DEV_BACKEND_SEED_EMAIL"),
			SeedPassword:  os.Getenv("DEV_BACKEND_SEED_PASSWORD"),
		},
	}

	var err error
	if cfg.RequestTimeout, err = parseDuration(getEnvOrDefault("REQUEST_TIMEOUT", "30s")); err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT: %w", ErrInvalidTimeout)
	}
	if cfg.RefreshTimeout, err = parseDuration(getEnvOrDefault("REFRESH_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("REFRESH_TIMEOUT: %w", ErrInvalidTimeout)
	}
	if cfg.DevBackend.AccessTokenTTL, err = parseDuration(getEnvOrDefault("DEV_BACKEND_ACCESS_TOKEN_TTL", "900")); err != nil {
		return nil, fmt.Errorf("DEV_BACKEND_ACCESS_TOKEN_TTL: %w", ErrInvalidTimeout)
	}
	if cfg.DevBackend.RefreshTokenTTL, err = parseDuration(getEnvOrDefault("DEV_BACKEND_REFRESH_TOKEN_TTL", "604800")); err != nil {
		return nil, fmt.Errorf("DEV_BACKEND_REFRESH_TOKEN_TTL: %w", ErrInvalidTimeout)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrMissingAPIURL
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidAPIURL
	}

	if c.RequestTimeout <= 0 || c.RefreshTimeout <= 0 {
		return ErrInvalidTimeout
	}

	switch c.TokenStore {
	case StoreMemory:
	case StoreFile:
		if c.TokenFile == "" {
			return ErrMissingTokenFile
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return ErrMissingRedisURL
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	default:
		return ErrInvalidTokenStore
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return ErrInvalidLogFormat
	}

	if c.DevMode && c.AdminUserID == "" {
		return ErrAdminOverrideNoUser
	}
	return nil
}

// AdminOverride returns the user id sent on /admin requests, or "" outside
// dev mode.
func (c *Config) AdminOverride() string {
	if !c.DevMode {
		return ""
	}
	return c.AdminUserID
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// parseDuration accepts whole seconds ("30") or a Go duration ("1m30s").
func parseDuration(value string) (time.Duration, error) {
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(value)
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".tourney-session.json"
	}
	return dir + string(os.PathSeparator) + "tourney" + string(os.PathSeparator) + "session.json"
}
