package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Draft store kinds.
const (
	DraftStoreMemory = "memory"
	DraftStoreSQLite = "sqlite"
)

// DefaultJWTSecret is only suitable for local development.
const DefaultJWTSecret = "budget-planner-dev-secret-change-me"

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Budgeting backend
	BackendAPIURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache & sessions
	CacheTTL   time.Duration
	SessionTTL time.Duration

	// Draft persistence
	DraftStore  string
	DraftDBPath string

	// Presets
	PresetFanout int

	// Observability
	OTLPEndpoint string
	ServiceName  string

	// JWT / Auth
	JWTSecret    string
	CookieSecure bool
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BackendAPIURL: getEnv("BACKEND_API_URL", "http://localhost:8081"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL:   getEnvDuration("CACHE_TTL", 5*time.Minute),
		SessionTTL: getEnvDuration("SESSION_TTL", 30*time.Minute),

		DraftStore:  strings.ToLower(getEnv("DRAFT_STORE", DraftStoreSQLite)),
		DraftDBPath: getEnv("DRAFT_DB_PATH", "data/drafts.db"),

		PresetFanout: getEnvInt("PRESET_FANOUT", 8),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "budget-planner-bff"),

		JWTSecret:    getEnv("JWT_SECRET", DefaultJWTSecret),
		CookieSecure: getEnvBool("COOKIE_SECURE", false),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if u, err := url.Parse(c.BackendAPIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("BACKEND_API_URL must be an absolute URL, got %q", c.BackendAPIURL))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, "HTTP_TIMEOUT must be positive")
	}
	if c.MaxRetries < 0 {
		errs = append(errs, "MAX_RETRIES must not be negative")
	}
	if c.MaxConcurrency < 1 {
		errs = append(errs, "MAX_CONCURRENCY must be at least 1")
	}
	if c.CacheTTL <= 0 || c.SessionTTL <= 0 {
		errs = append(errs, "CACHE_TTL and SESSION_TTL must be positive")
	}
	switch c.DraftStore {
	case DraftStoreMemory:
	case DraftStoreSQLite:
		if c.DraftDBPath == "" {
			errs = append(errs, "DRAFT_DB_PATH is required for the sqlite draft store")
		}
	default:
		errs = append(errs, fmt.Sprintf("DRAFT_STORE must be %q or %q, got %q", DraftStoreMemory, DraftStoreSQLite, c.DraftStore))
	}
	if c.PresetFanout < 1 {
		errs = append(errs, "PRESET_FANOUT must be at least 1")
	}
	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}

	if len(errs) > 0 {
		return errors.New("configuration validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
