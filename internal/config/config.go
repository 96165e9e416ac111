// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend selectors.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config is the flat environment-derived service configuration. One Config
// drives every deployment target; the storage backend is a runtime
// selector, not a build-time choice.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	StorageBackend string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	DatabaseURL    string

	SessionTTL     time.Duration
	AdapterTimeout time.Duration
	JWTSecret      string

	CORSAllowedOrigins []string
	RateLimitRPS       int
	RateLimitBurst     int
}

// Load reads configuration from the environment, consulting a local .env
// file first when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:        envOr("PORT", "5000"),
		Environment: envOr("NODE_ENV", "development"),
		LogLevel:    envOr("LOG_LEVEL", "info"),

		StorageBackend: strings.ToLower(envOr("STORAGE_BACKEND", BackendMemory)),
		RedisAddr:      envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        envInt("REDIS_DB", 0),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		SessionTTL:     envDuration("SESSION_TTL", 3600*time.Second),
		AdapterTimeout: envDuration("ADAPTER_TIMEOUT", 2*time.Second),
		JWTSecret:      envOr("JWT_SECRET", "tr2b-dev-secret"),

		CORSAllowedOrigins: splitCSV(envOr("CORS_ALLOWED_ORIGINS", "*")),
		RateLimitRPS:       envInt("RATE_LIMIT_RPS", 50),
		RateLimitBurst:     envInt("RATE_LIMIT_BURST", 100),
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	// Bare numbers are seconds.
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
