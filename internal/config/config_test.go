package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "5000" {
		t.Fatalf("Port = %q, want 5000", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Fatalf("Environment = %q", cfg.Environment)
	}
	if cfg.StorageBackend != BackendMemory {
		t.Fatalf("StorageBackend = %q, want memory", cfg.StorageBackend)
	}
	if cfg.SessionTTL != time.Hour {
		t.Fatalf("SessionTTL = %v, want 1h", cfg.SessionTTL)
	}
	if cfg.AdapterTimeout != 2*time.Second {
		t.Fatalf("AdapterTimeout = %v, want 2s", cfg.AdapterTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SESSION_TTL", "90s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_RPS", "5")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.StorageBackend != BackendRedis {
		t.Fatalf("backend selector must be case-insensitive, got %q", cfg.StorageBackend)
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("RedisDB = %d", cfg.RedisDB)
	}
	if cfg.SessionTTL != 90*time.Second {
		t.Fatalf("SessionTTL = %v", cfg.SessionTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 5 {
		t.Fatalf("RateLimitRPS = %d", cfg.RateLimitRPS)
	}
}

func TestLoadBareSecondsAndBadValues(t *testing.T) {
	t.Setenv("SESSION_TTL", "120")
	t.Setenv("ADAPTER_TIMEOUT", "garbage")
	t.Setenv("RATE_LIMIT_RPS", "not-a-number")

	cfg := Load()

	if cfg.SessionTTL != 120*time.Second {
		t.Fatalf("bare TTL = %v, want 120s", cfg.SessionTTL)
	}
	if cfg.AdapterTimeout != 2*time.Second {
		t.Fatalf("bad duration must fall back, got %v", cfg.AdapterTimeout)
	}
	if cfg.RateLimitRPS != 50 {
		t.Fatalf("bad int must fall back, got %d", cfg.RateLimitRPS)
	}
}
