// Command server runs the TR2B backend. One binary serves every deployment
// target: the storage backend is selected at startup and injected into the
// single dispatcher, instead of duplicating entrypoints per host.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ufukayyildiz/tocwtr2b/internal/config"
	"github.com/ufukayyildiz/tocwtr2b/internal/httpapi"
	"github.com/ufukayyildiz/tocwtr2b/internal/logging"
	"github.com/ufukayyildiz/tocwtr2b/internal/metrics"
	sessionmgr "github.com/ufukayyildiz/tocwtr2b/internal/session"
	"github.com/ufukayyildiz/tocwtr2b/internal/storage"
	"github.com/ufukayyildiz/tocwtr2b/internal/storage/memory"
	"github.com/ufukayyildiz/tocwtr2b/internal/storage/postgres"
	redisstore "github.com/ufukayyildiz/tocwtr2b/internal/storage/redis"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	logger := logging.New("server", cfg.LogLevel)

	adapter, cleanup, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.StorageBackend, err)
	}
	defer cleanup()

	// Resilience policy lives in one place: implicit per-call timeout and a
	// single retry on transient failure.
	store := storage.WithRetry(adapter, cfg.AdapterTimeout)

	sessions := sessionmgr.NewManager(store, cfg.SessionTTL, logger)
	tokens := sessionmgr.NewTokenIssuer(cfg.JWTSecret, "tocwtr2b")

	handler := httpapi.NewServer(httpapi.Config{
		Store:              store,
		Sessions:           sessions,
		Tokens:             tokens,
		Logger:             logger,
		Metrics:            metrics.New("tocwtr2b"),
		Environment:        cfg.Environment,
		ServiceName:        "tocwtr2b",
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).WithField("backend", cfg.StorageBackend).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown error")
	}
	logger.Info("server stopped")
}

// openStorage constructs the configured backend and returns it with its
// teardown function.
func openStorage(ctx context.Context, cfg config.Config) (storage.Adapter, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		store, err := redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case config.BackendPostgres:
		store, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	default:
		store := memory.New()
		store.StartJanitor(time.Minute)
		return store, store.StopJanitor, nil
	}
}
