package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	linguagw "github.com/lingua-labs/lingua-gateway"
	"github.com/lingua-labs/lingua-gateway/internal/circuitbreaker"
	"github.com/lingua-labs/lingua-gateway/internal/detect"
	"github.com/lingua-labs/lingua-gateway/internal/glossary"
	"github.com/lingua-labs/lingua-gateway/internal/logging"
	"github.com/lingua-labs/lingua-gateway/internal/memory"
	"github.com/lingua-labs/lingua-gateway/internal/ratelimit"
	"github.com/lingua-labs/lingua-gateway/internal/requestlog"
	"github.com/lingua-labs/lingua-gateway/internal/version"
	"github.com/lingua-labs/lingua-gateway/providers"
)

func main() {
	logging.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stderr)
	log := slog.Default()

	cfg := linguagw.DefaultConfig()
	if path := os.Getenv("LINGUAGW_CONFIG"); path != "" {
		loaded, err := linguagw.LoadConfig(path)
		if err != nil {
			log.Error("failed to load config", "path", path, "error", err)
			os.Exit(1)
		}
		cfg = *loaded
		log.Info("config loaded", "path", path, "backend", cfg.Backend.Name)
	} else {
		// Env overrides still apply without a config file.
		if key := os.Getenv("INTERNAL_API_KEY"); key != "" {
			cfg.Auth.InternalAPIKey = key
		}
		if port := os.Getenv("PORT"); port != "" {
			cfg.Server.Addr = ":" + port
		}
	}
	if err := linguagw.ValidateConfig(cfg); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		log.Error("failed to initialize backend", "backend", cfg.Backend.Name, "error", err)
		os.Exit(1)
	}
	registry := providers.NewRegistry()
	registry.Register(provider)

	mem := memory.NewFileStore(cfg.Memory.Path, log)
	glossaries := glossary.NewStore(cfg.Glossary.Path, log)
	detector := detect.New(provider, cfg.Tiers.Free,
		cfg.Detection.DefaultSource, cfg.Detection.DefaultTarget,
		cfg.Detection.Timeout(), log)

	opts := []linguagw.Option{linguagw.WithLogger(log)}
	if bc := cfg.CircuitBreaker; bc != nil {
		cooldown, _ := time.ParseDuration(bc.Timeout)
		opts = append(opts, linguagw.WithBreaker(
			circuitbreaker.New(bc.FailureThreshold, bc.SuccessThreshold, cooldown)))
		log.Info("circuit breaker enabled",
			"failure_threshold", bc.FailureThreshold, "cooldown", bc.Timeout)
	}
	audit, err := buildAuditLog(cfg.RequestLog)
	if err != nil {
		log.Error("failed to open audit log", "error", err)
		os.Exit(1)
	}
	defer audit.Close()
	opts = append(opts, linguagw.WithAuditLog(audit))

	svc := linguagw.NewService(cfg, provider, mem, glossaries, detector, opts...)

	var limiter *ratelimit.Store
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = ratelimit.NewStore(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		go pruneLoop(limiter)
		log.Info("rate limiting enabled",
			"rps", cfg.RateLimit.RequestsPerSecond, "burst", cfg.RateLimit.Burst)
	}

	s := &server{svc: svc, cfg: cfg, registry: registry, limiter: limiter, log: log}
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown error", "error", err)
		}
	}()

	log.Info("LinguaGateway listening",
		"version", version.Short(), "addr", cfg.Server.Addr, "backend", provider.Name())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stop()
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// buildProvider constructs the configured collaborator backend.
func buildProvider(cfg linguagw.Config) (providers.Provider, error) {
	switch cfg.Backend.Name {
	case linguagw.BackendBedrock:
		return providers.NewBedrock(cfg.Backend.Region)
	default:
		return providers.NewOpenAI(os.Getenv("OPENAI_API_KEY"), cfg.Backend.BaseURL)
	}
}

// buildAuditLog constructs the configured audit writer. No driver and no
// DSN means the audit log is off.
func buildAuditLog(cfg linguagw.RequestLogConfig) (requestlog.Writer, error) {
	switch cfg.Driver {
	case "postgres":
		return requestlog.NewPostgresWriter(cfg.DSN)
	case "sqlite":
		return requestlog.NewSQLiteWriter(cfg.DSN)
	default:
		if cfg.DSN != "" {
			return requestlog.NewSQLiteWriter(cfg.DSN)
		}
		return requestlog.NoopWriter{}, nil
	}
}

// pruneLoop periodically drops idle rate-limit buckets.
func pruneLoop(limiter *ratelimit.Store) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		limiter.Prune(30 * time.Minute)
	}
}
