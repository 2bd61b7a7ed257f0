package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/budget-planner-bff/internal/config"
	"github.com/boddenberg/budget-planner-bff/internal/domain"
	"github.com/boddenberg/budget-planner-bff/internal/handler"
	"github.com/boddenberg/budget-planner-bff/internal/infra/cache"
	"github.com/boddenberg/budget-planner-bff/internal/infra/client"
	"github.com/boddenberg/budget-planner-bff/internal/infra/draftstore"
	"github.com/boddenberg/budget-planner-bff/internal/infra/observability"
	"github.com/boddenberg/budget-planner-bff/internal/infra/resilience"
	"github.com/boddenberg/budget-planner-bff/internal/port"
	"github.com/boddenberg/budget-planner-bff/internal/service"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "failed to read .env:", err)
	}

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger, err := observability.NewLogger(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("JWT_SECRET not set, using the development secret")
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("backend_api_url", cfg.BackendAPIURL),
		zap.String("draft_store", cfg.DraftStore),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(context.Background(), cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Draft store ---
	checks := map[string]handler.Pinger{}
	var store port.DraftStore
	switch cfg.DraftStore {
	case config.DraftStoreSQLite:
		db, err := draftstore.OpenSQLite(cfg.DraftDBPath, logger)
		if err != nil {
			logger.Fatal("failed to open draft store", zap.Error(err))
		}
		defer db.Close()
		store = db
		checks["draft-store"] = db
	default:
		logger.Warn("using in-memory draft store, drafts are lost on restart")
		store = draftstore.NewMemory()
	}
	store = draftstore.WithMetrics(store, metrics)

	// --- Cache ---
	categoryPages := cache.New[*domain.Page[domain.Category]](cfg.CacheTTL)
	defer categoryPages.Close()
	categorySubs := cache.New[*domain.CategoryWithSubs](cfg.CacheTTL)
	defer categorySubs.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("budget-backend",
		resilience.OnStateChange(func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}),
	)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	backend := client.NewBackendClient(httpClient, cfg.BackendAPIURL, cb, resilienceCfg, metrics, logger)
	checks["backend"] = backend

	// --- Services ---
	plannerSvc := service.NewPlannerService(store, backend, backend, metrics, logger, service.PlannerConfig{
		SessionTTL:   cfg.SessionTTL,
		PresetFanout: cfg.PresetFanout,
	})
	defer plannerSvc.Close()

	categorySvc := service.NewCategoryService(backend, categoryPages, categorySubs, metrics, logger)
	authSvc := service.NewAuthService(backend, cfg.JWTSecret, logger)
	dashboardSvc := service.NewDashboardService(backend, plannerSvc, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Planner:      plannerSvc,
		Categories:   categorySvc,
		Auth:         authSvc,
		Dashboard:    dashboardSvc,
		Checks:       checks,
		CookieSecure: cfg.CookieSecure,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
