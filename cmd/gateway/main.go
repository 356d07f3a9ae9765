// Package main is the entrypoint for the sharpjobs gateway server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/sharpjobs/internal/api"
	"github.com/kiranshivaraju/sharpjobs/internal/api/handler"
	mw "github.com/kiranshivaraju/sharpjobs/internal/api/middleware"
	"github.com/kiranshivaraju/sharpjobs/internal/cache"
	"github.com/kiranshivaraju/sharpjobs/internal/config"
	"github.com/kiranshivaraju/sharpjobs/internal/jobs"
	"github.com/kiranshivaraju/sharpjobs/internal/logging"
	"github.com/kiranshivaraju/sharpjobs/internal/poller"
	"github.com/kiranshivaraju/sharpjobs/internal/sharpapi"
	"github.com/kiranshivaraju/sharpjobs/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logging.Setup(os.Stdout, "info")

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateGateway(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup(os.Stdout, cfg.Server.LogLevel)
	logger.Info("config loaded", "env", cfg.Server.Env, "sharpapi_base_url", cfg.SharpAPI.BaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("redis connected")

	// 5. Create SharpAPI client and jobs service
	client, err := sharpapi.NewHTTPClient(cfg.SharpAPI)
	if err != nil {
		return fmt.Errorf("create sharpapi client: %w", err)
	}
	pgStore := store.NewPostgresStore(pool)

	policy := poller.PolicyFromConfig(cfg.Polling)
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("polling policy: %w", err)
	}
	svc := jobs.NewService(client,
		jobs.WithLedger(pgStore),
		jobs.WithCache(redisCache),
		jobs.WithPolicy(policy),
		jobs.WithLogger(logger),
	)

	// 6. Build router with dependencies
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      newRouter(cfg, pgStore, redisCache, svc),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(policy),
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

func newRouter(cfg *config.Config, st store.Store, c cache.Cache, svc *jobs.Service) http.Handler {
	return api.NewRouter(api.Dependencies{
		Auth:      mw.NewAuth(st),
		RateLimit: mw.NewRateLimit(c, cfg.Server.RateLimitPerMin),

		HealthHandler:    handler.NewHealthHandler(st, c),
		ListTasksHandler: handler.NewListTasksHandler(),
		SubmitJobHandler: handler.NewSubmitJobHandler(svc),
		ListJobsHandler:  handler.NewListJobsHandler(st),
		GetJobHandler:    handler.NewGetJobHandler(svc, st),
		PingHandler:      handler.NewPingHandler(svc),
		QuotaHandler:     handler.NewQuotaHandler(svc, c),
		CreateKeyHandler: handler.NewCreateKeyHandler(st),
		ListKeysHandler:  handler.NewListKeysHandler(st),
		RevokeKeyHandler: handler.NewRevokeKeyHandler(st),
	})
}

// writeTimeout leaves room for a GET /jobs/{id} that polls for the full
// policy wait.
func writeTimeout(p poller.Policy) time.Duration {
	return p.MaxWait + p.BaseInterval + 30*time.Second
}
