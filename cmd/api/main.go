// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the autolist sync service.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Run database migrations (idempotent).
//  4. Wire the core (Postgres, Redis, marketplace, taxonomy, publish service).
//  5. Start the scheduler workers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/taibuivan/autolist/internal/api"
	"github.com/taibuivan/autolist/internal/app"
	"github.com/taibuivan/autolist/internal/core/publish"
	"github.com/taibuivan/autolist/internal/core/taxonomy"
	"github.com/taibuivan/autolist/internal/platform/config"
	"github.com/taibuivan/autolist/internal/platform/constants"
	"github.com/taibuivan/autolist/internal/platform/migration"
	pgstore "github.com/taibuivan/autolist/internal/platform/postgres"
	redisstore "github.com/taibuivan/autolist/internal/platform/redis"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("draft_only", cfg.Scheduler.DraftOnly),
	)

	// ── 3. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 4. Core wiring ────────────────────────────────────────────────────
	// A 30s deadline catches misconfiguration instead of hanging.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	core, err := app.New(startupCtx, cfg, log)
	startupCancel()
	must(log, err, "wire application")
	defer core.Close(context.Background())

	liveness, readiness := api.NewHealthHandlers(healthChecks(core), log)

	// ── 5. Scheduler ──────────────────────────────────────────────────────
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		core.Scheduler.Run(rootCtx)
	}()

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Records:   publish.NewHandler(core.Publisher),
		Taxonomy:  taxonomy.NewHandler(core.Resolver),
	}

	server := api.NewServer(rootCtx, cfg, log, handlers)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case <-rootCtx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
		stop()
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
	}

	workers.Wait()
	log.Info("server stopped cleanly")
}

// healthChecks lists readiness checks. Redis is checked only when configured.
func healthChecks(core *app.App) []api.Check {
	checks := []api.Check{
		{Name: "postgres", Ping: func(ctx context.Context) error {
			return pgstore.Ping(ctx, core.Pool)
		}},
		{Name: "taxonomy", Ping: func(context.Context) error {
			if core.Resolver.Catalog() == nil {
				return errors.New("feature catalog not loaded")
			}
			return nil
		}},
	}
	if core.Redis != nil {
		checks = append(checks, api.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return redisstore.Ping(ctx, core.Redis)
		}})
	}
	return checks
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
