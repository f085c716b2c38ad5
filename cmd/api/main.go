// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the NZELA HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire the session layer, services and HTTP handlers.
//  7. Provision the first superadmin and start the session sweeper.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	migrations "github.com/nzela/nzela-api/data/migrations"
	"github.com/nzela/nzela-api/internal/api"
	"github.com/nzela/nzela-api/internal/platform/config"
	"github.com/nzela/nzela-api/internal/platform/constants"
	"github.com/nzela/nzela-api/internal/platform/metrics"
	"github.com/nzela/nzela-api/internal/platform/migration"
	pgstore "github.com/nzela/nzela-api/internal/platform/postgres"
	redisstore "github.com/nzela/nzela-api/internal/platform/redis"
	"github.com/nzela/nzela-api/internal/platform/sec"
	"github.com/nzela/nzela-api/internal/system/audit"
	"github.com/nzela/nzela-api/internal/users/account"
	"github.com/nzela/nzela-api/internal/users/admin"
	"github.com/nzela/nzela-api/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", "nzela"))
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "nzela"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Duration("session_ttl", cfg.SessionTTL),
		slog.Bool("single_session", cfg.SessionSingle),
	)

	// A 30s deadline catches misconfiguration instead of hanging.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	var migrationFS fs.FS = migrations.FS
	if cfg.MigrationPath != "" {
		migrationFS = os.DirFS(cfg.MigrationPath)
	}
	must(log, migration.RunUp(cfg.DatabaseURL, migrationFS, log), "run migrations")

	// ── 6. Session Layer ──────────────────────────────────────────────────
	metrics.Register(prometheus.DefaultRegisterer)

	hasher := sec.NewPasswordHasher(cfg.BcryptCost)
	signer := sec.NewCookieSigner(cfg.SessionSecret, constants.SessionCookieIssuer)
	cookies := auth.NewSessionCookies(cfg.SessionCookieName, !cfg.IsDevelopment(), signer)

	users := auth.NewCredentialStore(pool)
	sessions := auth.NewSessionManager(
		auth.NewSessionRepository(pool),
		users,
		auth.NewActivityThrottle(rdb, cfg.ActivityTouchInterval),
		auth.SessionPolicy{
			TTL:          cfg.SessionTTL,
			Single:       cfg.SessionSingle,
			ExposeExpiry: cfg.ExposeSessionExpired,
		},
		log,
	)
	recorder := audit.NewRecorder(audit.NewPostgresSink(pool), log)

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	authService := auth.NewService(
		users,
		sessions,
		hasher,
		auth.NewLoginThrottle(rdb, cfg.LoginMaxFailures, cfg.LoginFailureWindow),
		recorder,
		log,
	)
	adminService := admin.NewService(users, sessions, hasher, recorder, log)
	accountService := account.NewService(users, sessions, hasher, account.NewAccountEraser(pool), recorder, log)

	if cfg.BootstrapEmail != "" && cfg.BootstrapPassword != "" {
		created, err := authService.EnsureSuperadmin(startupCtx, cfg.BootstrapEmail, cfg.BootstrapPassword)
		must(log, err, "bootstrap superadmin")
		if created {
			log.Warn("superadmin_bootstrapped", slog.String("email", cfg.BootstrapEmail))
		}
	}

	sweeper, err := auth.NewSweeper(sessions, cfg.SessionSweepSchedule, log)
	must(log, err, "schedule session sweep")
	sweeper.Start()

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService, cookies),
		Account:   account.NewHandler(accountService, cookies),
		Admin:     admin.NewHandler(adminService),
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, api.Security{
		Resolver:   sessions,
		Cookies:    signer,
		CookieName: cookies.Name(),
	}, handlers)

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	exitCode := 0
	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		exitCode = 1
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	sweeper.Stop(stopCtx)
	stopCancel()

	// Pending last-activity writes finish before the pool closes.
	sessions.Drain()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
	log.Info("server_stopped_cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
