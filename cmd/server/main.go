package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"mastergate/internal/config"
	"mastergate/internal/core"
	"mastergate/internal/inspect"
	"mastergate/internal/inspect/dlp"
	"mastergate/internal/inspect/semantic"
	"mastergate/internal/logging"
	"mastergate/internal/registry"
	"mastergate/internal/store"
	"mastergate/internal/warehouse"
	"mastergate/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"audit_enabled", cfg.Audit.Enabled,
	)

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	// Connect to database
	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		dbName := strings.TrimPrefix(u.Path, "/")
		slog.Info("connected to database", "name", dbName)
	} else {
		slog.Info("connected to database")
	}

	// Schema registry backed by PostgreSQL, warmed once at startup
	schemaStore, err := store.New(ctx, pool)
	if err != nil {
		slog.Error("failed to create schema store", "error", err)
		os.Exit(1)
	}
	reg := registry.New(schemaStore)
	reg.Initialize(ctx)

	// Inspection engine; external collaborators are optional
	var checkers []inspect.Checker
	if cfg.Inspection.DetectorURL != "" {
		detector := dlp.NewClient(cfg.Inspection.DetectorURL, cfg.Inspection.CallTimeout)
		checkers = append(checkers, inspect.NewSensitiveDataChecker(detector))
		slog.Info("sensitive-data checker enabled", "url", cfg.Inspection.DetectorURL)
	} else {
		slog.Warn("INSPECTION_DETECTOR_URL not set; sensitive-data checking is disabled")
	}

	var classifier inspect.Classifier
	if cfg.Inspection.ClassifierURL != "" {
		classifier = semantic.NewClient(cfg.Inspection.ClassifierURL, cfg.Inspection.CallTimeout)
		slog.Info("semantic classifier enabled", "url", cfg.Inspection.ClassifierURL)
	}
	checkers = append(checkers, inspect.NewConformanceChecker(classifier))

	engine := inspect.NewEngine(checkers...)

	// Audit log (optional)
	var audit *core.AuditLog
	if cfg.Audit.Enabled {
		audit, err = core.NewAuditLog(ctx, pool)
		if err != nil {
			slog.Error("failed to create audit log", "error", err)
			os.Exit(1)
		}
	}

	service := core.NewService(reg, warehouse.NewPostgres(pool), engine, audit)

	server := web.NewServer(service, audit, pool, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	if audit != nil {
		go audit.StartSweeper(jobCtx, core.SweeperConfig{
			RetentionDays: cfg.Audit.RetentionDays,
			BatchSize:     cfg.Audit.BatchSize,
			CheckInterval: cfg.Audit.CheckInterval,
		})
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
