package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/covidboard/internal/config"
	"github.com/JonMunkholm/covidboard/internal/core"
	"github.com/JonMunkholm/covidboard/internal/country/handlers"
	"github.com/JonMunkholm/covidboard/internal/logging"
	"github.com/JonMunkholm/covidboard/internal/provider"
	"github.com/JonMunkholm/covidboard/internal/store"
	"github.com/JonMunkholm/covidboard/internal/web"
)

func main() {
	// Load .env file if it exists; real environment variables win
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := core.Options{
		Merge:                   cfg.Data.MergeOptions(),
		LoadTimeout:             cfg.Data.LoadTimeout,
		MaxConcurrentDispatches: cfg.Dispatch.MaxConcurrent,
		DispatchWait:            cfg.Dispatch.MaxWait,
	}

	// Postgres export is optional
	if cfg.Database.Enabled() {
		pool, err := store.Connect(ctx, store.PoolConfig{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		opts.Exporter = store.NewExporter(pool, cfg.Database.ExportTable, cfg.Database.KeepLoads)
	} else {
		slog.Info("DATABASE_URL not set, snapshot export disabled")
	}

	registry := handlers.NewRegistry()
	slog.Info("country modules registered", "count", registry.Len(), "labels", registry.Labels())

	service := core.NewService(provider.NewDir(cfg.Data.Dir, cfg.Data.Files()), registry, opts)

	// Initial load runs in the background; /api/health reports 503 until
	// it completes. A failed load can be retried via POST /api/reload.
	go func() {
		if _, err := service.Reload(core.ContextWithTrigger(ctx, core.TriggerStartup)); err != nil {
			slog.Error("initial load failed", "error", err, "user_message", core.FormatUserError(err))
		}
	}()

	go service.StartRefreshScheduler(ctx, cfg.Data.RefreshInterval)

	server := web.NewServer(ctx, service, cfg)

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		if err := service.WaitForDispatches(shutdownCtx); err != nil {
			slog.Warn("country modules did not finish in time", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-shutdownDone
	slog.Info("server stopped")
}
