package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/returnsdesk/internal/application"
	"github.com/JonMunkholm/returnsdesk/internal/config"
	"github.com/JonMunkholm/returnsdesk/internal/logging"
	"github.com/JonMunkholm/returnsdesk/internal/schema"
	"github.com/JonMunkholm/returnsdesk/internal/web"
)

func main() {
	application.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"max_concurrent_parses", cfg.Import.MaxConcurrentParses,
		"match_threshold", cfg.Import.MatchThreshold,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()
	app, err := application.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	slog.Info("record types registered", "types", schema.Types())

	server := web.NewServer(cfg, web.Deps{
		Sessions:  app.Sessions,
		Persister: app.Store,
		History:   app.Store,
	})

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go app.Sessions.StartSweeper(jobCtx, cfg.Session.SweepInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for files being decoded (with timeout)
		limiter := app.Sessions.Limiter()
		if active := limiter.ActiveCount(); active > 0 {
			slog.Info("waiting for uploads to finish parsing", "active", active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("uploads did not finish in time", "error", err)
			} else {
				slog.Info("all uploads parsed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
