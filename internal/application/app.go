// Package application wires configuration into the services shared by the
// HTTP server and the returnsctl command.
package application

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/returnsdesk/internal/config"
	"github.com/JonMunkholm/returnsdesk/internal/mapping"
	"github.com/JonMunkholm/returnsdesk/internal/session"
	"github.com/JonMunkholm/returnsdesk/internal/sheet"
	"github.com/JonMunkholm/returnsdesk/internal/store"
)

// LoadEnv reads .env from the working directory if present. Values in the
// file overwrite variables already set in the environment.
func LoadEnv(files ...string) {
	if err := godotenv.Overload(files...); err != nil {
		slog.Debug("no .env file found, using environment variables")
		return
	}
	slog.Debug("loaded .env file (overwriting existing env vars)")
}

// SessionOptions builds per-session settings from the import config.
func SessionOptions(cfg config.ImportConfig) session.Options {
	return session.Options{
		Mapper:      mapping.Mapper{Threshold: cfg.MatchThreshold},
		ReadOptions: sheet.ReadOptions{MaxBytes: cfg.MaxFileSize},
		SampleRows:  cfg.SampleRows,
	}
}

// ManagerConfig builds the session manager settings.
func ManagerConfig(cfg *config.Config) session.ManagerConfig {
	return session.ManagerConfig{
		Session:       SessionOptions(cfg.Import),
		TTL:           cfg.Session.TTL,
		MaxConcurrent: cfg.Import.MaxConcurrentParses,
		MaxWait:       cfg.Import.ParseWaitTime,
	}
}

// App holds the database-backed services.
type App struct {
	Config   *config.Config
	Pool     *pgxpool.Pool
	Store    *store.Store
	Sessions *session.Manager
}

// Open connects to the database and makes sure every record table exists.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	st := store.New(pool)
	if err := st.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &App{
		Config:   cfg,
		Pool:     pool,
		Store:    st,
		Sessions: session.NewManager(ManagerConfig(cfg)),
	}, nil
}

// Close releases the connection pool.
func (a *App) Close() {
	a.Pool.Close()
}
