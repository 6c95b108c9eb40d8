// Package store persists confirmed imports to PostgreSQL.
//
// Each confirmed batch gets a row in the imports table and its records are
// bulk-loaded with COPY inside one transaction, so a batch is either fully
// stored or not at all. Batches can later be rolled back by import ID.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/returnsdesk/internal/config"
	"github.com/JonMunkholm/returnsdesk/internal/core"
	"github.com/JonMunkholm/returnsdesk/internal/logging"
	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

// Connect opens and pings a connection pool.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

// Store writes records for every registered record type.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the imports table and one table per registered
// record type if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{createImportsSQL}
	for _, sch := range schema.All() {
		t, err := tableFor(sch)
		if err != nil {
			return err
		}
		stmts = append(stmts, t.createSQL()...)
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

const insertImportSQL = `INSERT INTO imports
	(id, record_type, session_id, file_name, row_count, ip_address, user_agent)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Persist stores records as one import batch and returns how many rows were
// written. Provenance is read from ctx (see WithSource).
func (s *Store) Persist(ctx context.Context, rt schema.RecordType, records []core.Record) (int, error) {
	sch, err := schema.Lookup(rt)
	if err != nil {
		return 0, err
	}
	t, err := tableFor(sch)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	for i, rec := range records {
		if _, err := core.DomainRecord(rt, rec); err != nil {
			return 0, fmt.Errorf("record %d: %w", i+1, err)
		}
	}

	start := time.Now()
	importID := uuid.New()
	src := SourceFromContext(ctx)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, insertImportSQL,
		toPgUUID(importID),
		string(rt),
		toPgText(src.SessionID),
		toPgText(src.FileName),
		len(records),
		toPgText(src.IPAddress),
		toPgText(src.UserAgent),
	); err != nil {
		return 0, fmt.Errorf("record import: %w", err)
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{t.Name},
		t.copyColumns(),
		pgx.CopyFromRows(t.rows(importID, records, uuid.New)),
	)
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", t.Name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	logging.FromContext(ctx).Info("records persisted",
		"import_id", importID,
		"table", t.Name,
		"rows", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return int(n), nil
}
