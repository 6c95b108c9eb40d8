package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

var (
	ErrImportNotFound    = errors.New("import not found")
	ErrAlreadyRolledBack = errors.New("import already rolled back")
)

// Import statuses.
const (
	StatusCompleted  = "completed"
	StatusRolledBack = "rolled_back"
)

// ImportBatch is one persisted import.
type ImportBatch struct {
	ID           string            `json:"id"`
	RecordType   schema.RecordType `json:"record_type"`
	SessionID    string            `json:"session_id,omitempty"`
	FileName     string            `json:"file_name,omitempty"`
	RowCount     int               `json:"row_count"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	RolledBackAt *time.Time        `json:"rolled_back_at,omitempty"`
}

// RollbackResult reports what a rollback removed.
type RollbackResult struct {
	ImportID    string            `json:"import_id"`
	RecordType  schema.RecordType `json:"record_type"`
	RowsDeleted int64             `json:"rows_deleted"`
}

const listImportsSQL = `SELECT id, record_type, session_id, file_name, row_count, status, created_at, rolled_back_at
	FROM imports
	ORDER BY created_at DESC
	LIMIT $1`

// Imports returns the most recent batches, newest first.
func (s *Store) Imports(ctx context.Context, limit int) ([]ImportBatch, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, listImportsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	var out []ImportBatch
	for rows.Next() {
		var (
			id                  pgtype.UUID
			rt                  string
			sessionID, fileName pgtype.Text
			b                   ImportBatch
			rolledBack          pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &rt, &sessionID, &fileName, &b.RowCount, &b.Status, &b.CreatedAt, &rolledBack); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		b.ID = uuidString(id)
		b.RecordType = schema.RecordType(rt)
		b.SessionID = sessionID.String
		b.FileName = fileName.String
		if rolledBack.Valid {
			t := rolledBack.Time
			b.RolledBackAt = &t
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Rollback deletes every record written by an import and marks it rolled back.
func (s *Store) Rollback(ctx context.Context, importID string) (RollbackResult, error) {
	result := RollbackResult{ImportID: importID}

	id, err := parsePgUUID(importID)
	if err != nil {
		return result, fmt.Errorf("%w: invalid id %q", ErrImportNotFound, importID)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var rt, status string
	err = tx.QueryRow(ctx, `SELECT record_type, status FROM imports WHERE id = $1 FOR UPDATE`, id).Scan(&rt, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return result, fmt.Errorf("%w: %s", ErrImportNotFound, importID)
	}
	if err != nil {
		return result, fmt.Errorf("get import: %w", err)
	}
	result.RecordType = schema.RecordType(rt)

	if status == StatusRolledBack {
		return result, ErrAlreadyRolledBack
	}

	sch, err := schema.Lookup(result.RecordType)
	if err != nil {
		return result, err
	}
	t, err := tableFor(sch)
	if err != nil {
		return result, err
	}

	tag, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE import_id = $1", quote(t.Name)), id)
	if err != nil {
		return result, fmt.Errorf("delete records: %w", err)
	}
	result.RowsDeleted = tag.RowsAffected()

	if _, err := tx.Exec(ctx,
		`UPDATE imports SET status = $2, rolled_back_at = now() WHERE id = $1`,
		id, StatusRolledBack,
	); err != nil {
		return result, fmt.Errorf("mark rolled back: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

func uuidString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
