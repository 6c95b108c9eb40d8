package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

// ResetRecords deletes every stored record of one type together with the
// import batches that wrote them.
func (s *Store) ResetRecords(ctx context.Context, rt schema.RecordType) error {
	sch, err := schema.Lookup(rt)
	if err != nil {
		return err
	}
	t, err := tableFor(sch)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE "+quote(t.Name)); err != nil {
		return fmt.Errorf("truncate %s: %w", t.Name, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM imports WHERE record_type = $1`, string(rt)); err != nil {
		return fmt.Errorf("clear %s imports: %w", rt, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.Info("records reset", "record_type", rt, "table", t.Name)
	return nil
}
