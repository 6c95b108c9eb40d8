// Package admin provides administrative operations for database management.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

// ResetTimeout is the maximum duration for database reset operations.
const ResetTimeout = 30 * time.Second

// Resetter clears the stored records of one record type.
type Resetter interface {
	ResetRecords(ctx context.Context, rt schema.RecordType) error
}

// ResetAll clears every registered record type in registry order and
// returns the types that were reset. It stops at the first failure.
// This is a destructive operation - use with caution.
func ResetAll(ctx context.Context, r Resetter) ([]schema.RecordType, error) {
	return Reset(ctx, r, schema.Types()...)
}

// Reset clears the given record types within ResetTimeout.
func Reset(ctx context.Context, r Resetter, types ...schema.RecordType) ([]schema.RecordType, error) {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	done := make([]schema.RecordType, 0, len(types))
	for _, rt := range types {
		if _, err := schema.Lookup(rt); err != nil {
			return done, err
		}
		if err := r.ResetRecords(ctx, rt); err != nil {
			return done, fmt.Errorf("reset %s: %w", rt, err)
		}
		done = append(done, rt)
	}
	return done, nil
}
