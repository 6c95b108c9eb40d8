package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

// ErrNilRow is returned when a batch contains a nil row. A nil row means
// the reader produced something other than a sheet, so no result is returned.
var ErrNilRow = errors.New("nil row in batch")

// BatchProcessor validates a sheet of rows into an ImportResult.
type BatchProcessor struct {
	Now func() time.Time
}

// Process validates rows with the default clock.
// See BatchProcessor.Process.
func Process(rows []RawRow, mapping []ColumnMapping, s schema.Schema) (*ImportResult, error) {
	return BatchProcessor{}.Process(rows, mapping, s)
}

// Process validates every row and partitions them into valid records and
// invalid rows, preserving input order. A nil mapping selects strict header
// lookup. The same input and clock always produce the same result.
func (p BatchProcessor) Process(rows []RawRow, mapping []ColumnMapping, s schema.Schema) (*ImportResult, error) {
	for i, row := range rows {
		if row == nil {
			return nil, fmt.Errorf("row %d: %w", RowNumber(i), ErrNilRow)
		}
	}

	v := NewRowValidator(s, p.Now)
	dups := newDuplicateTracker(s)

	result := &ImportResult{
		RecordType:   s.Type,
		TotalRows:    len(rows),
		ValidRecords: []Record{},
		ValidRows:    []int{},
		InvalidRows:  []InvalidRow{},
		Errors:       []ValidationIssue{},
		Warnings:     []ValidationIssue{},
	}

	for i, row := range rows {
		rowNum := RowNumber(i)
		outcome := v.ValidateRow(row, rowNum, mapping)

		if outcome.Valid() {
			if w, dup := dups.check(outcome.Record, rowNum); dup {
				outcome.Warnings = append(outcome.Warnings, w)
			}
		}

		result.Errors = append(result.Errors, outcome.Errors...)
		result.Warnings = append(result.Warnings, outcome.Warnings...)

		if outcome.Valid() {
			result.ValidRecords = append(result.ValidRecords, outcome.Record)
			result.ValidRows = append(result.ValidRows, rowNum)
			continue
		}

		result.InvalidRows = append(result.InvalidRows, InvalidRow{
			Row:    rowNum,
			Data:   row,
			Errors: outcome.Errors,
		})
	}

	return result, nil
}

// duplicateTracker reports valid rows whose unique key repeats an earlier valid row.
type duplicateTracker struct {
	fields []schema.FieldSpec
	seen   map[string]int
}

func newDuplicateTracker(s schema.Schema) *duplicateTracker {
	var fields []schema.FieldSpec
	for _, name := range s.UniqueKey {
		if f, ok := s.Field(name); ok {
			fields = append(fields, f)
		}
	}
	return &duplicateTracker{fields: fields, seen: make(map[string]int)}
}

func (d *duplicateTracker) check(rec Record, rowNum int) (ValidationIssue, bool) {
	if len(d.fields) == 0 {
		return ValidationIssue{}, false
	}

	parts := make([]string, len(d.fields))
	labels := make([]string, len(d.fields))
	for i, f := range d.fields {
		v, ok := rec[f.Name]
		if !ok {
			return ValidationIssue{}, false
		}
		parts[i] = strings.ToLower(v)
		labels[i] = f.Label
	}
	key := strings.Join(parts, "\x1f")

	first, exists := d.seen[key]
	if !exists {
		d.seen[key] = rowNum
		return ValidationIssue{}, false
	}

	return ValidationIssue{
		Row:      rowNum,
		Field:    d.fields[0].Name,
		Value:    rec[d.fields[0].Name],
		Message:  fmt.Sprintf("Duplicate of row %d (same %s)", first, strings.Join(labels, " and ")),
		Severity: SeverityWarning,
	}, true
}

// Summary returns the counters for the result.
func (r *ImportResult) Summary() ImportSummary {
	warned := make(map[int]bool)
	invalid := make(map[int]bool, len(r.InvalidRows))
	for _, ir := range r.InvalidRows {
		invalid[ir.Row] = true
	}
	for _, w := range r.Warnings {
		if !invalid[w.Row] {
			warned[w.Row] = true
		}
	}

	return ImportSummary{
		Total:    r.TotalRows,
		Valid:    len(r.ValidRecords),
		Invalid:  len(r.InvalidRows),
		Warned:   len(warned),
		Errors:   len(r.Errors),
		Warnings: len(r.Warnings),
	}
}

// IssuesByRow groups every error and warning by row number, ascending.
// Rows without issues are omitted.
func (r *ImportResult) IssuesByRow() []RowIssues {
	byRow := make(map[int]*RowIssues)
	get := func(row int) *RowIssues {
		ri, ok := byRow[row]
		if !ok {
			ri = &RowIssues{Row: row, Valid: true}
			byRow[row] = ri
		}
		return ri
	}

	for _, e := range r.Errors {
		ri := get(e.Row)
		ri.Valid = false
		ri.Errors = append(ri.Errors, e)
	}
	for _, w := range r.Warnings {
		ri := get(w.Row)
		ri.Warnings = append(ri.Warnings, w)
	}

	rows := make([]RowIssues, 0, len(byRow))
	for _, ri := range byRow {
		rows = append(rows, *ri)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Row < rows[j].Row })
	return rows
}
