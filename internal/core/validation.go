package core

// validation.go validates one spreadsheet row against a record schema.
//
// Validation happens in three passes:
//  1. Cell resolution: each schema field is located in the row, either through
//     an explicit column mapping or by matching the field's name or label
//  2. Field checks: required, coercion, length, pattern, then allowed values
//  3. Cross-field checks: the shipped/arrival date pair
//
// Data problems are reported as ValidationIssues, never as Go errors.
// A row is valid when it has no error-severity issues; warnings never block.

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JonMunkholm/returnsdesk/internal/coerce"
	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

// Row-level messages shared with callers and tests.
const (
	MsgEmptyRow          = "Row is completely empty"
	MsgArrivalBeforeShip = "Expected arrival cannot be before shipped date"
	MsgFutureShipDate    = "Shipped date is in the future"
)

// RowOutcome is the result of validating a single row.
type RowOutcome struct {
	Record   Record
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

// Valid reports whether the row can be imported.
func (o RowOutcome) Valid() bool {
	return len(o.Errors) == 0
}

// RowValidator validates rows against a schema.
//
// A nil mapping selects strict resolution: a field is read from the column
// whose header equals the field name or label, ignoring case. A non-nil
// mapping selects mapped resolution: only columns mapped to the field are read.
type RowValidator struct {
	schema schema.Schema
	now    func() time.Time
}

// NewRowValidator creates a validator for the given schema.
// now supplies "today" for future-date warnings; nil means time.Now.
func NewRowValidator(s schema.Schema, now func() time.Time) *RowValidator {
	if now == nil {
		now = time.Now
	}
	return &RowValidator{schema: s, now: now}
}

// ValidateRow validates one row. rowNum is the user-facing row number
// stamped on every issue.
func (v *RowValidator) ValidateRow(raw RawRow, rowNum int, mapping []ColumnMapping) RowOutcome {
	out := RowOutcome{Record: make(Record)}

	if rowIsEmpty(raw, mapping) {
		out.Errors = append(out.Errors, ValidationIssue{
			Row:      rowNum,
			Message:  MsgEmptyRow,
			Severity: SeverityError,
		})
		return out
	}

	var index map[string]string
	if mapping == nil {
		index = strictIndex(raw)
	}

	for _, f := range v.schema.Fields {
		var cell any
		if mapping == nil {
			cell = strictCell(raw, index, f)
		} else {
			cell = mappedCell(raw, mapping, f)
		}
		v.checkField(&out, rowNum, f, cell)
	}

	v.checkDates(&out, rowNum)

	return out
}

func (v *RowValidator) checkField(out *RowOutcome, rowNum int, f schema.FieldSpec, cell any) {
	fail := func(value, msg string) {
		out.Errors = append(out.Errors, ValidationIssue{
			Row: rowNum, Field: f.Name, Value: value, Message: msg, Severity: SeverityError,
		})
	}
	warn := func(value, msg string) {
		out.Warnings = append(out.Warnings, ValidationIssue{
			Row: rowNum, Field: f.Name, Value: value, Message: msg, Severity: SeverityWarning,
		})
	}

	text := strings.TrimSpace(coerce.Stringify(cell))
	value, ok := "", false
	if text != "" {
		value, ok = coerce.FieldAt(cell, f, v.now())
	}

	if !ok {
		switch {
		case text != "" && f.Type == schema.FieldDate:
			fail(text, fmt.Sprintf("Invalid date for %s: %q", f.Label, text))
		case text != "" && f.Type == schema.FieldEmail && f.Required:
			fail(text, fmt.Sprintf("%s is not a valid email address", f.Label))
		case text != "" && f.Type == schema.FieldEmail:
			// Unusable optional addresses are dropped.
		case f.Required:
			fail("", fmt.Sprintf("%s is required but missing", f.Label))
		default:
			if def, has := defaultValue(f); has {
				out.Record[f.Name] = def
			} else if f.Recommended {
				warn("", f.RecommendMessage)
			}
		}
		return
	}

	n := utf8.RuneCountInString(value)
	if f.MinLength > 0 && n < f.MinLength {
		fail(value, fmt.Sprintf("%s must be at least %d characters", f.Label, f.MinLength))
	}
	if f.MaxLength > 0 && n > f.MaxLength {
		fail(truncate(value, 50), fmt.Sprintf("%s must be at most %d characters", f.Label, f.MaxLength))
	}
	if f.Pattern != nil && !f.Pattern.MatchString(value) {
		fail(value, fmt.Sprintf("%s has an invalid format", f.Label))
	}
	if !f.Allows(value) {
		warn(value, fmt.Sprintf("%s %q is not a recognized value", f.Label, value))
	}

	out.Record[f.Name] = value
}

func (v *RowValidator) checkDates(out *RowOutcome, rowNum int) {
	if v.schema.ShippedField == "" {
		return
	}
	shipped, hasShipped := out.Record[v.schema.ShippedField]
	arrival, hasArrival := out.Record[v.schema.ArrivalField]

	// ISO dates order lexically.
	if hasShipped && hasArrival && arrival < shipped {
		out.Errors = append(out.Errors, ValidationIssue{
			Row:      rowNum,
			Field:    v.schema.ArrivalField,
			Value:    arrival,
			Message:  MsgArrivalBeforeShip,
			Severity: SeverityError,
		})
	}

	if hasShipped && shipped > v.now().Format("2006-01-02") {
		out.Warnings = append(out.Warnings, ValidationIssue{
			Row:      rowNum,
			Field:    v.schema.ShippedField,
			Value:    shipped,
			Message:  MsgFutureShipDate,
			Severity: SeverityWarning,
		})
	}
}

// defaultValue returns the value assigned to an empty optional field.
func defaultValue(f schema.FieldSpec) (string, bool) {
	switch f.Type {
	case schema.FieldStatus:
		lc := f.Lifecycle
		if lc == nil {
			lc = schema.ReturnLifecycle
		}
		return lc.Initial(), true
	case schema.FieldReason:
		return schema.DefaultReturnReason, true
	default:
		return "", false
	}
}

// rowIsEmpty reports whether a row carries no data. When at least one
// column is mapped only mapped columns count; otherwise every column does,
// so a sheet nothing could be matched against reports missing fields.
func rowIsEmpty(raw RawRow, mapping []ColumnMapping) bool {
	if !anyMapped(mapping) {
		for _, cell := range raw {
			if !coerce.IsBlank(cell) {
				return false
			}
		}
		return true
	}

	for _, m := range mapping {
		if m.Mapped() && !coerce.IsBlank(raw[m.OriginalName]) {
			return false
		}
	}
	return true
}

func anyMapped(mapping []ColumnMapping) bool {
	for _, m := range mapping {
		if m.Mapped() {
			return true
		}
	}
	return false
}

// mappedCell returns the first non-blank cell among the columns mapped to f.
func mappedCell(raw RawRow, mapping []ColumnMapping, f schema.FieldSpec) any {
	var first any
	found := false
	for _, m := range mapping {
		if m.MappedTo != f.Name {
			continue
		}
		cell := raw[m.OriginalName]
		if !coerce.IsBlank(cell) {
			return cell
		}
		if !found {
			first, found = cell, true
		}
	}
	return first
}

// strictIndex maps lowercased, trimmed headers to their original spelling.
// When two headers fold to the same key the lexically smaller one wins.
func strictIndex(raw RawRow) map[string]string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	idx := make(map[string]string, len(keys))
	for _, k := range keys {
		lk := strings.ToLower(strings.TrimSpace(k))
		if _, exists := idx[lk]; !exists {
			idx[lk] = k
		}
	}
	return idx
}

func strictCell(raw RawRow, index map[string]string, f schema.FieldSpec) any {
	for _, name := range []string{f.Name, f.Label} {
		if k, ok := index[strings.ToLower(name)]; ok {
			return raw[k]
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
