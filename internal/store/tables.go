package store

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/returnsdesk/internal/core"
	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

type columnKind int

const (
	kindText columnKind = iota
	kindDate
	kindNumeric
)

func (k columnKind) sqlType() string {
	switch k {
	case kindDate:
		return "DATE"
	case kindNumeric:
		return "NUMERIC(14,2)"
	default:
		return "TEXT"
	}
}

type column struct {
	Field string
	Name  string
	Kind  columnKind
}

// table is the database layout for one record type.
type table struct {
	Name      string
	Columns   []column
	UniqueKey []string // Column names
}

var tableNames = map[schema.RecordType]string{
	schema.ReturnedPart: "returned_parts",
	schema.Order:        "orders",
}

// numericFields are stored as NUMERIC rather than TEXT.
var numericFields = map[string]bool{
	"orderTotal": true,
}

// tableFor derives the table layout from a schema. Every field gets a
// column named in snake_case.
func tableFor(s schema.Schema) (table, error) {
	name, ok := tableNames[s.Type]
	if !ok {
		return table{}, fmt.Errorf("%w: no table for %q", schema.ErrUnknownRecordType, s.Type)
	}

	t := table{Name: name, Columns: make([]column, len(s.Fields))}
	for i, f := range s.Fields {
		kind := kindText
		switch {
		case f.Type == schema.FieldDate:
			kind = kindDate
		case numericFields[f.Name]:
			kind = kindNumeric
		}
		t.Columns[i] = column{Field: f.Name, Name: columnName(f.Name), Kind: kind}
	}
	for _, k := range s.UniqueKey {
		t.UniqueKey = append(t.UniqueKey, columnName(k))
	}
	return t, nil
}

// columnName converts a camelCase field name to snake_case.
func columnName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

const createImportsSQL = `CREATE TABLE IF NOT EXISTS imports (
	id UUID PRIMARY KEY,
	record_type TEXT NOT NULL,
	session_id TEXT,
	file_name TEXT,
	row_count INTEGER NOT NULL,
	status TEXT NOT NULL DEFAULT 'completed',
	ip_address TEXT,
	user_agent TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	rolled_back_at TIMESTAMPTZ
)`

// createSQL returns the statements that create the table and its indexes.
// The unique key is enforced case-insensitively.
func (t table) createSQL() []string {
	defs := []string{
		"id UUID PRIMARY KEY",
		"import_id UUID NOT NULL REFERENCES imports(id) ON DELETE CASCADE",
	}
	for _, c := range t.Columns {
		defs = append(defs, quote(c.Name)+" "+c.Kind.sqlType())
	}
	defs = append(defs, "created_at TIMESTAMPTZ NOT NULL DEFAULT now()")

	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", quote(t.Name), strings.Join(defs, ",\n\t")),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (import_id)",
			quote(t.Name+"_import_id_idx"), quote(t.Name)),
	}

	if len(t.UniqueKey) > 0 {
		keys := make([]string, len(t.UniqueKey))
		for i, k := range t.UniqueKey {
			keys[i] = "lower(" + quote(k) + ")"
		}
		stmts = append(stmts, fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)",
			quote(t.Name+"_unique_key_idx"), quote(t.Name), strings.Join(keys, ", ")))
	}
	return stmts
}

// copyColumns lists the columns written by COPY, in row order.
func (t table) copyColumns() []string {
	cols := make([]string, 0, len(t.Columns)+2)
	cols = append(cols, "id", "import_id")
	for _, c := range t.Columns {
		cols = append(cols, c.Name)
	}
	return cols
}

// rows converts records to COPY rows matching copyColumns.
func (t table) rows(importID uuid.UUID, records []core.Record, newID func() uuid.UUID) [][]any {
	out := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, 0, len(t.Columns)+2)
		row = append(row, toPgUUID(newID()), toPgUUID(importID))
		for _, c := range t.Columns {
			v := rec[c.Field]
			switch c.Kind {
			case kindDate:
				row = append(row, toPgDate(v))
			case kindNumeric:
				row = append(row, toPgNumeric(v))
			default:
				row = append(row, toPgText(v))
			}
		}
		out[i] = row
	}
	return out
}
