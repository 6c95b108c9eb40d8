package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/returnsdesk/internal/core"
	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

func mustSchema(t *testing.T, rt schema.RecordType) schema.Schema {
	t.Helper()
	s, err := schema.Lookup(rt)
	require.NoError(t, err)
	return s
}

func TestColumnName(t *testing.T) {
	tests := map[string]string{
		"partName":        "part_name",
		"expectedArrival": "expected_arrival",
		"notes":           "notes",
		"orderTotal":      "order_total",
	}
	for in, want := range tests {
		assert.Equal(t, want, columnName(in), in)
	}
}

func TestTableFor_EveryRegisteredSchema(t *testing.T) {
	for _, s := range schema.All() {
		tbl, err := tableFor(s)
		require.NoError(t, err, s.Type)

		assert.Len(t, tbl.Columns, len(s.Fields))
		assert.Len(t, tbl.UniqueKey, len(s.UniqueKey))
		assert.Equal(t, len(s.Fields)+2, len(tbl.copyColumns()))
	}
}

func TestTableFor_ColumnKinds(t *testing.T) {
	tbl, err := tableFor(mustSchema(t, schema.Order))
	require.NoError(t, err)

	kinds := map[string]columnKind{}
	for _, c := range tbl.Columns {
		kinds[c.Field] = c.Kind
	}
	assert.Equal(t, kindDate, kinds["orderDate"])
	assert.Equal(t, kindNumeric, kinds["orderTotal"])
	assert.Equal(t, kindText, kinds["customerEmail"])
}

func TestTableFor_UnknownType(t *testing.T) {
	_, err := tableFor(schema.Schema{Type: "invoice"})
	assert.ErrorIs(t, err, schema.ErrUnknownRecordType)
}

func TestCreateSQL(t *testing.T) {
	tbl, err := tableFor(mustSchema(t, schema.ReturnedPart))
	require.NoError(t, err)

	stmts := tbl.createSQL()
	require.Len(t, stmts, 3)
	assert.Contains(t, stmts[0], `CREATE TABLE IF NOT EXISTS "returned_parts"`)
	assert.Contains(t, stmts[0], `"shipped_date" DATE`)
	assert.Contains(t, stmts[0], `"part_name" TEXT`)
	assert.Contains(t, stmts[0], "REFERENCES imports(id)")
	assert.True(t, strings.HasSuffix(stmts[2], `(lower("part_number"), lower("order_number"))`), stmts[2])
}

func TestRows(t *testing.T) {
	tbl, err := tableFor(mustSchema(t, schema.Order))
	require.NoError(t, err)

	importID := uuid.New()
	rowID := uuid.New()
	records := []core.Record{{
		"orderNumber":  "SO-1",
		"customerName": "Acme Co",
		"orderDate":    "2024-01-15",
		"orderTotal":   "$1,249.00",
	}}

	rows := tbl.rows(importID, records, func() uuid.UUID { return rowID })
	require.Len(t, rows, 1)
	row := rows[0]
	require.Len(t, row, len(tbl.copyColumns()))

	assert.Equal(t, pgtype.UUID{Bytes: rowID, Valid: true}, row[0])
	assert.Equal(t, pgtype.UUID{Bytes: importID, Valid: true}, row[1])

	byCol := map[string]any{}
	for i, c := range tbl.copyColumns() {
		byCol[c] = row[i]
	}
	assert.Equal(t, pgtype.Text{String: "SO-1", Valid: true}, byCol["order_number"])
	assert.Equal(t, pgtype.Date{Time: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Valid: true}, byCol["order_date"])
	assert.Equal(t, pgtype.Text{}, byCol["notes"])

	total, ok := byCol["order_total"].(pgtype.Numeric)
	require.True(t, ok)
	assert.True(t, total.Valid)
}

func TestToPgNumeric(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"1249.00", true},
		{"$1,249.00", true},
		{"(15.50)", true},
		{"-3", true},
		{"", false},
		{"twelve", false},
		{"1.2.3", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, toPgNumeric(tt.in).Valid, tt.in)
	}

	f, err := toPgNumeric("(15.50)").Float64Value()
	require.NoError(t, err)
	assert.Equal(t, -15.5, f.Float64)
}

func TestToPgDate(t *testing.T) {
	assert.True(t, toPgDate("2024-01-15").Valid)
	assert.False(t, toPgDate("01/15/2024").Valid)
	assert.False(t, toPgDate(" ").Valid)
}

func TestToPgText(t *testing.T) {
	assert.Equal(t, pgtype.Text{String: "x", Valid: true}, toPgText(" x "))
	assert.False(t, toPgText("   ").Valid)
}

func TestUUIDRoundTrip(t *testing.T) {
	id := uuid.New()
	pg, err := parsePgUUID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id.String(), uuidString(pg))

	_, err = parsePgUUID("not-a-uuid")
	assert.Error(t, err)
	assert.Equal(t, "", uuidString(pgtype.UUID{}))
}

func TestWithSource(t *testing.T) {
	ctx := WithSource(context.Background(), Source{IPAddress: "10.0.0.1", UserAgent: "curl"})
	ctx = WithSource(ctx, Source{SessionID: "s-1", FileName: "returns.xlsx"})

	assert.Equal(t, Source{
		SessionID: "s-1",
		FileName:  "returns.xlsx",
		IPAddress: "10.0.0.1",
		UserAgent: "curl",
	}, SourceFromContext(ctx))

	assert.Equal(t, Source{}, SourceFromContext(context.Background()))
}
