package core

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

var fixedNow = func() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func returnedParts(t *testing.T) schema.Schema {
	t.Helper()
	s, ok := schema.Get(schema.ReturnedPart)
	require.True(t, ok)
	return s
}

// identityMapping maps every header to the field of the same name.
func identityMapping(headers ...string) []ColumnMapping {
	m := make([]ColumnMapping, len(headers))
	for i, h := range headers {
		m[i] = ColumnMapping{OriginalName: h, MappedTo: h, Confidence: 1}
	}
	return m
}

func completeRow() RawRow {
	return RawRow{
		"partName":        "Hydraulic Pump Seal",
		"partNumber":      "HP-2210",
		"customerName":    "Acme Fabrication",
		"orderNumber":     "SO-10482",
		"trackingNumber":  "1Z999",
		"shippedDate":     "2024-01-15",
		"expectedArrival": "2024-01-19",
	}
}

func messages(issues []ValidationIssue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Message
	}
	return out
}

// ----------------------------------------------------------------------------
// Required and empty
// ----------------------------------------------------------------------------

func TestValidateRow_CompleteRow(t *testing.T) {
	v := NewRowValidator(returnedParts(t), fixedNow)
	out := v.ValidateRow(completeRow(), 2, nil)

	assert.True(t, out.Valid())
	assert.Empty(t, out.Warnings)
	assert.Equal(t, "HP-2210", out.Record["partNumber"])
	assert.Equal(t, "shipped", out.Record["status"])
	assert.Equal(t, "Customer Return", out.Record["returnReason"])
	assert.Equal(t, "2024-01-15", out.Record["shippedDate"])
}

func TestValidateRow_MissingRequired(t *testing.T) {
	row := completeRow()
	row["partName"] = "   "
	delete(row, "orderNumber")

	v := NewRowValidator(returnedParts(t), fixedNow)
	out := v.ValidateRow(row, 5, nil)

	require.False(t, out.Valid())
	assert.Equal(t, []string{
		"Part Name is required but missing",
		"Order Number is required but missing",
	}, messages(out.Errors))
	for _, e := range out.Errors {
		assert.Equal(t, 5, e.Row)
		assert.Equal(t, SeverityError, e.Severity)
	}
	assert.Equal(t, "partName", out.Errors[0].Field)
}

func TestValidateRow_EmptyRow(t *testing.T) {
	tests := []struct {
		name    string
		row     RawRow
		mapping []ColumnMapping
	}{
		{"strict all blank", RawRow{"partName": "", "notes": "  ", "extra": nil}, nil},
		{"strict no cells", RawRow{}, nil},
		{
			name:    "mapped cells blank, unmapped filled",
			row:     RawRow{"partName": " ", "Internal ID": "8812"},
			mapping: []ColumnMapping{{OriginalName: "partName", MappedTo: "partName"}, {OriginalName: "Internal ID"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewRowValidator(returnedParts(t), fixedNow)
			out := v.ValidateRow(tt.row, 9, tt.mapping)

			require.Len(t, out.Errors, 1)
			assert.True(t, strings.EqualFold(out.Errors[0].Message, "row is completely empty"))
			assert.Equal(t, 9, out.Errors[0].Row)
			assert.Empty(t, out.Warnings)
		})
	}
}

func TestValidateRow_NothingMappedReportsMissingFields(t *testing.T) {
	row := RawRow{"Foo Bar": "Brake Pad", "Qwerty Zzz": "BP-1"}
	mapping := []ColumnMapping{{OriginalName: "Foo Bar"}, {OriginalName: "Qwerty Zzz"}}

	out := NewRowValidator(returnedParts(t), fixedNow).ValidateRow(row, 2, mapping)

	require.False(t, out.Valid())
	assert.NotContains(t, messages(out.Errors), MsgEmptyRow)
	assert.Equal(t, []string{
		"Part Name is required but missing",
		"Part Number is required but missing",
		"Customer Name is required but missing",
		"Order Number is required but missing",
	}, messages(out.Errors))
}

func TestValidateRow_NothingMappedBlankRowIsEmpty(t *testing.T) {
	row := RawRow{"Foo Bar": " ", "Qwerty Zzz": ""}
	mapping := []ColumnMapping{{OriginalName: "Foo Bar"}, {OriginalName: "Qwerty Zzz"}}

	out := NewRowValidator(returnedParts(t), fixedNow).ValidateRow(row, 2, mapping)

	assert.Equal(t, []string{MsgEmptyRow}, messages(out.Errors))
}

// ----------------------------------------------------------------------------
// Coercion and constraints
// ----------------------------------------------------------------------------

func TestValidateRow_Coercion(t *testing.T) {
	row := completeRow()
	row["shippedDate"] = 45306.0
	row["expectedArrival"] = "01/19/2024"
	row["status"] = "Delivered"
	row["returnReason"] = "arrived broken"
	row["customerEmail"] = "Buyer@Example.com"

	out := NewRowValidator(returnedParts(t), fixedNow).ValidateRow(row, 2, nil)

	require.True(t, out.Valid(), "%v", out.Errors)
	assert.Equal(t, "2024-01-15", out.Record["shippedDate"])
	assert.Equal(t, "2024-01-19", out.Record["expectedArrival"])
	assert.Equal(t, "arrived", out.Record["status"])
	assert.Equal(t, "Defective", out.Record["returnReason"])
	assert.Equal(t, "buyer@example.com", out.Record["customerEmail"])
}

func TestValidateRow_InvalidEmailDroppedSilently(t *testing.T) {
	row := completeRow()
	row["customerEmail"] = "not an email"

	out := NewRowValidator(returnedParts(t), fixedNow).ValidateRow(row, 2, nil)

	assert.True(t, out.Valid())
	assert.Empty(t, out.Warnings)
	_, present := out.Record["customerEmail"]
	assert.False(t, present)
}

func TestValidateRow_InvalidDate(t *testing.T) {
	row := completeRow()
	row["expectedArrival"] = "sometime soon"

	out := NewRowValidator(returnedParts(t), fixedNow).ValidateRow(row, 2, nil)

	require.Len(t, out.Errors, 1)
	assert.Equal(t, "expectedArrival", out.Errors[0].Field)
	assert.Contains(t, out.Errors[0].Message, "Invalid date for Expected Arrival")
}

func TestValidateRow_Constraints(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   any
		wantMsg string
	}{
		{"too short", "customerName", "A", "Customer Name must be at least 2 characters"},
		{"too long", "partNumber", strings.Repeat("X", 51), "Part Number must be at most 50 characters"},
		{"pattern", "partNumber", "!!bad", "Part Number has an invalid format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := completeRow()
			row[tt.field] = tt.value

			out := NewRowValidator(returnedParts(t), fixedNow).ValidateRow(row, 2, nil)

			require.False(t, out.Valid())
			assert.Contains(t, messages(out.Errors), tt.wantMsg)
		})
	}
}

func TestValidateRow_AllowedValuesWarnOnly(t *testing.T) {
	row := completeRow()
	row["carrier"] = "Pony Express"
	row["returnReason"] = "changed my mind"

	out := NewRowValidator(returnedParts(t), fixedNow).ValidateRow(row, 2, nil)

	assert.True(t, out.Valid())
	require.Len(t, out.Warnings, 2)
	assert.Equal(t, "carrier", out.Warnings[0].Field)
	assert.Equal(t, "returnReason", out.Warnings[1].Field)
	assert.Equal(t, "changed my mind", out.Record["returnReason"])
}

func TestValidateRow_TwoDigitYearUsesValidatorClock(t *testing.T) {
	row := completeRow()
	row["shippedDate"] = "3/1/70"
	row["expectedArrival"] = "3/5/70"

	at2024 := NewRowValidator(returnedParts(t), fixedNow).ValidateRow(row, 2, nil)
	assert.Equal(t, "1970-03-01", at2024.Record["shippedDate"])

	at2060 := NewRowValidator(returnedParts(t), func() time.Time {
		return time.Date(2060, 1, 1, 0, 0, 0, 0, time.UTC)
	}).ValidateRow(row, 2, nil)
	assert.Equal(t, "2070-03-01", at2060.Record["shippedDate"])
	assert.Equal(t, "2070-03-05", at2060.Record["expectedArrival"])
}

func TestValidateRow_ExplicitDefaultReasonIsRecognized(t *testing.T) {
	row := completeRow()
	row["returnReason"] = "Customer Return"

	out := NewRowValidator(returnedParts(t), fixedNow).ValidateRow(row, 2, nil)

	assert.True(t, out.Valid())
	assert.Empty(t, out.Warnings)
	assert.Equal(t, "Customer Return", out.Record["returnReason"])
}

func TestValidateRow_RecommendedWarnings(t *testing.T) {
	row := RawRow{
		"partName":     "Control Board",
		"partNumber":   "CB-0917",
		"customerName": "Northwind Motors",
		"orderNumber":  "SO-10511",
	}

	out := NewRowValidator(returnedParts(t), fixedNow).ValidateRow(row, 2, nil)

	assert.True(t, out.Valid())
	assert.Equal(t, []string{"Tracking information recommended", "Ship date recommended"}, messages(out.Warnings))
}

// ----------------------------------------------------------------------------
// Cross-field
// ----------------------------------------------------------------------------

func TestValidateRow_ArrivalBeforeShipped(t *testing.T) {
	row := completeRow()
	row["shippedDate"] = "2024-01-20"
	row["expectedArrival"] = "2024-01-10"

	out := NewRowValidator(returnedParts(t), fixedNow).ValidateRow(row, 4, nil)

	require.Len(t, out.Errors, 1)
	assert.Equal(t, "Expected arrival cannot be before shipped date", out.Errors[0].Message)
	assert.Equal(t, "expectedArrival", out.Errors[0].Field)
	assert.Equal(t, 4, out.Errors[0].Row)
}

func TestValidateRow_SameDayArrivalIsFine(t *testing.T) {
	row := completeRow()
	row["shippedDate"] = "2024-01-20"
	row["expectedArrival"] = "2024-01-20"

	out := NewRowValidator(returnedParts(t), fixedNow).ValidateRow(row, 2, nil)
	assert.True(t, out.Valid())
}

func TestValidateRow_FutureShipDateWarns(t *testing.T) {
	row := completeRow()
	row["shippedDate"] = "2024-07-01"
	row["expectedArrival"] = "2024-07-05"

	out := NewRowValidator(returnedParts(t), fixedNow).ValidateRow(row, 2, nil)

	assert.True(t, out.Valid())
	assert.Equal(t, []string{"Shipped date is in the future"}, messages(out.Warnings))
}

// ----------------------------------------------------------------------------
// Resolution
// ----------------------------------------------------------------------------

func TestValidateRow_StrictMatchesLabelsCaseInsensitively(t *testing.T) {
	row := RawRow{
		"PART NAME":       "Control Board",
		" part number ":   "CB-0917",
		"Customer Name":   "Northwind Motors",
		"ordernumber":     "SO-10511",
		"Tracking Number": "794644790132",
		"Shipped Date":    "2024-01-16",
	}

	out := NewRowValidator(returnedParts(t), fixedNow).ValidateRow(row, 2, nil)

	require.True(t, out.Valid(), "%v", out.Errors)
	assert.Equal(t, "CB-0917", out.Record["partNumber"])
	assert.Equal(t, "SO-10511", out.Record["orderNumber"])
}

func TestValidateRow_StrictIgnoresSynonyms(t *testing.T) {
	row := completeRow()
	delete(row, "partNumber")
	row["Part #"] = "CB-0917"

	out := NewRowValidator(returnedParts(t), fixedNow).ValidateRow(row, 2, nil)

	assert.Equal(t, []string{"Part Number is required but missing"}, messages(out.Errors))
}

func TestValidateRow_MappedResolution(t *testing.T) {
	row := RawRow{
		"Item":     "Control Board",
		"P/N":      "CB-0917",
		"Client":   "Northwind Motors",
		"PO":       "SO-10511",
		"Internal": "ignored",
	}
	mapping := []ColumnMapping{
		{OriginalName: "Item", MappedTo: "partName"},
		{OriginalName: "P/N", MappedTo: "partNumber"},
		{OriginalName: "Client", MappedTo: "customerName"},
		{OriginalName: "PO", MappedTo: "orderNumber"},
		{OriginalName: "Internal", MappedTo: ""},
	}

	out := NewRowValidator(returnedParts(t), fixedNow).ValidateRow(row, 2, mapping)

	require.True(t, out.Valid(), "%v", out.Errors)
	assert.Equal(t, "Control Board", out.Record["partName"])
	assert.NotContains(t, out.Record, "Internal")
}

func TestValidateRow_MappedFallsThroughToNonBlankColumn(t *testing.T) {
	row := completeRow()
	row["Alt Part Number"] = "ALT-1"
	row["partNumber"] = ""
	mapping := identityMapping("partName", "partNumber", "customerName", "orderNumber")
	mapping = append(mapping, ColumnMapping{OriginalName: "Alt Part Number", MappedTo: "partNumber"})

	out := NewRowValidator(returnedParts(t), fixedNow).ValidateRow(row, 2, mapping)

	require.True(t, out.Valid())
	assert.Equal(t, "ALT-1", out.Record["partNumber"])
}

func TestRowNumber(t *testing.T) {
	assert.Equal(t, 2, RowNumber(0))
	assert.Equal(t, 11, RowNumber(9))
}
