package sheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/returnsdesk/internal/core"
	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

// ----------------------------------------------------------------------------
// CSV
// ----------------------------------------------------------------------------

func TestRead_CSV(t *testing.T) {
	data := "\xef\xbb\xbfPart Name,Part #,Notes\n" +
		"Pump Seal,HP-2210,\"leaks, badly\"\n" +
		",,\n" +
		"Gasket,GK-1\n" +
		",,\n" +
		"\n"

	s, err := Read(context.Background(), "returns.csv", strings.NewReader(data), ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "returns", s.Name)
	assert.Equal(t, []string{"Part Name", "Part #", "Notes"}, s.Headers)

	// Interior blank row kept, trailing blank rows dropped.
	require.Len(t, s.Rows, 3)
	assert.Equal(t, "leaks, badly", s.Rows[0]["Notes"])
	assert.Equal(t, "", s.Rows[1]["Part Name"])
	assert.Equal(t, "", s.Rows[2]["Notes"], "short rows are padded")
}

func TestRead_CSVInvalidUTF8(t *testing.T) {
	data := "Part Name\nCaf\xe9 Valve\n"

	s, err := Read(context.Background(), "r.csv", strings.NewReader(data), ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Caf\uFFFD Valve", s.Rows[0]["Part Name"])
}

func TestRead_StructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    string
		opts    ReadOptions
		wantErr error
	}{
		{"unsupported", "returns.pdf", "x", ReadOptions{}, ErrUnsupportedFormat},
		{"legacy xls", "returns.xls", "x", ReadOptions{}, ErrUnsupportedFormat},
		{"too large", "returns.csv", strings.Repeat("a", 64), ReadOptions{MaxBytes: 16}, ErrFileTooLarge},
		{"empty csv", "returns.csv", "", ReadOptions{}, ErrNoDataRows},
		{"header only", "returns.csv", "Part Name,Part #\n\n", ReadOptions{}, ErrNoDataRows},
		{"corrupt workbook", "returns.xlsx", "not a zip", ReadOptions{}, ErrUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(context.Background(), tt.file, strings.NewReader(tt.data), tt.opts)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRead_NilReader(t *testing.T) {
	_, err := Read(context.Background(), "returns.csv", nil, ReadOptions{})
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestRead_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Read(ctx, "returns.csv", strings.NewReader("a\nb\n"), ReadOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

// ----------------------------------------------------------------------------
// Headers
// ----------------------------------------------------------------------------

func TestFromGrid_Headers(t *testing.T) {
	grid := [][]string{
		{"", ""},
		{" Notes ", "", "notes", "Part #"},
		{"a", "b", "c", "d", "e"},
	}

	s, err := FromGrid("Sheet1", grid)
	require.NoError(t, err)

	assert.Equal(t, []string{"Notes", "Column B", "notes (2)", "Part #", "Column E"}, s.Headers)
	assert.Equal(t, "e", s.Rows[0]["Column E"])
}

func TestFromGrid_SuffixedHeadersStayDistinct(t *testing.T) {
	tests := []struct {
		row  []string
		want []string
	}{
		{[]string{"Part", "Part (2)", "Part"}, []string{"Part", "Part (2)", "Part (3)"}},
		{[]string{"Part", "Part", "Part (2)"}, []string{"Part", "Part (3)", "Part (2)"}},
		{[]string{"Part", "Part", "Part", "part (3)"}, []string{"Part", "Part (2)", "Part (4)", "part (3)"}},
		{[]string{"", "Column A"}, []string{"Column A", "Column A (2)"}},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.row, "|"), func(t *testing.T) {
			data := make([]string, len(tt.row))
			for i := range data {
				data[i] = "x"
			}
			s, err := FromGrid("Sheet1", [][]string{tt.row, data})
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Headers)
			assert.Len(t, s.Rows[0], len(tt.want))
		})
	}
}

func TestSample(t *testing.T) {
	s := &Sheet{Rows: []core.RawRow{{}, {}, {}}}
	assert.Len(t, s.Sample(2), 2)
	assert.Len(t, s.Sample(10), 3)
}

// ----------------------------------------------------------------------------
// Workbooks
// ----------------------------------------------------------------------------

func TestRead_XLSXSerialDates(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]string{"Part Name", "Shipped Date"}))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Pump Seal"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 45306))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	s, err := Read(context.Background(), "returns.xlsx", &buf, ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", s.Name)
	require.Len(t, s.Rows, 1)
	assert.Equal(t, "45306", s.Rows[0]["Shipped Date"])
}

func TestRead_XLSXSkipsBlankSheets(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Data", "A1", &[]string{"Order Number"}))
	require.NoError(t, f.SetSheetRow("Data", "A2", &[]string{"SO-1"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	s, err := Read(context.Background(), "orders.xlsx", &buf, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Data", s.Name)
	assert.Equal(t, "SO-1", s.Rows[0]["Order Number"])
}

func TestRead_XLSXBlankWorkbook(t *testing.T) {
	f := excelize.NewFile()
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	_, err := Read(context.Background(), "blank.xlsx", &buf, ReadOptions{})
	assert.ErrorIs(t, err, ErrNoDataRows)
}

// ----------------------------------------------------------------------------
// Writers
// ----------------------------------------------------------------------------

func TestWriteTemplate_ReadsBackForEverySchema(t *testing.T) {
	for _, s := range schema.All() {
		for _, format := range []Format{FormatCSV, FormatXLSX} {
			t.Run(string(s.Type)+"/"+string(format), func(t *testing.T) {
				var buf bytes.Buffer
				require.NoError(t, WriteTemplate(&buf, format, s))

				got, err := Read(context.Background(), "template."+string(format), &buf, ReadOptions{})
				require.NoError(t, err)

				assert.Equal(t, s.FieldNames(), got.Headers)
				require.Len(t, got.Rows, len(s.Example))
				for i, ex := range s.Example {
					for field, want := range ex {
						assert.Equal(t, want, got.Rows[i][field], "row %d field %s", i, field)
					}
				}
			})
		}
	}
}

func TestWriteInvalidRows_CSV(t *testing.T) {
	result := &core.ImportResult{
		InvalidRows: []core.InvalidRow{
			{
				Row:  4,
				Data: core.RawRow{"Part Name": "", "Part #": "HP-1"},
				Errors: []core.ValidationIssue{
					{Message: "Part Name is required but missing"},
					{Message: "Order Number is required but missing"},
				},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteInvalidRows(&buf, FormatCSV, []string{"Part Name", "Part #"}, result))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"_row", "_errors", "Part Name", "Part #"},
		{"4", "Part Name is required but missing; Order Number is required but missing", "", "HP-1"},
	}, records)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat("CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	assert.Equal(t, "text/csv", f.ContentType())

	_, err = ParseFormat("ods")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
