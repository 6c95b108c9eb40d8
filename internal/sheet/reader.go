// Package sheet reads uploaded spreadsheets into header + row form and writes
// the workbooks users download (blank templates and rejected rows).
//
// Reading is structural only: the first non-blank row becomes the header and
// every later row becomes a core.RawRow keyed by header text. Cell contents are
// left untouched for the import pipeline to interpret.
package sheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/returnsdesk/internal/core"
)

// Structural errors. Any of these means the file cannot be imported at all.
var (
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrUnreadable        = errors.New("unreadable spreadsheet")
	ErrNoWorksheets      = errors.New("workbook has no worksheets")
	ErrNoDataRows        = errors.New("sheet has no data rows")
	ErrNoFile            = errors.New("no file provided")
)

// DefaultMaxBytes caps uploads when ReadOptions leaves MaxBytes unset.
const DefaultMaxBytes int64 = 25 << 20

// ReadOptions controls Read.
type ReadOptions struct {
	MaxBytes int64
}

// Sheet is one worksheet's worth of rows.
type Sheet struct {
	Name    string        // Worksheet name, or the file name for CSV
	Headers []string      // Unique, non-empty header texts in column order
	Rows    []core.RawRow // Data rows below the header
}

// Sample returns up to n leading rows.
func (s *Sheet) Sample(n int) []core.RawRow {
	if n > len(s.Rows) {
		n = len(s.Rows)
	}
	return s.Rows[:n]
}

// Supported reports whether a file name has an extension Read understands.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	default:
		return false
	}
}

// Read decodes an uploaded spreadsheet. The format is chosen by the file
// name's extension.
func Read(ctx context.Context, name string, r io.Reader, opts ReadOptions) (*Sheet, error) {
	if r == nil {
		return nil, ErrNoFile
	}
	if !Supported(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, maxBytes)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		grid      [][]string
		sheetName string
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		grid, err = parseCSV(data)
		sheetName = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	default:
		grid, sheetName, err = parseWorkbook(ctx, data)
	}
	if err != nil {
		return nil, err
	}

	return FromGrid(sheetName, grid)
}

// ReadFile reads a spreadsheet from disk.
func ReadFile(ctx context.Context, path string, opts ReadOptions) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return Read(ctx, filepath.Base(path), f, opts)
}

// FromGrid builds a Sheet from a cell grid. The first non-blank row is the
// header. Trailing blank rows are dropped; blank rows between data rows are
// kept so the importer can report them.
func FromGrid(name string, grid [][]string) (*Sheet, error) {
	headerIdx := -1
	for i, row := range grid {
		if !isEmptyRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrNoDataRows
	}

	body := grid[headerIdx+1:]
	for len(body) > 0 && isEmptyRow(body[len(body)-1]) {
		body = body[:len(body)-1]
	}
	if len(body) == 0 {
		return nil, ErrNoDataRows
	}

	width := len(grid[headerIdx])
	for _, row := range body {
		width = max(width, len(row))
	}
	headers := uniqueHeaders(grid[headerIdx], width)

	rows := make([]core.RawRow, len(body))
	for i, cells := range body {
		row := make(core.RawRow, width)
		for c, h := range headers {
			if c < len(cells) {
				row[h] = cells[c]
			} else {
				row[h] = ""
			}
		}
		rows[i] = row
	}

	return &Sheet{Name: name, Headers: headers, Rows: rows}, nil
}

// parseWorkbook returns the first worksheet that has any content.
// Raw cell values are requested so date cells arrive as Excel serial numbers
// rather than in the workbook's display format.
func parseWorkbook(ctx context.Context, data []byte) ([][]string, string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", ErrNoWorksheets
	}

	for _, name := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, "", fmt.Errorf("%w: sheet %q: %v", ErrUnreadable, name, err)
		}
		for _, row := range rows {
			if !isEmptyRow(row) {
				return rows, name, nil
			}
		}
	}

	return nil, "", ErrNoDataRows
}

func parseCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = sanitizeUTF8(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	grid, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return grid, nil
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with the replacement character.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

// uniqueHeaders trims header cells, names blank ones after their column
// letter, and suffixes repeats so every header is a distinct map key.
func uniqueHeaders(row []string, width int) []string {
	names := make([]string, width)
	literal := make(map[string]bool, width)
	for i := 0; i < width; i++ {
		h := ""
		if i < len(row) {
			h = strings.TrimSpace(strings.TrimPrefix(row[i], "\uFEFF"))
		}
		if h == "" {
			col, _ := excelize.ColumnNumberToName(i + 1)
			h = "Column " + col
		}
		names[i] = h
		literal[strings.ToLower(h)] = true
	}

	// A suffixed name never takes a name that appears literally in the row.
	headers := make([]string, width)
	used := make(map[string]bool, width)
	next := make(map[string]int)
	for i, h := range names {
		key := strings.ToLower(h)
		if used[key] {
			n := max(next[key], 2)
			for {
				cand := fmt.Sprintf("%s (%d)", names[i], n)
				n++
				if ck := strings.ToLower(cand); !used[ck] && !literal[ck] {
					h = cand
					break
				}
			}
			next[key] = n
		}
		used[strings.ToLower(h)] = true
		headers[i] = h
	}

	return headers
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
