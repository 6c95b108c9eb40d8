package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/returnsdesk/internal/coerce"
	"github.com/JonMunkholm/returnsdesk/internal/core"
	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

// Format is a downloadable file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx", case-insensitively. Empty means xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// validationRows is how far down enum drop-downs extend in templates.
const validationRows = 1000

// WriteTemplate writes a starter file for a record type: one column per
// field, headed by the field name, filled with the schema's example rows.
// A template imports cleanly in either mode.
func WriteTemplate(w io.Writer, format Format, s schema.Schema) error {
	headers := s.FieldNames()
	rows := make([][]string, len(s.Example))
	for i, ex := range s.Example {
		row := make([]string, len(headers))
		for c, h := range headers {
			row[c] = ex[h]
		}
		rows[i] = row
	}

	if format == FormatCSV {
		return writeCSV(w, headers, rows)
	}

	f := excelize.NewFile()
	defer f.Close()

	name := sheetName(s.Label)
	if err := fillSheet(f, name, headers, rows); err != nil {
		return err
	}

	for c, field := range s.Fields {
		list := field.AllowedValues
		if field.Lifecycle != nil {
			list = field.Lifecycle.Stages
		}
		if len(list) == 0 {
			continue
		}
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		// Drop-downs are advisory: users may still type free text.
		dv := excelize.NewDataValidation(true)
		dv.Sqref = fmt.Sprintf("%s2:%s%d", col, col, validationRows)
		if err := dv.SetDropList(list); err != nil {
			return fmt.Errorf("drop-down for %s: %w", field.Name, err)
		}
		dv.ShowErrorMessage = false
		if err := f.AddDataValidation(name, dv); err != nil {
			return fmt.Errorf("drop-down for %s: %w", field.Name, err)
		}
	}

	return f.Write(w)
}

// WriteInvalidRows exports rejected rows with their original cells so users
// can fix and re-upload them. The first two columns hold the row number and
// the joined error messages.
func WriteInvalidRows(w io.Writer, format Format, headers []string, result *core.ImportResult) error {
	out := append([]string{"_row", "_errors"}, headers...)

	rows := make([][]string, 0, len(result.InvalidRows))
	for _, ir := range result.InvalidRows {
		msgs := make([]string, len(ir.Errors))
		for i, e := range ir.Errors {
			msgs[i] = e.Message
		}

		row := make([]string, 0, len(out))
		row = append(row, strconv.Itoa(ir.Row), strings.Join(msgs, "; "))
		for _, h := range headers {
			row = append(row, coerce.Stringify(ir.Data[h]))
		}
		rows = append(rows, row)
	}

	if format == FormatCSV {
		return writeCSV(w, out, rows)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := fillSheet(f, "Rejected Rows", out, rows); err != nil {
		return err
	}
	return f.Write(w)
}

func writeCSV(w io.Writer, headers []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// fillSheet renames the default sheet and writes a bold header row plus data.
func fillSheet(f *excelize.File, name string, headers []string, rows [][]string) error {
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return err
	}

	if err := f.SetSheetRow(name, "A1", &headers); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}

	if len(headers) == 0 {
		return nil
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", last+"1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(name, "A", last, 20); err != nil {
		return err
	}
	return f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// sheetName trims a label to Excel's 31 character sheet name limit.
func sheetName(label string) string {
	if label == "" {
		return "Sheet1"
	}
	if r := []rune(label); len(r) > 31 {
		return string(r[:31])
	}
	return label
}
