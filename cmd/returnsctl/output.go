package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/returnsdesk/internal/core"
)

// table writes tab-aligned columns.
type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer, headers ...string) *table {
	t := &table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
	fmt.Fprintln(t.tw, strings.Join(headers, "\t"))
	return t
}

func (t *table) row(cells ...any) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(t.tw, strings.Join(parts, "\t"))
}

func (t *table) flush() error {
	return t.tw.Flush()
}

func printMappings(w io.Writer, mappings []core.ColumnMapping) error {
	tw := newTable(w, "COLUMN", "FIELD", "CONFIDENCE", "SAMPLES")
	for _, m := range mappings {
		field := m.MappedTo
		if field == "" {
			field = "(ignored)"
		}
		tw.row(m.OriginalName, field, fmt.Sprintf("%.2f", m.Confidence), strings.Join(m.SampleValues, " | "))
	}
	return tw.flush()
}

func printSummary(w io.Writer, s core.ImportSummary) {
	fmt.Fprintf(w, "\nRows: %d  Valid: %d  Invalid: %d  With warnings: %d\n",
		s.Total, s.Valid, s.Invalid, s.Warned)
}

// printIssues lists up to limit issues in row order. A limit of zero
// prints nothing.
func printIssues(w io.Writer, rows []core.RowIssues, limit int) error {
	if limit <= 0 || len(rows) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw := newTable(w, "ROW", "SEVERITY", "FIELD", "MESSAGE")
	shown, total := 0, 0
	for _, r := range rows {
		for _, issue := range append(append([]core.ValidationIssue{}, r.Errors...), r.Warnings...) {
			total++
			if shown < limit {
				tw.row(issue.Row, issue.Severity, issue.Field, issue.Message)
				shown++
			}
		}
	}
	if err := tw.flush(); err != nil {
		return err
	}
	if total > shown {
		fmt.Fprintf(w, "... %d more issues\n", total-shown)
	}
	return nil
}
