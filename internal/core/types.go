// Package core provides the business logic for spreadsheet imports:
// row validation, batch processing, and the typed records they produce.
// This package has no file-format, database, or UI dependencies.
package core

import (
	"fmt"

	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

// HeaderRowOffset converts a zero-based data row index into the line number
// a user sees in their spreadsheet: one for the header row, one for 1-based counting.
const HeaderRowOffset = 2

// RowNumber returns the user-facing row number for a zero-based data row index.
func RowNumber(index int) int {
	return index + HeaderRowOffset
}

// RawRow is one spreadsheet row keyed by the original header text.
// Values are strings, numbers, dates, or nil depending on the source file.
type RawRow map[string]any

// Record holds canonical field values keyed by schema field name.
// Fields that were empty and have no default are absent.
type Record map[string]string

// Severity distinguishes blocking problems from advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationIssue is a single problem found in a row.
type ValidationIssue struct {
	Row      int      `json:"row"`             // User-facing row number
	Field    string   `json:"field,omitempty"` // Schema field name, empty for row-level issues
	Value    string   `json:"value,omitempty"` // Offending value as text
	Message  string   `json:"message"`         // Human-readable description
	Severity Severity `json:"severity"`
}

func (i ValidationIssue) Error() string {
	if i.Field != "" {
		return fmt.Sprintf("row %d: %s: %s", i.Row, i.Field, i.Message)
	}
	return fmt.Sprintf("row %d: %s", i.Row, i.Message)
}

// IsError reports whether the issue blocks the row from import.
func (i ValidationIssue) IsError() bool {
	return i.Severity == SeverityError
}

// ColumnMapping links one spreadsheet header to a schema field.
// An empty MappedTo means the column is ignored.
type ColumnMapping struct {
	OriginalName string   `json:"originalName"`
	MappedTo     string   `json:"mappedTo"`
	Confidence   float64  `json:"confidence"`
	SampleValues []string `json:"sampleValues"`
	UserOverride bool     `json:"userOverride,omitempty"`
}

// Mapped reports whether the column feeds a schema field.
func (m ColumnMapping) Mapped() bool {
	return m.MappedTo != ""
}

// InvalidRow keeps the original data of a rejected row with its errors.
type InvalidRow struct {
	Row    int               `json:"row"`
	Data   RawRow            `json:"data"`
	Errors []ValidationIssue `json:"errors"`
}

// ImportResult is the outcome of validating a whole sheet.
//
// Every input row lands in exactly one of ValidRecords or InvalidRows.
// Errors and Warnings list every issue across all rows in row order.
type ImportResult struct {
	RecordType   schema.RecordType `json:"recordType"`
	TotalRows    int               `json:"totalRows"`
	ValidRecords []Record          `json:"validRecords"`
	ValidRows    []int             `json:"validRows"` // Row number of each valid record
	InvalidRows  []InvalidRow      `json:"invalidRows"`
	Errors       []ValidationIssue `json:"errors"`
	Warnings     []ValidationIssue `json:"warnings"`
}

// ImportSummary holds the counters shown above a preview.
type ImportSummary struct {
	Total    int `json:"total"`
	Valid    int `json:"valid"`
	Invalid  int `json:"invalid"`
	Warned   int `json:"warned"` // Valid rows carrying at least one warning
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// RowIssues groups every issue of one row.
type RowIssues struct {
	Row      int               `json:"row"`
	Valid    bool              `json:"valid"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

// StepStatus is the state of one progress step.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepActive  StepStatus = "active"
	StepDone    StepStatus = "done"
	StepFailed  StepStatus = "failed"
)

// ProgressStep is one labelled stage of an import shown to the user.
type ProgressStep struct {
	Step    string     `json:"step"`
	Status  StepStatus `json:"status"`
	Message string     `json:"message,omitempty"`
}
