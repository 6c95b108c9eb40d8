package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/returnsdesk/internal/core"
)

func TestErrorAlert_Escapes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorAlert(`<script>x</script>`, "Try again", "ERR000").Render(context.Background(), &buf))

	out := buf.String()
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "Try again")
	assert.Contains(t, out, "ERR000")
}

func TestImportReport(t *testing.T) {
	report := Report{
		SessionID: "s-1",
		FileName:  "returns.xlsx",
		Label:     "Returned Parts",
		Stage:     "preview",
		Summary:   core.ImportSummary{Total: 3, Valid: 2, Invalid: 1, Warned: 1},
		Rows: []core.RowIssues{
			{Row: 2, Valid: true, Warnings: []core.ValidationIssue{
				{Row: 2, Field: "trackingNumber", Message: "Tracking information recommended", Severity: core.SeverityWarning},
			}},
			{Row: 4, Errors: []core.ValidationIssue{
				{Row: 4, Field: "partName", Message: "Part Name is required but missing", Severity: core.SeverityError},
			}},
		},
		Steps: []core.ProgressStep{{Step: "Reading file", Status: core.StepDone}},
	}

	var buf bytes.Buffer
	require.NoError(t, ImportReport(report).Render(context.Background(), &buf))
	out := buf.String()

	assert.Contains(t, out, `id="report-s-1"`)
	assert.Contains(t, out, "<dt>Invalid</dt><dd>1</dd>")
	assert.Contains(t, out, `<tr class="issue-error"><td>4</td>`)
	assert.Contains(t, out, "Tracking information recommended")
	assert.Contains(t, out, `<li class="step step-done">Reading file</li>`)
}

func TestImportReport_NoIssues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ImportReport(Report{SessionID: "s"}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No problems found.")
}
