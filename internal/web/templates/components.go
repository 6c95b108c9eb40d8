// Package templates holds the HTML fragments returned to HTMX requests.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/returnsdesk/internal/core"
)

// ErrorAlert renders a dismissible error box.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="alert alert-error" role="alert"><p class="alert-message">%s</p>`,
			templ.EscapeString(message))
		if err != nil {
			return err
		}
		if action != "" {
			if _, err := fmt.Fprintf(w, `<p class="alert-action">%s</p>`, templ.EscapeString(action)); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(w, `<span class="alert-code">%s</span></div>`, templ.EscapeString(code))
		return err
	})
}

// ProgressSteps renders the step list shown while an import runs.
func ProgressSteps(steps []core.ProgressStep) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<ol class="progress-steps">`); err != nil {
			return err
		}
		for _, s := range steps {
			msg := ""
			if s.Message != "" {
				msg = ` <span class="step-message">` + templ.EscapeString(s.Message) + `</span>`
			}
			if _, err := fmt.Fprintf(w, `<li class="step step-%s">%s%s</li>`,
				templ.EscapeString(string(s.Status)), templ.EscapeString(s.Step), msg); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ol>`)
		return err
	})
}

// Report is the data behind ImportReport.
type Report struct {
	SessionID string
	FileName  string
	Label     string
	Stage     string
	Summary   core.ImportSummary
	Rows      []core.RowIssues
	Steps     []core.ProgressStep
}

// ImportReport renders the preview summary and the per-row issue table.
func ImportReport(r Report) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<section class="import-report" id="report-%s" data-stage="%s"><h2>%s</h2>`,
			templ.EscapeString(r.SessionID), templ.EscapeString(r.Stage), templ.EscapeString(r.Label)); err != nil {
			return err
		}
		if r.FileName != "" {
			if _, err := fmt.Fprintf(w, `<p class="file-name">%s</p>`, templ.EscapeString(r.FileName)); err != nil {
				return err
			}
		}
		if err := ProgressSteps(r.Steps).Render(ctx, w); err != nil {
			return err
		}

		counts := []struct {
			label string
			n     int
		}{
			{"Total rows", r.Summary.Total},
			{"Valid", r.Summary.Valid},
			{"Invalid", r.Summary.Invalid},
			{"With warnings", r.Summary.Warned},
		}
		if _, err := io.WriteString(w, `<dl class="summary">`); err != nil {
			return err
		}
		for _, c := range counts {
			if _, err := fmt.Fprintf(w, `<dt>%s</dt><dd>%s</dd>`, c.label, strconv.Itoa(c.n)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</dl>`); err != nil {
			return err
		}

		if len(r.Rows) == 0 {
			_, err := io.WriteString(w, `<p class="no-issues">No problems found.</p></section>`)
			return err
		}

		if _, err := io.WriteString(w,
			`<table class="issues"><thead><tr><th>Row</th><th>Severity</th><th>Field</th><th>Message</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, row := range r.Rows {
			for _, issue := range append(append([]core.ValidationIssue{}, row.Errors...), row.Warnings...) {
				if err := issueRow(w, issue); err != nil {
					return err
				}
			}
		}
		_, err := io.WriteString(w, `</tbody></table></section>`)
		return err
	})
}

func issueRow(w io.Writer, i core.ValidationIssue) error {
	_, err := fmt.Fprintf(w,
		`<tr class="issue-%s"><td>%d</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
		templ.EscapeString(string(i.Severity)),
		i.Row,
		templ.EscapeString(string(i.Severity)),
		templ.EscapeString(i.Field),
		templ.EscapeString(i.Message),
	)
	return err
}
