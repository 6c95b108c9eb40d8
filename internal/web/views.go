package web

import (
	"github.com/JonMunkholm/returnsdesk/internal/core"
	"github.com/JonMunkholm/returnsdesk/internal/schema"
	"github.com/JonMunkholm/returnsdesk/internal/session"
)

// fieldView describes one schema field to clients building a mapping UI.
type fieldView struct {
	Name          string   `json:"name"`
	Label         string   `json:"label"`
	Type          string   `json:"type"`
	Required      bool     `json:"required"`
	Recommended   bool     `json:"recommended,omitempty"`
	MaxLength     int      `json:"maxLength,omitempty"`
	AllowedValues []string `json:"allowedValues,omitempty"`
}

type schemaView struct {
	Type   schema.RecordType `json:"type"`
	Label  string            `json:"label"`
	Fields []fieldView       `json:"fields"`
}

func newSchemaView(s schema.Schema) schemaView {
	v := schemaView{Type: s.Type, Label: s.Label, Fields: make([]fieldView, len(s.Fields))}
	for i, f := range s.Fields {
		allowed := f.AllowedValues
		if f.Lifecycle != nil {
			allowed = f.Lifecycle.Stages
		}
		v.Fields[i] = fieldView{
			Name:          f.Name,
			Label:         f.Label,
			Type:          f.Type.String(),
			Required:      f.Required,
			Recommended:   f.Recommended,
			MaxLength:     f.MaxLength,
			AllowedValues: allowed,
		}
	}
	return v
}

// sessionView is the JSON body returned by every import endpoint.
type sessionView struct {
	ID         string                `json:"id"`
	RecordType schema.RecordType     `json:"recordType"`
	Mode       session.Mode          `json:"mode"`
	Stage      session.Stage         `json:"stage"`
	FileName   string                `json:"fileName,omitempty"`
	Progress   []core.ProgressStep   `json:"progress"`
	Headers    []string              `json:"headers,omitempty"`
	Mappings   []core.ColumnMapping  `json:"mappings,omitempty"`
	Summary    *core.ImportSummary   `json:"summary,omitempty"`
	Rows       []core.RowIssues      `json:"rows,omitempty"`
	Records    []core.Record         `json:"records,omitempty"`
	Persisted  *int                  `json:"persisted,omitempty"`
	Error      *ErrorResponse        `json:"error,omitempty"`
}

// previewRecordLimit caps how many valid records a preview response carries.
const previewRecordLimit = 50

func newSessionView(s *session.Session) sessionView {
	v := sessionView{
		ID:         s.ID,
		RecordType: s.RecordType,
		Mode:       s.Mode,
		FileName:   s.FileName(),
		Progress:   s.Progress(),
	}

	switch st := s.State().(type) {
	case session.MappingState:
		v.Headers = st.Sheet.Headers
		v.Mappings = s.Mappings()
	case session.PreviewState:
		v.Headers = st.Sheet.Headers
		v.Mappings = s.Mappings()
		v.withResult(st.Result)
	case session.CompleteState:
		v.withResult(st.Result)
		n := st.Persisted
		v.Persisted = &n
	case session.FailedState:
		body := errorBody(st.Message)
		v.Error = &body
	}
	v.Stage = s.Stage()
	return v
}

func (v *sessionView) withResult(r *core.ImportResult) {
	sum := r.Summary()
	v.Summary = &sum
	v.Rows = r.IssuesByRow()
	v.Records = r.ValidRecords
	if len(v.Records) > previewRecordLimit {
		v.Records = v.Records[:previewRecordLimit]
	}
}
