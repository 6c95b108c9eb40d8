// Package session drives one spreadsheet import from upload to persistence.
//
// A Session moves through a fixed set of states:
//
//	upload -> mapping -> preview -> complete      (smart mode)
//	upload -> preview -> complete                 (strict mode)
//
// Any non-terminal state may move to failed (structural or persistence error)
// or discarded (user abandons the import). Preview can step back to mapping
// in smart mode so the user can correct the column mapping. Nothing is
// persisted until Confirm succeeds.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/returnsdesk/internal/core"
	"github.com/JonMunkholm/returnsdesk/internal/logging"
	"github.com/JonMunkholm/returnsdesk/internal/mapping"
	"github.com/JonMunkholm/returnsdesk/internal/schema"
	"github.com/JonMunkholm/returnsdesk/internal/sheet"
)

var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrSessionFailed     = errors.New("import session failed")
	ErrNotFound          = errors.New("import session not found")
	ErrUnknownField      = errors.New("unknown field")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrNothingToImport   = errors.New("no valid records to import")
	ErrFieldConflict     = errors.New("field mapped from more than one column")
)

// Progress step labels.
const (
	StepRead     = "Reading file"
	StepDetect   = "Detecting columns"
	StepValidate = "Validating rows"
	StepImport   = "Importing records"
)

// Persister stores confirmed records and returns how many were written.
type Persister interface {
	Persist(ctx context.Context, rt schema.RecordType, records []core.Record) (int, error)
}

// Options configures a Session. Zero values select package defaults.
type Options struct {
	Mapper      mapping.Mapper
	ReadOptions sheet.ReadOptions
	SampleRows  int              // Rows handed to the mapper; zero means 5
	Now         func() time.Time // Validation and idle clock; nil means time.Now
}

const defaultSampleRows = 5

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) sampleRows() int {
	if o.SampleRows > 0 {
		return o.SampleRows
	}
	return defaultSampleRows
}

// Session is a single import. All methods are safe for concurrent use.
type Session struct {
	ID         string
	RecordType schema.RecordType
	Mode       Mode
	CreatedAt  time.Time

	mu       sync.Mutex
	schema   schema.Schema
	opts     Options
	fileName string
	state    State
	progress []core.ProgressStep
	touched  time.Time
	logger   *slog.Logger
}

// New starts a session in the upload state.
func New(id string, rt schema.RecordType, mode Mode, opts Options) (*Session, error) {
	s, err := schema.Lookup(rt)
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = ModeSmart
	}

	labels := []string{StepRead, StepDetect, StepValidate, StepImport}
	if mode == ModeStrict {
		labels = []string{StepRead, StepValidate, StepImport}
	}
	progress := make([]core.ProgressStep, len(labels))
	for i, l := range labels {
		progress[i] = core.ProgressStep{Step: l, Status: core.StepPending}
	}

	now := opts.now()
	return &Session{
		ID:         id,
		RecordType: rt,
		Mode:       mode,
		CreatedAt:  now,
		schema:     s,
		opts:       opts,
		state:      UploadState{},
		progress:   progress,
		touched:    now,
		logger:     slog.Default().With("session_id", id, "record_type", string(rt), "mode", string(mode)),
	}, nil
}

// Schema returns the schema the session validates against.
func (s *Session) Schema() schema.Schema {
	return s.schema
}

// FileName returns the uploaded file's name, or "" before upload.
func (s *Session) FileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileName
}

// State returns the current state. Slices inside it must not be modified.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stage returns the current state's name.
func (s *Session) Stage() Stage {
	return s.State().Stage()
}

// LastActivity returns when the session last changed or was read through
// a mutating call.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Progress returns a copy of the progress steps.
func (s *Session) Progress() []core.ProgressStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ProgressStep, len(s.progress))
	copy(out, s.progress)
	return out
}

// Headers returns the uploaded sheet's headers, or nil before upload.
func (s *Session) Headers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch st := s.state.(type) {
	case MappingState:
		return st.Sheet.Headers
	case PreviewState:
		return st.Sheet.Headers
	case CompleteState:
		return st.Headers
	}
	return nil
}

// Mappings returns a copy of the current column mapping. It is nil outside
// the mapping and preview states and always nil in strict mode.
func (s *Session) Mappings() []core.ColumnMapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch st := s.state.(type) {
	case MappingState:
		return copyMappings(st.Mappings)
	case PreviewState:
		return copyMappings(st.Mappings)
	}
	return nil
}

// Result returns the validation result once the session reaches preview.
func (s *Session) Result() *core.ImportResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch st := s.state.(type) {
	case PreviewState:
		return st.Result
	case CompleteState:
		return st.Result
	}
	return nil
}

// LoadFile decodes an uploaded file and loads it. Structural read errors
// fail the session and are returned unchanged.
func (s *Session) LoadFile(ctx context.Context, name string, r io.Reader) error {
	s.mu.Lock()
	if err := s.expect("upload", StageUpload); err != nil {
		s.mu.Unlock()
		return err
	}
	s.fileName = name
	s.setStep(StepRead, core.StepActive, name)
	s.mu.Unlock()

	sh, err := sheet.Read(ctx, name, r, s.opts.ReadOptions)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.fail(ctx, StepRead, err)
		return err
	}

	return s.Load(ctx, sh)
}

// Load moves an uploaded sheet forward: to mapping with proposed columns in
// smart mode, or straight to preview in strict mode.
func (s *Session) Load(ctx context.Context, sh *sheet.Sheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect("load", StageUpload); err != nil {
		return err
	}
	if sh == nil || len(sh.Rows) == 0 {
		s.fail(ctx, StepRead, sheet.ErrNoDataRows)
		return sheet.ErrNoDataRows
	}
	s.setStep(StepRead, core.StepDone, fmt.Sprintf("%d rows", len(sh.Rows)))

	if s.Mode == ModeStrict {
		return s.validate(ctx, sh, nil)
	}

	s.setStep(StepDetect, core.StepActive, "")
	proposed := s.opts.Mapper.Propose(sh.Headers, sh.Sample(s.opts.sampleRows()), s.schema.Fields)

	matched := 0
	for _, m := range proposed {
		if m.Mapped() {
			matched++
		}
	}
	s.setStep(StepDetect, core.StepDone, fmt.Sprintf("%d of %d columns matched", matched, len(proposed)))
	s.state = MappingState{Sheet: sh, Mappings: proposed}

	logging.WithSession(ctx, s.ID, string(s.RecordType)).Info("columns detected",
		"headers", len(sh.Headers),
		"matched", matched,
		"rows", len(sh.Rows),
	)
	return nil
}

// SetMapping points header at field, or ignores the column when field is
// empty. A field claimed by another column is released from it so each
// field keeps a single source.
func (s *Session) SetMapping(header, field string) error {
	return s.ApplyMappings(map[string]string{header: field})
}

// ApplyMappings replaces several column assignments at once. Headers not
// listed keep their current assignment. Every assignment is checked before
// any is applied, and two listed headers may not name the same field.
func (s *Session) ApplyMappings(assignments map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect("edit mapping", StageMapping); err != nil {
		return err
	}
	st := s.state.(MappingState)

	headers := make([]string, 0, len(assignments))
	for h := range assignments {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	claimed := make(map[string]string, len(headers))
	for _, h := range headers {
		field := assignments[h]
		if !slices.ContainsFunc(st.Mappings, func(m core.ColumnMapping) bool { return m.OriginalName == h }) {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, h)
		}
		if field == "" {
			continue
		}
		if _, ok := s.schema.Field(field); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		if prev, dup := claimed[field]; dup {
			return fmt.Errorf("%w: %q from %q and %q", ErrFieldConflict, field, prev, h)
		}
		claimed[field] = h
	}

	next := copyMappings(st.Mappings)
	for _, h := range headers {
		assign(next, h, assignments[h])
	}

	st.Mappings = next
	s.state = st
	return nil
}

// assign points header at field in ms, releasing field from any other column.
func assign(ms []core.ColumnMapping, header, field string) {
	for i := range ms {
		m := &ms[i]
		switch {
		case m.OriginalName == header:
			m.MappedTo = field
			m.UserOverride = true
			m.Confidence = 0
			if field != "" {
				m.Confidence = 1
			}
		case field != "" && m.MappedTo == field:
			m.MappedTo = ""
			m.Confidence = 0
			m.UserOverride = true
		}
	}
}

// Commit validates every row against the current mapping and moves to
// preview. Later mapping edits do not affect the preview.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect("commit mapping", StageMapping); err != nil {
		return err
	}
	st := s.state.(MappingState)
	return s.validate(ctx, st.Sheet, copyMappings(st.Mappings))
}

// Remap returns from preview to mapping, keeping the mapping that produced
// the preview. Strict sessions have no mapping to return to.
func (s *Session) Remap() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect("remap", StagePreview); err != nil {
		return err
	}
	if s.Mode == ModeStrict {
		return fmt.Errorf("%w: strict imports have no column mapping", ErrInvalidTransition)
	}

	st := s.state.(PreviewState)
	s.setStep(StepValidate, core.StepPending, "")
	s.state = MappingState{Sheet: st.Sheet, Mappings: st.Mappings}
	return nil
}

// Confirm hands the valid records to p and completes the session. A
// persistence error fails the session.
func (s *Session) Confirm(ctx context.Context, p Persister) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect("confirm", StagePreview); err != nil {
		return 0, err
	}
	st := s.state.(PreviewState)
	if len(st.Result.ValidRecords) == 0 {
		return 0, ErrNothingToImport
	}

	s.setStep(StepImport, core.StepActive, "")
	start := time.Now()

	n, err := p.Persist(ctx, s.RecordType, st.Result.ValidRecords)
	if err != nil {
		err = fmt.Errorf("persist %s records: %w", s.RecordType, err)
		s.fail(ctx, StepImport, err)
		return 0, err
	}

	s.setStep(StepImport, core.StepDone, fmt.Sprintf("%d records imported", n))
	s.state = CompleteState{Headers: st.Sheet.Headers, Result: st.Result, Persisted: n}

	logging.WithSession(ctx, s.ID, string(s.RecordType)).Info("import completed",
		"persisted", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return n, nil
}

// Discard abandons the session. Completed sessions cannot be discarded.
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Stage().Terminal() {
		return fmt.Errorf("%w: cannot discard from %s", ErrInvalidTransition, s.state.Stage())
	}
	s.state = DiscardedState{}
	s.touch()
	s.logger.Info("import discarded")
	return nil
}

// validate runs the batch processor and moves to preview. Caller holds mu.
func (s *Session) validate(ctx context.Context, sh *sheet.Sheet, mappings []core.ColumnMapping) error {
	s.setStep(StepValidate, core.StepActive, "")

	proc := core.BatchProcessor{Now: s.opts.Now}
	result, err := proc.Process(sh.Rows, mappings, s.schema)
	if err != nil {
		s.fail(ctx, StepValidate, err)
		return err
	}

	sum := result.Summary()
	s.setStep(StepValidate, core.StepDone, fmt.Sprintf("%d valid, %d invalid", sum.Valid, sum.Invalid))
	s.state = PreviewState{Sheet: sh, Mappings: mappings, Result: result}

	logging.WithSession(ctx, s.ID, string(s.RecordType)).Info("rows validated",
		"total", sum.Total,
		"valid", sum.Valid,
		"invalid", sum.Invalid,
		"warnings", sum.Warnings,
	)
	return nil
}

// expect checks the current stage and refreshes the idle clock. Caller holds mu.
func (s *Session) expect(action string, want Stage) error {
	got := s.state.Stage()
	if got == StageFailed {
		return fmt.Errorf("%w: cannot %s", ErrSessionFailed, action)
	}
	if got != want {
		return fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, action, got)
	}
	s.touch()
	return nil
}

// fail moves to the failed state. Caller holds mu.
func (s *Session) fail(ctx context.Context, step string, err error) {
	msg := core.MapError(err)
	s.setStep(step, core.StepFailed, msg.Message)
	s.state = FailedState{Err: err, Message: msg}
	s.touch()

	logging.WithSession(ctx, s.ID, string(s.RecordType)).Warn("import failed",
		"step", step,
		"code", msg.Code,
		"error", err,
	)
}

func (s *Session) touch() {
	s.touched = s.opts.now()
}

func (s *Session) setStep(step string, status core.StepStatus, message string) {
	for i := range s.progress {
		if s.progress[i].Step == step {
			s.progress[i].Status = status
			s.progress[i].Message = message
			return
		}
	}
}

func copyMappings(in []core.ColumnMapping) []core.ColumnMapping {
	if in == nil {
		return nil
	}
	out := make([]core.ColumnMapping, len(in))
	copy(out, in)
	for i := range out {
		if in[i].SampleValues != nil {
			out[i].SampleValues = append([]string(nil), in[i].SampleValues...)
		}
	}
	return out
}
