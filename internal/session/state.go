package session

import (
	"github.com/JonMunkholm/returnsdesk/internal/core"
	"github.com/JonMunkholm/returnsdesk/internal/sheet"
)

// Mode selects how columns are matched to fields.
type Mode string

const (
	// ModeSmart proposes a fuzzy column mapping the user reviews before preview.
	ModeSmart Mode = "smart"
	// ModeStrict skips mapping and reads columns named exactly like the fields.
	ModeStrict Mode = "strict"
)

// ParseMode accepts "smart" or "strict"; empty means smart.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeSmart:
		return ModeSmart, true
	case ModeStrict:
		return ModeStrict, true
	default:
		return "", false
	}
}

// Stage names a session state.
type Stage string

const (
	StageUpload    Stage = "upload"
	StageMapping   Stage = "mapping"
	StagePreview   Stage = "preview"
	StageComplete  Stage = "complete"
	StageFailed    Stage = "failed"
	StageDiscarded Stage = "discarded"
)

// Terminal reports whether no further transitions are possible.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageDiscarded
}

// State is one step of an import. Each concrete state carries exactly the
// data available at that step.
type State interface {
	Stage() Stage
}

// UploadState waits for a file.
type UploadState struct{}

// MappingState holds a parsed sheet and the editable column mapping.
type MappingState struct {
	Sheet    *sheet.Sheet
	Mappings []core.ColumnMapping
}

// PreviewState holds the validation result for review. Mappings is nil in
// strict mode.
type PreviewState struct {
	Sheet    *sheet.Sheet
	Mappings []core.ColumnMapping
	Result   *core.ImportResult
}

// CompleteState records what was handed to the persister.
type CompleteState struct {
	Headers   []string
	Result    *core.ImportResult
	Persisted int
}

// FailedState ends a session that hit a structural or system error.
type FailedState struct {
	Err     error
	Message core.UserMessage
}

// DiscardedState ends a session the user abandoned.
type DiscardedState struct{}

func (UploadState) Stage() Stage    { return StageUpload }
func (MappingState) Stage() Stage   { return StageMapping }
func (PreviewState) Stage() Stage   { return StagePreview }
func (CompleteState) Stage() Stage  { return StageComplete }
func (FailedState) Stage() Stage    { return StageFailed }
func (DiscardedState) Stage() Stage { return StageDiscarded }
