package coerce

import (
	"regexp"
	"strings"

	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// reasonRules map lowercase substrings to canonical return reasons, checked in order.
var reasonRules = []schema.Rule{
	{Keyword: "defect", Stage: "Defective"},
	{Keyword: "faulty", Stage: "Defective"},
	{Keyword: "broken", Stage: "Defective"},
	{Keyword: "not work", Stage: "Defective"},
	{Keyword: "wrong", Stage: "Wrong Part"},
	{Keyword: "incorrect", Stage: "Wrong Part"},
	{Keyword: "mismatch", Stage: "Wrong Part"},
	{Keyword: "warrant", Stage: "Warranty"},
	{Keyword: "quality", Stage: "Quality Issue"},
}

// Status maps free-text status to a lifecycle stage.
// Exact stage names win, then the lifecycle's substring rules in order.
// Empty or unrecognized text yields the initial stage.
func Status(s string, lc *schema.Lifecycle) string {
	if lc == nil {
		lc = schema.ReturnLifecycle
	}

	s = strings.ToLower(CleanCell(s))
	if s == "" {
		return lc.Initial()
	}

	key := strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	for _, stage := range lc.Stages {
		if key == stage {
			return stage
		}
	}

	for _, r := range lc.Rules {
		if strings.Contains(s, r.Keyword) {
			return r.Stage
		}
	}

	return lc.Initial()
}

// Reason maps a free-text return reason onto the canonical reasons.
// Unrecognized text is kept as typed; empty text becomes the default reason.
func Reason(s string) string {
	s = CleanCell(s)
	if s == "" {
		return schema.DefaultReturnReason
	}

	lower := strings.ToLower(s)
	for _, r := range reasonRules {
		if strings.Contains(lower, r.Keyword) {
			return r.Stage
		}
	}

	return s
}

// Email returns the lowercased address, or false when the text is not
// shaped like local@domain.tld.
func Email(s string) (string, bool) {
	s = strings.ToLower(CleanCell(s))
	s = strings.TrimPrefix(s, "mailto:")
	if !emailRegex.MatchString(s) {
		return "", false
	}
	return s, true
}
