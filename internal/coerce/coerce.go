// Package coerce turns raw spreadsheet cells into canonical field values.
//
// Spreadsheet cells arrive as strings, numbers, or dates depending on how the
// file was produced. Every function here is total: it never panics and never
// returns an error. A false ok result means the cell is empty or could not be
// understood, and the caller decides whether that matters.
//
// Canonical forms:
//   - dates are "YYYY-MM-DD"
//   - statuses are a lifecycle stage such as "in_transit"
//   - reasons are one of the canonical reasons, the trimmed original, or the default
//   - emails are lowercase local@domain.tld
package coerce

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

// Coerce converts raw into the canonical form for t.
// Status fields use the returned-part lifecycle; use Field for other lifecycles.
func Coerce(raw any, t schema.FieldType) (string, bool) {
	return coerce(raw, t, schema.ReturnLifecycle, nil, time.Now())
}

// Field converts raw using the spec's own type and vocabulary.
func Field(raw any, spec schema.FieldSpec) (string, bool) {
	return FieldAt(raw, spec, time.Now())
}

// FieldAt is Field with dates read relative to now.
func FieldAt(raw any, spec schema.FieldSpec, now time.Time) (string, bool) {
	lc := spec.Lifecycle
	if lc == nil {
		lc = schema.ReturnLifecycle
	}
	return coerce(raw, spec.Type, lc, spec.AllowedValues, now)
}

func coerce(raw any, t schema.FieldType, lc *schema.Lifecycle, allowed []string, now time.Time) (string, bool) {
	switch t {
	case schema.FieldDate:
		return DateAt(raw, now)
	case schema.FieldStatus:
		return Status(Stringify(raw), lc), true
	case schema.FieldReason:
		return Reason(Stringify(raw)), true
	case schema.FieldEmail:
		return Email(Stringify(raw))
	case schema.FieldEnum:
		return Enum(Stringify(raw), allowed)
	default:
		return Text(Stringify(raw))
	}
}

// Stringify renders any cell value as text.
// Floats use the shortest representation so 45306.0 becomes "45306".
func Stringify(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(isoLayout)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// IsBlank reports whether a cell holds nothing but whitespace.
func IsBlank(raw any) bool {
	return strings.TrimSpace(Stringify(raw)) == ""
}

// Text trims a free-text cell and strips spreadsheet export artifacts.
func Text(s string) (string, bool) {
	s = CleanCell(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// Enum trims the value and, when it matches the vocabulary case-insensitively,
// returns the vocabulary's spelling. Out-of-vocabulary values pass through.
func Enum(s string, allowed []string) (string, bool) {
	s, ok := Text(s)
	if !ok {
		return "", false
	}
	for _, a := range allowed {
		if strings.EqualFold(a, s) {
			return a, true
		}
	}
	return s, true
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)

	return strings.TrimSpace(s)
}
