// Package schema declares the record types the import pipeline understands
// and the field rules each of them is validated against.
//
// Schemas are pure data. They are registered at init time and looked up by
// RecordType; nothing in this package touches a file, a database, or the clock.
package schema

import (
	"errors"
	"regexp"
	"strings"
)

// ErrUnknownRecordType is returned when a record type has no registered schema.
var ErrUnknownRecordType = errors.New("unknown record type")

// RecordType identifies a kind of importable record.
type RecordType string

const (
	ReturnedPart RecordType = "returned_part"
	Order        RecordType = "order"
)

// FieldType is the coercion applied to a field's raw cell value.
type FieldType int

const (
	FieldText FieldType = iota
	FieldDate
	FieldEmail
	FieldEnum
	FieldStatus
	FieldReason
)

// String returns the lowercase name used in API payloads.
func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "string"
	case FieldDate:
		return "date"
	case FieldEmail:
		return "email"
	case FieldEnum:
		return "enum"
	case FieldStatus:
		return "status"
	case FieldReason:
		return "reason"
	default:
		return "unknown"
	}
}

// FieldSpec defines validation rules for a single record field.
type FieldSpec struct {
	Name             string         // Canonical key, e.g. "partNumber"
	Label            string         // Display name, e.g. "Part Number"
	Type             FieldType      // Coercion applied before constraints
	Required         bool           // Empty value is an error
	Recommended      bool           // Empty value is a warning
	RecommendMessage string         // Warning text when a recommended field is empty
	MinLength        int            // Minimum rune count (0 = unchecked)
	MaxLength        int            // Maximum rune count (0 = unchecked)
	Pattern          *regexp.Regexp // Optional format constraint, error on mismatch
	AllowedValues    []string       // Advisory vocabulary, warning on mismatch
	Synonyms         []string       // Alternate header spellings for fuzzy mapping
	Lifecycle        *Lifecycle     // Status vocabulary for FieldStatus fields
}

// Allows reports whether v is one of the field's allowed values.
// Fields without a vocabulary allow everything, and a reason field always
// allows the default reason it is filled with.
func (f FieldSpec) Allows(v string) bool {
	if len(f.AllowedValues) == 0 {
		return true
	}
	if f.Type == FieldReason && strings.EqualFold(v, DefaultReturnReason) {
		return true
	}
	for _, a := range f.AllowedValues {
		if strings.EqualFold(a, v) {
			return true
		}
	}
	return false
}

// Rule maps a lowercase substring of a free-text status to a lifecycle stage.
type Rule struct {
	Keyword string
	Stage   string
}

// Lifecycle is an ordered status vocabulary.
// Rules are evaluated in order; the first stage is the default.
type Lifecycle struct {
	Stages []string
	Rules  []Rule
}

// Initial returns the stage assigned when a status is missing or unrecognized.
func (l *Lifecycle) Initial() string {
	if l == nil || len(l.Stages) == 0 {
		return ""
	}
	return l.Stages[0]
}

// Schema describes one importable record type.
type Schema struct {
	Type   RecordType
	Label  string
	Fields []FieldSpec

	// UniqueKey lists the fields that identify a record within one file.
	// Repeats are reported as warnings.
	UniqueKey []string

	// ShippedField and ArrivalField name the date pair checked for ordering.
	// Either may be empty when the record type has no such pair.
	ShippedField string
	ArrivalField string

	// Example rows written by template export, keyed by field name.
	Example []map[string]string
}

// Field returns the spec with the given name.
func (s Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FieldNames returns the canonical field names in declaration order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Required returns the names of required fields.
func (s Schema) Required() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}
