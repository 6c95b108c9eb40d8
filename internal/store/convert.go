package store

// convert.go turns normalized record strings into pgtype values for COPY.
//
// Records reaching the store have already been validated, so dates are ISO
// and emails lowercased. Conversion still returns Valid=false for empty or
// unparseable input so the database stores NULL rather than garbage.

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex matches a plain decimal after currency cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

func toPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toPgDate parses an ISO calendar date.
func toPgDate(s string) pgtype.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{Valid: false}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: t, Valid: true}
}

// toPgNumeric accepts amounts such as "$1,249.00", "(15.50)" and "-3".
func toPgNumeric(s string) pgtype.Numeric {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Numeric{Valid: false}
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "\u20ac", "", "\u00a3", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)
	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return pgtype.Numeric{Valid: false}
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func parsePgUUID(s string) (pgtype.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return toPgUUID(id), nil
}
