package coerce

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

// Excel stores dates as days since 1899-12-30. Serials outside this band
// are treated as ordinary numbers rather than dates: 25569 is 1970-01-01 and
// 100000 is in the year 2173.
const (
	MinExcelSerial = 25569
	MaxExcelSerial = 100000
)

var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years more than this many years past the reference year are assumed to be
// in the previous century.
var TwoDigitYearPivot = 20

var (
	isoDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	serialRegex  = regexp.MustCompile(`^\d+(\.\d+)?$`)
	compactRegex = regexp.MustCompile(`^\d{8}$`)
)

// Date layouts split by year format for proper 2-digit year handling.
// Slash and dash forms are read month-first.
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06", "2-Jan-06", "02-Jan-06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006/01/02", "2006/1/2", "2006.01.02",
		"Jan 2, 2006", "Jan 2 2006", "January 2, 2006", "January 2 2006",
		"2 Jan 2006", "2 January 2006", "2-Jan-2006", "02-Jan-2006",
		"Mon, Jan 2, 2006", "Monday, January 2, 2006",
		"1/2/2006 15:04", "1/2/2006 15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04",
	}
)

// Date converts a cell to "YYYY-MM-DD".
//
// Numbers (and numeric strings) are read as Excel serial dates when their
// integer part lies in [MinExcelSerial, MaxExcelSerial]; anything else numeric
// is rejected. Strings are tried as ISO first, then RFC 3339, then the
// locale layouts above. Two-digit years pivot on the current year.
func Date(raw any) (string, bool) {
	return DateAt(raw, time.Now())
}

// DateAt is Date with two-digit years pivoting on now's year.
func DateAt(raw any, now time.Time) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", false
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		return v.Format(isoLayout), true
	case float64:
		return serialDate(v)
	case float32:
		return serialDate(float64(v))
	case int:
		return serialDate(float64(v))
	case int64:
		return serialDate(float64(v))
	case int32:
		return serialDate(float64(v))
	}

	s := CleanCell(Stringify(raw))
	if s == "" {
		return "", false
	}

	if compactRegex.MatchString(s) {
		if t, err := time.Parse("20060102", s); err == nil {
			return t.Format(isoLayout), true
		}
	}
	if serialRegex.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "", false
		}
		return serialDate(f)
	}

	return parseDateString(s, now.Year())
}

// FromExcelSerial converts an Excel serial day number to a calendar date.
func FromExcelSerial(serial float64) time.Time {
	days := int(math.Floor(serial))
	return excelEpoch.AddDate(0, 0, days)
}

func serialDate(f float64) (string, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	whole := math.Floor(f)
	if whole < MinExcelSerial || whole > MaxExcelSerial {
		return "", false
	}
	return FromExcelSerial(f).Format(isoLayout), true
}

func parseDateString(s string, refYear int) (string, bool) {
	// ISO must round-trip exactly, so 2024-02-30 is rejected rather than normalized.
	if isoDateRegex.MatchString(s) {
		t, err := time.Parse(isoLayout, s)
		if err != nil {
			return "", false
		}
		return t.Format(isoLayout), true
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(isoLayout), true
	}
	if strings.Contains(s, "T") {
		if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
			return t.Format(isoLayout), true
		}
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoLayout), true
		}
	}

	// Two-digit years land in the hundred years ending at the pivot year.
	pivotYear := refYear + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		year := pivotYear/100*100 + t.Year()%100
		if year > pivotYear {
			year -= 100
		}
		return t.AddDate(year-t.Year(), 0, 0).Format(isoLayout), true
	}

	return "", false
}
