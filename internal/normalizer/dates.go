package normalizer

import (
	"math"
	"strings"
	"time"

	"modelcharts/internal/models"
)

const (
	minYear = 1000
	maxYear = 9999
)

var dateLayouts = []string{
	"2006",
	"2006-01",
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseYear extracts a calendar year from a year number, a date string or a time value.
// present is false when v carries no date at all.
func ParseYear(v any) (year int, present bool, err error) {
	switch t := v.(type) {
	case nil:
		return 0, false, nil
	case time.Time:
		if t.IsZero() {
			return 0, false, nil
		}

		return t.Year(), true, nil
	case []byte:
		return ParseYear(string(t))
	case string:
		return parseYearString(t)
	}

	f, ok := models.Number(v)
	if !ok {
		return 0, true, ErrUnparseableDate
	}

	return yearFromNumber(f)
}

func parseYearString(s string) (int, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), true, nil
		}
	}

	// "2020.0" shows up when a year column was stored as REAL.
	if f, ok := models.Number(s); ok {
		return yearFromNumber(f)
	}

	return 0, true, ErrUnparseableDate
}

func yearFromNumber(f float64) (int, bool, error) {
	if f != math.Trunc(f) || f < minYear || f > maxYear {
		return 0, true, ErrUnparseableDate
	}

	return int(f), true, nil
}
