// Package models defines the records and documents that flow through the extraction pipeline.
package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawRecord is one row as returned by a row source, keyed by column name.
// Values are whatever the driver produced: int64, float64, string, bool, time.Time or nil.
type RawRecord map[string]any

// Has reports whether the field is present with a non-nil value.
func (r RawRecord) Has(field string) bool {
	_, ok := r.Value(field)

	return ok
}

// Value returns the field value, treating nil as absent.
func (r RawRecord) Value(field string) (any, bool) {
	if field == "" {
		return nil, false
	}

	v, ok := r[field]
	if !ok || v == nil {
		return nil, false
	}

	return v, true
}

// String returns the field rendered as trimmed text, or "" when absent.
func (r RawRecord) String(field string) string {
	v, ok := r.Value(field)
	if !ok {
		return ""
	}

	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case time.Time:
		return t.Format("2006-01-02")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Number converts a driver value to float64. Numeric strings are accepted;
// NaN and infinities are not.
func Number(v any) (float64, bool) {
	var f float64

	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint64:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", ""), 64)
		if err != nil {
			return 0, false
		}

		f = parsed
	case []byte:
		return Number(string(t))
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}
