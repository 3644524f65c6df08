package normalizer

import (
	"errors"
	"fmt"

	"modelcharts/internal/logscale"
	"modelcharts/internal/models"
)

// Per-record validation errors.
var (
	ErrMissingName     = errors.New("missing model name")
	ErrUnparseableDate = errors.New("unparseable date")
	ErrMissingValue    = errors.New("missing value")
	ErrNotNumeric      = errors.New("value is not numeric")
	ErrNonPositive     = errors.New("value is not positive")
)

// Skip reasons used as diagnostic counter keys.
const (
	ReasonMissingName     = "missing_name"
	ReasonUnparseableDate = "unparseable_date"
	ReasonMissingValue    = "missing_value"
	ReasonNotNumeric      = "not_numeric"
	ReasonNonPositive     = "non_positive"
	ReasonOther           = "other"
)

// ValidationError reports why a single record was skipped.
type ValidationError struct {
	Err   error
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Reason maps a skip error to its counter key.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissingName):
		return ReasonMissingName
	case errors.Is(err, ErrUnparseableDate):
		return ReasonUnparseableDate
	case errors.Is(err, ErrMissingValue):
		return ReasonMissingValue
	case errors.Is(err, ErrNotNumeric):
		return ReasonNotNumeric
	case errors.Is(err, ErrNonPositive):
		return ReasonNonPositive
	default:
		return ReasonOther
	}
}

// IsIneligible reports whether err rejected an axis value rather than the record itself.
func IsIneligible(err error) bool {
	return errors.Is(err, ErrMissingValue) || errors.Is(err, ErrNotNumeric) || errors.Is(err, ErrNonPositive)
}

// requireNumber reads a numeric axis value. Log-scaled axes additionally need v > 0.
func requireNumber(raw models.RawRecord, field string, logScaled bool) (float64, error) {
	v, ok := raw.Value(field)
	if !ok {
		return 0, &ValidationError{Field: field, Err: ErrMissingValue}
	}

	f, ok := models.Number(v)
	if !ok {
		return 0, &ValidationError{Field: field, Err: ErrNotNumeric}
	}

	if logScaled && !logscale.Eligible(f) {
		return 0, &ValidationError{Field: field, Err: ErrNonPositive}
	}

	return f, nil
}

// optionalNumber returns nil for absent or non-numeric values.
func optionalNumber(raw models.RawRecord, field string) *float64 {
	v, ok := raw.Value(field)
	if !ok {
		return nil
	}

	f, ok := models.Number(v)
	if !ok {
		return nil
	}

	return &f
}
