// Package normalizer turns raw model rows into validated, classified records.
package normalizer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"modelcharts/internal/models"
)

// ErrUnknownAxisField is returned when an axis names a field the normalizer cannot read.
var ErrUnknownAxisField = errors.New("unknown axis field")

// AxisField names the record value plotted on an axis.
type AxisField string

// Supported axis fields.
const (
	AxisParameters  AxisField = "parameters"
	AxisDatasetSize AxisField = "dataset_size"
	AxisYear        AxisField = "year"
)

// Valid reports whether f is a supported axis field.
func (f AxisField) Valid() bool {
	switch f {
	case AxisParameters, AxisDatasetSize, AxisYear:
		return true
	default:
		return false
	}
}

// Axis describes one chart axis.
type Axis struct {
	Field AxisField `yaml:"field"`
	Log   bool      `yaml:"log"`
}

// FieldMap holds the source column names for each record field.
type FieldMap struct {
	Name         string `yaml:"name"`
	Organization string `yaml:"organization"`
	Domain       string `yaml:"domain"`
	Parameters   string `yaml:"parameters"`
	DatasetSize  string `yaml:"dataset_size"`
	Date         string `yaml:"date"`
	Year         string `yaml:"year"`
	Confidence   string `yaml:"confidence"`
	Frontier     string `yaml:"frontier"`
	Notability   string `yaml:"notability"`
}

// DefaultFieldMap matches the columns of the bundled extraction queries.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Name:         "model",
		Organization: "organization",
		Domain:       "domain",
		Parameters:   "parameters",
		DatasetSize:  "training_dataset_size_datapoints",
		Date:         "publication_date",
		Year:         "release_year",
		Confidence:   "confidence",
		Frontier:     "frontier_model",
		Notability:   "notability_criteria",
	}
}

// Options configures a Normalizer for one chart.
type Options struct {
	Fields       FieldMap
	X            Axis
	Y            Axis
	CategoryMode CategoryMode
	Delimiter    string
	Rules        []Rule
}

// Normalizer validates and classifies raw rows for one chart.
type Normalizer struct {
	classifier *Classifier
	opts       Options
}

// NewNormalizer creates a normalizer. A nil rule table falls back to DefaultRules.
func NewNormalizer(opts Options) (*Normalizer, error) {
	for _, axis := range []Axis{opts.X, opts.Y} {
		if !axis.Field.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAxisField, axis.Field)
		}
	}

	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules()
	}

	return &Normalizer{
		classifier: NewClassifier(rules, opts.CategoryMode, opts.Delimiter),
		opts:       opts,
	}, nil
}

// Classifier exposes the domain classifier used by this normalizer.
func (n *Normalizer) Classifier() *Classifier {
	return n.classifier
}

// Normalize validates one row. Any returned error is a *ValidationError and
// means the record should be skipped.
func (n *Normalizer) Normalize(raw models.RawRecord) (*models.NormalizedRecord, error) {
	f := n.opts.Fields

	name := raw.String(f.Name)
	if name == "" {
		return nil, &ValidationError{Field: f.Name, Err: ErrMissingName}
	}

	year, err := n.year(raw)
	if err != nil {
		return nil, err
	}

	domain := raw.String(f.Domain)
	primary, category := n.classifier.Classify(domain)

	rec := &models.NormalizedRecord{
		Name:            name,
		Organization:    raw.String(f.Organization),
		Domain:          domain,
		PrimaryDomain:   primary,
		Category:        category,
		Parameters:      optionalNumber(raw, f.Parameters),
		DatasetSize:     optionalNumber(raw, f.DatasetSize),
		Year:            year,
		PublicationDate: raw.String(f.Date),
		Confidence:      raw.String(f.Confidence),
		Frontier:        parseBool(raw, f.Frontier),
		Notability:      raw.String(f.Notability),
	}

	if rec.X, err = n.axisValue(raw, rec, n.opts.X); err != nil {
		return nil, err
	}

	if rec.Y, err = n.axisValue(raw, rec, n.opts.Y); err != nil {
		return nil, err
	}

	return rec, nil
}

// year prefers the year column and falls back to the publication date.
func (n *Normalizer) year(raw models.RawRecord) (*int, error) {
	f := n.opts.Fields

	for _, field := range []string{f.Year, f.Date} {
		v, ok := raw.Value(field)
		if !ok {
			continue
		}

		y, present, err := ParseYear(v)
		if err != nil {
			return nil, &ValidationError{Field: field, Err: fmt.Errorf("%w: %v", ErrUnparseableDate, v)}
		}

		if present {
			return &y, nil
		}
	}

	return nil, nil
}

func (n *Normalizer) axisValue(raw models.RawRecord, rec *models.NormalizedRecord, axis Axis) (float64, error) {
	f := n.opts.Fields

	switch axis.Field {
	case AxisParameters:
		return requireNumber(raw, f.Parameters, axis.Log)
	case AxisDatasetSize:
		return requireNumber(raw, f.DatasetSize, axis.Log)
	case AxisYear:
		if rec.Year == nil {
			field := f.Year
			if field == "" {
				field = f.Date
			}

			return 0, &ValidationError{Field: field, Err: ErrMissingValue}
		}

		return float64(*rec.Year), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAxisField, axis.Field)
	}
}

func parseBool(raw models.RawRecord, field string) *bool {
	v, ok := raw.Value(field)
	if !ok {
		return nil
	}

	var b bool

	switch t := v.(type) {
	case bool:
		b = t
	case int64:
		b = t != 0
	case float64:
		b = t != 0
	default:
		s := strings.ToLower(raw.String(field))
		if s == "" {
			return nil
		}

		parsed, err := strconv.ParseBool(s)
		if err == nil {
			b = parsed

			break
		}

		switch s {
		case "yes", "y":
			b = true
		case "no", "n":
			b = false
		default:
			return nil
		}
	}

	return &b
}
