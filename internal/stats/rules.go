package stats

import (
	"errors"
	"fmt"
	"strings"
)

// Rule table errors.
var (
	ErrNoRules              = errors.New("at least one statistics rule is required")
	ErrMissingDiscriminator = errors.New("rule discriminator is required")
	ErrMissingMatch         = errors.New("rule match is required")
	ErrMissingSection       = errors.New("rule section is required")
	ErrInvalidKind          = errors.New("rule kind must be one of: object, list, keyed")
	ErrInvalidMerge         = errors.New("field merge must be one of: first, min, max, sum, count")
	ErrMissingFieldOut      = errors.New("field out name is required")
	ErrObjectNeedsFields    = errors.New("object sections need at least one field")
	ErrConflictingKinds     = errors.New("section is used with different kinds")
	ErrPresetNotFound       = errors.New("unknown statistics preset")
)

// MatchAny matches every non-empty discriminator value.
const MatchAny = "*"

// Kind is the shape of a report section.
type Kind string

// Section kinds.
const (
	// KindObject merges all contributing rows into one object.
	KindObject Kind = "object"
	// KindList appends one entry per row.
	KindList Kind = "list"
	// KindKeyed holds one merged object per distinct key value.
	KindKeyed Kind = "keyed"
)

// Merge tells how repeated rows combine into one object field.
type Merge string

// Merge rules.
const (
	MergeFirst Merge = "first"
	MergeMin   Merge = "min"
	MergeMax   Merge = "max"
	MergeSum   Merge = "sum"
	// MergeCount adds the row's value, or 1 when the row has none.
	MergeCount Merge = "count"
)

// Field copies row column In into section key Out.
type Field struct {
	Out   string `yaml:"out"`
	In    string `yaml:"in,omitempty"`
	Merge Merge  `yaml:"merge,omitempty"`
}

func (f Field) source() string {
	if f.In == "" {
		return f.Out
	}

	return f.In
}

// Rule routes rows whose Discriminator column equals Match into Section.
type Rule struct {
	Discriminator string  `yaml:"discriminator"`
	Match         string  `yaml:"match"`
	Section       string  `yaml:"section"`
	Kind          Kind    `yaml:"kind"`
	KeyField      string  `yaml:"key_field,omitempty"`
	Fields        []Field `yaml:"fields,omitempty"`
}

func (r Rule) matches(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}

	if r.Match == MatchAny {
		return true
	}

	return strings.EqualFold(value, strings.TrimSpace(r.Match))
}

func (r Rule) keyField() string {
	if r.KeyField == "" {
		return r.Discriminator
	}

	return r.KeyField
}

// ValidateRules checks a rule table.
func ValidateRules(rules []Rule) error {
	if len(rules) == 0 {
		return ErrNoRules
	}

	kinds := make(map[string]Kind)

	for i, r := range rules {
		if r.Discriminator == "" {
			return fmt.Errorf("%w: rule[%d]", ErrMissingDiscriminator, i)
		}

		if strings.TrimSpace(r.Match) == "" {
			return fmt.Errorf("%w: rule[%d]", ErrMissingMatch, i)
		}

		if r.Section == "" {
			return fmt.Errorf("%w: rule[%d]", ErrMissingSection, i)
		}

		switch r.Kind {
		case KindObject, KindList, KindKeyed:
		default:
			return fmt.Errorf("%w: rule[%d] has %q", ErrInvalidKind, i, r.Kind)
		}

		if r.Kind == KindObject && len(r.Fields) == 0 {
			return fmt.Errorf("%w: rule[%d] section %q", ErrObjectNeedsFields, i, r.Section)
		}

		if prev, ok := kinds[r.Section]; ok && prev != r.Kind {
			return fmt.Errorf("%w: %q is %s and %s", ErrConflictingKinds, r.Section, prev, r.Kind)
		}

		kinds[r.Section] = r.Kind

		for j, f := range r.Fields {
			if f.Out == "" {
				return fmt.Errorf("%w: rule[%d].fields[%d]", ErrMissingFieldOut, i, j)
			}

			switch f.Merge {
			case "", MergeFirst, MergeMin, MergeMax, MergeSum, MergeCount:
			default:
				return fmt.Errorf("%w: rule[%d].fields[%d] has %q", ErrInvalidMerge, i, j, f.Merge)
			}
		}
	}

	return nil
}

// Preset names.
const (
	PresetByYear    = "by_year"
	PresetBreakdown = "breakdown"
)

// Preset returns a built-in rule table.
func Preset(name string) ([]Rule, error) {
	switch name {
	case PresetByYear:
		return ByYearRules(), nil
	case PresetBreakdown:
		return BreakdownRules(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
}

// ByYearRules matches the sections produced by the size-by-year statistics query.
func ByYearRules() []Rule {
	return []Rule{
		{
			Discriminator: "metric", Match: "Year Range", Section: "year_range", Kind: KindObject,
			Fields: []Field{
				{Out: "min", In: "min_value", Merge: MergeMin},
				{Out: "max", In: "max_value", Merge: MergeMax},
				{Out: "total_count", Merge: MergeCount},
			},
		},
		{
			Discriminator: "metric", Match: "Parameter Range", Section: "parameter_range", Kind: KindObject,
			Fields: []Field{
				{Out: "min", In: "min_value", Merge: MergeMin},
				{Out: "max", In: "max_value", Merge: MergeMax},
				{Out: "avg", In: "avg_value"},
				{Out: "min_log", In: "min_log_value", Merge: MergeMin},
				{Out: "max_log", In: "max_log_value", Merge: MergeMax},
				{Out: "avg_log", In: "avg_log_value"},
				{Out: "total_count", Merge: MergeCount},
			},
		},
		{
			Discriminator: "analysis_type", Match: "Domain Distribution", Section: "domain_distribution", Kind: KindList,
			Fields: []Field{
				{Out: "domain", In: "primary_domain"},
				{Out: "count", In: "model_count"},
				{Out: "percentage"},
			},
		},
		{
			Discriminator: "analysis_type", Match: "Models Per Year", Section: "models_per_year", Kind: KindList,
			Fields: []Field{
				{Out: "year"},
				{Out: "count", In: "model_count"},
				{Out: "avg_parameters"},
				{Out: "min_parameters"},
				{Out: "max_parameters"},
			},
		},
		{
			Discriminator: "analysis_type", Match: "Parameter Categories", Section: "parameter_categories", Kind: KindList,
			Fields: []Field{
				{Out: "category", In: "size_category"},
				{Out: "count", In: "model_count"},
				{Out: "min_params"},
				{Out: "max_params"},
			},
		},
	}
}

// BreakdownRules matches the parameters-vs-dataset statistics query: domain
// breakdown rows pass through and every metric row is keyed into basic_stats.
func BreakdownRules() []Rule {
	return []Rule{
		{Discriminator: "analysis_type", Match: "domain_breakdown", Section: "domain_breakdown", Kind: KindList},
		{
			Discriminator: "metric", Match: MatchAny, Section: "basic_stats", Kind: KindKeyed,
			Fields: []Field{
				{Out: "total_count"},
				{Out: "min_value", Merge: MergeMin},
				{Out: "max_value", Merge: MergeMax},
				{Out: "avg_value"},
				{Out: "median_value"},
			},
		},
	}
}
