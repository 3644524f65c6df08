// Package stats consolidates tagged statistics rows into a sectioned report.
package stats

import (
	"strings"

	"modelcharts/internal/models"
)

// Diagnostics describes how rows were routed.
type Diagnostics struct {
	Routed  map[string]int
	Unknown map[string]int
	Ignored int
}

// Assembler routes statistics rows into report sections using an ordered rule table.
type Assembler struct {
	rules []Rule
	kinds map[string]Kind
}

// NewAssembler creates an assembler. Rules are evaluated in order; the first match wins.
// A section takes the kind of the first rule naming it; rows routed by a later rule
// with another kind are ignored.
func NewAssembler(rules []Rule) *Assembler {
	kinds := make(map[string]Kind, len(rules))
	for _, r := range rules {
		if _, ok := kinds[r.Section]; !ok {
			kinds[r.Section] = sectionKind(r.Kind)
		}
	}

	return &Assembler{rules: rules, kinds: kinds}
}

func sectionKind(k Kind) Kind {
	switch k {
	case KindList, KindKeyed:
		return k
	default:
		return KindObject
	}
}

// Assemble builds the report. Every section named by a rule is present, empty
// when no row reached it. Rows matching no rule are counted and dropped.
func (a *Assembler) Assemble(rows []models.RawRecord) (models.StatisticsReport, Diagnostics) {
	report := make(models.StatisticsReport)
	diag := Diagnostics{
		Routed:  make(map[string]int),
		Unknown: make(map[string]int),
	}

	objects := make(map[string]*object)
	keyed := make(map[string]map[string]*object)

	for _, r := range a.rules {
		if _, ok := report[r.Section]; ok {
			continue
		}

		switch sectionKind(r.Kind) {
		case KindList:
			report[r.Section] = []map[string]any{}
		case KindKeyed:
			report[r.Section] = map[string]any{}
			keyed[r.Section] = make(map[string]*object)
		default:
			report[r.Section] = map[string]any{}
		}
	}

	for _, row := range rows {
		rule, ok := a.route(row)
		if ok && sectionKind(rule.Kind) != a.kinds[rule.Section] {
			ok = false
		}

		if !ok {
			diag.Ignored++
			diag.Unknown[a.discriminatorValue(row)]++

			continue
		}

		diag.Routed[rule.Section]++

		switch sectionKind(rule.Kind) {
		case KindList:
			report[rule.Section] = append(report[rule.Section].([]map[string]any), project(rule.Fields, row))
		case KindKeyed:
			key := row.String(rule.keyField())
			section := report[rule.Section].(map[string]any)

			if len(rule.Fields) == 0 {
				section[key] = project(nil, row)

				continue
			}

			obj, ok := keyed[rule.Section][key]
			if !ok {
				obj = newObject(rule.Fields)
				keyed[rule.Section][key] = obj
			}

			obj.merge(rule.Fields, row)
			section[key] = obj.values
		default:
			obj, ok := objects[rule.Section]
			if !ok {
				obj = newObject(rule.Fields)
				objects[rule.Section] = obj
			}

			obj.merge(rule.Fields, row)
			report[rule.Section] = obj.values
		}
	}

	for _, obj := range objects {
		obj.orderRanges()
	}

	for _, section := range keyed {
		for _, obj := range section {
			obj.orderRanges()
		}
	}

	return report, diag
}

func (a *Assembler) route(row models.RawRecord) (Rule, bool) {
	for _, r := range a.rules {
		if r.matches(row.String(r.Discriminator)) {
			return r, true
		}
	}

	return Rule{}, false
}

// discriminatorValue labels an unrouted row for diagnostics.
func (a *Assembler) discriminatorValue(row models.RawRecord) string {
	seen := make(map[string]bool)

	for _, r := range a.rules {
		if seen[r.Discriminator] {
			continue
		}

		seen[r.Discriminator] = true

		if v := row.String(r.Discriminator); v != "" {
			return r.Discriminator + "=" + v
		}
	}

	return "<none>"
}

// project copies the mapped fields of row, or the whole row when fields is empty.
// Absent fields are kept as nil so they encode as null.
func project(fields []Field, row models.RawRecord) map[string]any {
	if len(fields) == 0 {
		out := make(map[string]any, len(row))
		for k, v := range row {
			out[k] = v
		}

		return out
	}

	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, _ := row.Value(f.source())
		out[f.Out] = v
	}

	return out
}

type object struct {
	values map[string]any
}

func newObject(fields []Field) *object {
	values := make(map[string]any, len(fields))
	for _, f := range fields {
		values[f.Out] = nil
	}

	return &object{values: values}
}

func (o *object) merge(fields []Field, row models.RawRecord) {
	for _, f := range fields {
		v, present := row.Value(f.source())
		cur := o.values[f.Out]

		switch f.Merge {
		case MergeMin, MergeMax:
			if !present {
				continue
			}

			if cur == nil {
				o.values[f.Out] = v

				continue
			}

			nv, ok1 := models.Number(v)
			cv, ok2 := models.Number(cur)

			if ok1 && (!ok2 || (f.Merge == MergeMin && nv < cv) || (f.Merge == MergeMax && nv > cv)) {
				o.values[f.Out] = v
			}
		case MergeSum:
			nv, ok := models.Number(v)
			if !present || !ok {
				continue
			}

			cv, _ := models.Number(cur)
			o.values[f.Out] = cv + nv
		case MergeCount:
			nv, ok := models.Number(v)
			if !present || !ok {
				nv = 1
			}

			cv, _ := models.Number(cur)
			o.values[f.Out] = cv + nv
		default:
			if cur == nil && present {
				o.values[f.Out] = v
			}
		}
	}
}

// orderRanges swaps each min*/max* pair that came out inverted.
func (o *object) orderRanges() {
	for key, minV := range o.values {
		rest, ok := strings.CutPrefix(key, "min")
		if !ok {
			continue
		}

		maxKey := "max" + rest

		maxV, ok := o.values[maxKey]
		if !ok {
			continue
		}

		lo, ok1 := models.Number(minV)
		hi, ok2 := models.Number(maxV)

		if ok1 && ok2 && lo > hi {
			o.values[key], o.values[maxKey] = maxV, minV
		}
	}
}
