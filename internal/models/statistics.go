package models

import "sort"

// StatisticsReport maps a section name to its content: a map[string]any for
// object and keyed sections, a []map[string]any (or []SummaryRow) for lists.
type StatisticsReport map[string]any

// SectionNames returns the report's section names, sorted.
func (r StatisticsReport) SectionNames() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
