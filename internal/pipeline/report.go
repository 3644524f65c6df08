package pipeline

import (
	"sort"
	"time"

	"modelcharts/internal/models"
)

// RunReport carries the diagnostics of one run.
type RunReport struct {
	// Document is the chart handed to the sink; nil when the run failed before aggregation.
	Document              *models.ChartDocument
	Skipped               map[string]int
	Ineligible            map[string]int
	UnknownDiscriminators map[string]int
	RunID                 string
	Chart                 string
	Extracted             int
	Usable                int
	StatRows              int
	IgnoredStatRows       int
	Series                int
	Duration              time.Duration
}

func newRunReport(runID, chart string) *RunReport {
	return &RunReport{
		RunID:                 runID,
		Chart:                 chart,
		Skipped:               make(map[string]int),
		Ineligible:            make(map[string]int),
		UnknownDiscriminators: make(map[string]int),
	}
}

// Dropped is the number of extracted rows that did not become chart points.
func (r *RunReport) Dropped() int {
	n := 0

	for _, c := range r.Skipped {
		n += c
	}

	for _, c := range r.Ineligible {
		n += c
	}

	return n
}

// Reasons lists every skip and ineligibility reason seen, sorted.
func (r *RunReport) Reasons() []string {
	seen := make(map[string]bool)

	var reasons []string

	for _, m := range []map[string]int{r.Skipped, r.Ineligible} {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				reasons = append(reasons, k)
			}
		}
	}

	sort.Strings(reasons)

	return reasons
}
