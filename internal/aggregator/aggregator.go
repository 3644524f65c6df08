// Package aggregator groups normalized records into chart series and per-year summaries.
package aggregator

import (
	"sort"
	"strings"

	"modelcharts/internal/models"
)

// Entry is a chart point waiting to be grouped under its category.
type Entry struct {
	Category string
	Point    models.ChartPoint
}

// ValueFunc selects the value summarized for a record; ok is false to leave the record out.
type ValueFunc func(rec *models.NormalizedRecord) (float64, bool)

// Aggregator builds series in first-seen category order.
type Aggregator struct {
	palette []string
}

// NewAggregator creates an aggregator. Series are colored from palette in order,
// wrapping around; an empty palette leaves colors to the front end.
func NewAggregator(palette []string) *Aggregator {
	return &Aggregator{palette: palette}
}

// CategoryKey is the equality key for category labels: trimmed, inner
// whitespace collapsed, case-folded.
func CategoryKey(label string) string {
	return strings.ToLower(displayLabel(label))
}

func displayLabel(label string) string {
	return strings.Join(strings.Fields(label), " ")
}

// GroupSeries puts every entry into the series of its category. Series appear in
// the order their category was first seen; points keep their input order.
func (a *Aggregator) GroupSeries(entries []Entry) []models.Series {
	index := make(map[string]int)

	var series []models.Series

	for _, e := range entries {
		key := CategoryKey(e.Category)

		i, ok := index[key]
		if !ok {
			i = len(series)
			index[key] = i
			series = append(series, models.Series{
				Name:      displayLabel(e.Category),
				Type:      models.SeriesTypeScatter,
				Data:      []models.ChartPoint{},
				ItemStyle: a.color(i),
			})
		}

		series[i].Data = append(series[i].Data, e.Point)
	}

	return series
}

func (a *Aggregator) color(i int) *models.ItemStyle {
	if len(a.palette) == 0 {
		return nil
	}

	return &models.ItemStyle{Color: a.palette[i%len(a.palette)]}
}

type bucket struct {
	count int
	min   float64
	max   float64
	sum   float64
}

func (b *bucket) add(v float64) {
	if b.count == 0 || v < b.min {
		b.min = v
	}

	if b.count == 0 || v > b.max {
		b.max = v
	}

	b.count++
	b.sum += v
}

// Summarize produces one row per (category, year) with count, min, max and
// average of value. Records without a year or value are left out. Categories
// keep first-seen order; years ascend within a category.
func (a *Aggregator) Summarize(records []*models.NormalizedRecord, value ValueFunc) []models.SummaryRow {
	var order []string

	labels := make(map[string]string)
	buckets := make(map[string]map[int]*bucket)

	for _, rec := range records {
		if rec.Year == nil {
			continue
		}

		v, ok := value(rec)
		if !ok {
			continue
		}

		key := CategoryKey(rec.Category)

		years, seen := buckets[key]
		if !seen {
			years = make(map[int]*bucket)
			buckets[key] = years
			labels[key] = displayLabel(rec.Category)
			order = append(order, key)
		}

		b, ok := years[*rec.Year]
		if !ok {
			b = &bucket{}
			years[*rec.Year] = b
		}

		b.add(v)
	}

	rows := []models.SummaryRow{}

	for _, key := range order {
		years := make([]int, 0, len(buckets[key]))
		for y := range buckets[key] {
			years = append(years, y)
		}

		sort.Ints(years)

		for _, y := range years {
			b := buckets[key][y]
			rows = append(rows, models.SummaryRow{
				Category: labels[key],
				Year:     y,
				Count:    b.count,
				Min:      b.min,
				Max:      b.max,
				Avg:      b.sum / float64(b.count),
			})
		}
	}

	return rows
}

// ParametersValue summarizes raw parameter counts.
func ParametersValue(rec *models.NormalizedRecord) (float64, bool) {
	if rec.Parameters == nil {
		return 0, false
	}

	return *rec.Parameters, true
}

// DatasetSizeValue summarizes raw training dataset sizes.
func DatasetSizeValue(rec *models.NormalizedRecord) (float64, bool) {
	if rec.DatasetSize == nil {
		return 0, false
	}

	return *rec.DatasetSize, true
}
