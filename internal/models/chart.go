package models

// SeriesTypeScatter is the only series type the front end renders.
const SeriesTypeScatter = "scatter"

// PointMetadata is the tooltip payload of a chart point.
type PointMetadata struct {
	Parameters      *float64 `json:"parameters,omitempty"`
	DatasetSize     *float64 `json:"training_dataset_size_datapoints,omitempty"`
	Year            *int     `json:"year,omitempty"`
	Frontier        *bool    `json:"frontier_model,omitempty"`
	Organization    string   `json:"organization"`
	PublicationDate string   `json:"publication_date,omitempty"`
	Domain          string   `json:"domain,omitempty"`
	Confidence      string   `json:"confidence,omitempty"`
	Notability      string   `json:"notability,omitempty"`
}

// ChartPoint is one plotted model. A point belongs to exactly one series.
type ChartPoint struct {
	Name string `json:"name"`
	PointMetadata
	Value [2]float64 `json:"value"`
}

// ItemStyle carries the series color.
type ItemStyle struct {
	Color string `json:"color"`
}

// Series is a named group of points sharing one category.
type Series struct {
	ItemStyle *ItemStyle   `json:"itemStyle,omitempty"`
	Name      string       `json:"name"`
	Type      string       `json:"type"`
	Data      []ChartPoint `json:"data"`
}

// Legend lists series names in display order.
type Legend struct {
	Data []string `json:"data"`
}

// ChartDocument is the chart payload handed to the sink.
type ChartDocument struct {
	Series      []Series `json:"series"`
	Domains     []string `json:"domains"`
	Legend      Legend   `json:"legend"`
	TotalModels int      `json:"total_models"`
}

// NewChartDocument derives domains, legend and total from the series list.
func NewChartDocument(series []Series) *ChartDocument {
	names := make([]string, 0, len(series))
	total := 0

	for _, s := range series {
		names = append(names, s.Name)
		total += len(s.Data)
	}

	return &ChartDocument{
		Series:      series,
		Domains:     names,
		Legend:      Legend{Data: append([]string(nil), names...)},
		TotalModels: total,
	}
}

// SummaryRow aggregates one (category, year) bucket.
type SummaryRow struct {
	Category string  `json:"category"`
	Year     int     `json:"year"`
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Avg      float64 `json:"avg"`
}
