package formatter

import (
	"strings"
	"testing"

	"modelcharts/internal/models"
)

func TestFormatTable(t *testing.T) {
	tests := []struct {
		name     string
		header   []string
		rows     [][]string
		expected string
	}{
		{
			name:   "Basic table formatting",
			header: []string{"Header 1", "Header 2"},
			rows:   [][]string{{"val 1", "val 2"}},
			expected: `| Header 1 | Header 2 |
| -------- | -------- |
| val 1    | val 2    |
`,
		},
		{
			name:   "Minimum separator width",
			header: []string{"A", "B"},
			rows:   [][]string{{"x", "y"}},
			expected: `| A   | B   |
| --- | --- |
| x   | y   |
`,
		},
		{
			name:   "Trim spaces and pad short rows",
			header: []string{"Col A", "Col B"},
			rows:   [][]string{{"  val A  "}},
			expected: `| Col A | Col B |
| ----- | ----- |
| val A |       |
`,
		},
		{
			name:   "Wide characters",
			header: []string{"領域", "N"},
			rows:   [][]string{{"言語", "1"}, {"Vision", "2"}},
			expected: `| 領域   | N   |
| ------ | --- |
| 言語   | 1   |
| Vision | 2   |
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatTable(tt.header, tt.rows)
			if got != tt.expected {
				t.Errorf("FormatTable() mismatch.\nExpected:\n%q\nGot:\n%q", tt.expected, got)
			}
		})
	}
}

func TestFormatTable_Empty(t *testing.T) {
	if got := FormatTable(nil, nil); got != "" {
		t.Errorf("FormatTable(nil, nil) = %q, want empty", got)
	}
}

func TestSeriesTable(t *testing.T) {
	small, large := 6.3e8, 1.75e11

	doc := models.NewChartDocument([]models.Series{
		{Name: "Language", Data: []models.ChartPoint{
			{Name: "a", PointMetadata: models.PointMetadata{Parameters: &large}},
			{Name: "b", PointMetadata: models.PointMetadata{Parameters: &small}},
			{Name: "c"},
		}},
		{Name: "Vision", Data: []models.ChartPoint{{Name: "d"}}},
	})

	got := SeriesTable(doc)

	for _, want := range []string{
		"| Category | Models | Share  | Smallest | Largest |",
		"| Language | 3      | 75.0%  | 630 M    | 175 G   |",
		"| Vision   | 1      | 25.0%  | -        | -       |",
		"| Total    | 4      | 100.0% |          |         |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("SeriesTable() missing line %q in:\n%s", want, got)
		}
	}
}

func TestParameters(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.75e11, "175 G"},
		{1.5e12, "1.5 T"},
		{7e9, "7 G"},
		{500, "500"},
	}

	for _, tt := range tests {
		if got := Parameters(tt.in); got != tt.want {
			t.Errorf("Parameters(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
