// Package formatter renders run summaries as aligned markdown tables.
package formatter

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"modelcharts/internal/models"
)

// FormatTable renders a markdown table. Columns are padded to the widest cell
// by display width, so CJK and emoji cells stay aligned.
func FormatTable(header []string, rows [][]string) string {
	colCount := len(header)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	if colCount == 0 {
		return ""
	}

	// Ensure min width for separator (usually 3 dashes "---")
	colWidths := make([]int, colCount)
	for i := range colWidths {
		colWidths[i] = 3
	}

	for _, row := range append([][]string{header}, rows...) {
		for i := 0; i < len(row) && i < colCount; i++ {
			if width := runewidth.StringWidth(strings.TrimSpace(row[i])); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, formatRow(header, colWidths, false), formatRow(nil, colWidths, true))

	for _, row := range rows {
		lines = append(lines, formatRow(row, colWidths, false))
	}

	return strings.Join(lines, "\n") + "\n"
}

func formatRow(row []string, colWidths []int, separator bool) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, width := range colWidths {
		sb.WriteString(" ")

		if separator {
			sb.WriteString(strings.Repeat("-", width))
		} else {
			content := ""
			if j < len(row) {
				content = strings.TrimSpace(row[j])
			}

			sb.WriteString(content)

			// Pad with spaces based on display width
			if padding := width - runewidth.StringWidth(content); padding > 0 {
				sb.WriteString(strings.Repeat(" ", padding))
			}
		}

		sb.WriteString(" |")
	}

	return sb.String()
}

// SeriesTable summarizes a chart document: one row per series with its model
// count, share of all models and parameter range.
func SeriesTable(doc *models.ChartDocument) string {
	header := []string{"Category", "Models", "Share", "Smallest", "Largest"}

	rows := make([][]string, 0, len(doc.Series)+1)

	for _, s := range doc.Series {
		smallest, largest := parameterRange(s.Data)
		rows = append(rows, []string{
			s.Name,
			humanize.Comma(int64(len(s.Data))),
			share(len(s.Data), doc.TotalModels),
			smallest,
			largest,
		})
	}

	rows = append(rows, []string{"Total", humanize.Comma(int64(doc.TotalModels)), share(doc.TotalModels, doc.TotalModels), "", ""})

	return FormatTable(header, rows)
}

// Parameters formats a parameter count with an SI prefix, e.g. "175 G".
func Parameters(v float64) string {
	return strings.TrimSpace(humanize.SIWithDigits(v, 1, ""))
}

func parameterRange(points []models.ChartPoint) (string, string) {
	var (
		lo, hi float64
		seen   bool
	)

	for _, p := range points {
		if p.Parameters == nil {
			continue
		}

		v := *p.Parameters
		if !seen || v < lo {
			lo = v
		}

		if !seen || v > hi {
			hi = v
		}

		seen = true
	}

	if !seen {
		return "-", "-"
	}

	return Parameters(lo), Parameters(hi)
}

func share(n, total int) string {
	if total == 0 {
		return "-"
	}

	return fmt.Sprintf("%.1f%%", float64(n)*100/float64(total))
}
