package sink

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modelcharts/internal/models"
)

func testDocument() *models.ChartDocument {
	params := 1e9

	return models.NewChartDocument([]models.Series{
		{
			Name: "Language & Text",
			Type: models.SeriesTypeScatter,
			Data: []models.ChartPoint{
				{Name: "M<1>", PointMetadata: models.PointMetadata{Organization: "Org", Parameters: &params}, Value: [2]float64{9, 11}},
			},
		},
	})
}

func TestJSONSink_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts", "params")
	dataPath := filepath.Join(dir, "data.json")
	statPath := filepath.Join(dir, "stat.json")

	s := NewJSONSink(dataPath, statPath, true)

	report := models.StatisticsReport{
		"year_range": map[string]any{"min": 2012, "max": 2024},
	}

	if err := s.Write(context.Background(), testDocument(), report); err != nil {
		t.Fatalf("Write returned unexpected error: %v", err)
	}

	data, err := os.ReadFile(dataPath)
	if err != nil {
		t.Fatalf("Failed to read data.json: %v", err)
	}

	if !strings.Contains(string(data), `"Language & Text"`) || !strings.Contains(string(data), `"M<1>"`) {
		t.Errorf("data.json escaped HTML characters:\n%s", data)
	}

	if !strings.Contains(string(data), "\n  ") {
		t.Error("data.json is not indented")
	}

	var doc struct {
		Series []struct {
			Data []map[string]any `json:"data"`
		} `json:"series"`
		Domains     []string `json:"domains"`
		TotalModels int      `json:"total_models"`
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("data.json is not valid JSON: %v", err)
	}

	if doc.TotalModels != 1 || len(doc.Domains) != 1 {
		t.Errorf("decoded document = %+v", doc)
	}

	pt := doc.Series[0].Data[0]
	if pt["organization"] != "Org" || pt["parameters"] != 1e9 {
		t.Errorf("point metadata not flattened: %v", pt)
	}

	if _, ok := pt["training_dataset_size_datapoints"]; ok {
		t.Error("absent metadata should be omitted")
	}

	value, _ := pt["value"].([]any)
	if len(value) != 2 || math.Abs(value[0].(float64)-9) > 1e-12 {
		t.Errorf("value = %v, want [9 11]", pt["value"])
	}

	stat, err := os.ReadFile(statPath)
	if err != nil {
		t.Fatalf("Failed to read stat.json: %v", err)
	}

	if !strings.Contains(string(stat), `"year_range"`) {
		t.Errorf("stat.json missing section:\n%s", stat)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestJSONSink_Write_NilReport(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONSink(filepath.Join(dir, "data.json"), filepath.Join(dir, "stat.json"), false)

	if err := s.Write(context.Background(), testDocument(), nil); err != nil {
		t.Fatalf("Write returned unexpected error: %v", err)
	}

	stat, err := os.ReadFile(filepath.Join(dir, "stat.json"))
	if err != nil {
		t.Fatal(err)
	}

	if strings.TrimSpace(string(stat)) != "{}" {
		t.Errorf("stat.json = %q, want {}", stat)
	}
}

func TestJSONSink_Write_EncodeFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.json")

	if err := os.WriteFile(dataPath, []byte("previous"), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewJSONSink(dataPath, filepath.Join(dir, "stat.json"), false)

	report := models.StatisticsReport{"bad": math.NaN()}

	if err := s.Write(context.Background(), testDocument(), report); err == nil {
		t.Fatal("Write expected error for unencodable report, got nil")
	}

	data, _ := os.ReadFile(dataPath)
	if string(data) != "previous" {
		t.Errorf("data.json was replaced: %q", data)
	}

	if _, err := os.Stat(filepath.Join(dir, "stat.json")); !os.IsNotExist(err) {
		t.Error("stat.json should not exist")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the previous data.json, found %d entries", len(entries))
	}
}

func TestJSONSink_Write_StatRenameFailureRestoresData(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.json")
	statPath := filepath.Join(dir, "stat.json")

	// A non-empty directory cannot be replaced by a rename.
	if err := os.MkdirAll(filepath.Join(statPath, "keep"), 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		previous string
	}{
		{"no previous output", ""},
		{"previous output kept", `{"total_models":7}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_ = os.Remove(dataPath)

			if tt.previous != "" {
				if err := os.WriteFile(dataPath, []byte(tt.previous), 0644); err != nil {
					t.Fatal(err)
				}
			}

			if err := NewJSONSink(dataPath, statPath, false).Write(context.Background(), testDocument(), nil); err == nil {
				t.Fatal("Write expected error when stat.json is a directory, got nil")
			}

			data, err := os.ReadFile(dataPath)

			switch {
			case tt.previous == "" && !os.IsNotExist(err):
				t.Errorf("data.json exists after failed write: %s", data)
			case tt.previous != "" && string(data) != tt.previous:
				t.Errorf("data.json = %q (err %v), want previous content %q", data, err, tt.previous)
			}

			entries, _ := os.ReadDir(dir)
			for _, e := range entries {
				if strings.HasPrefix(e.Name(), ".") {
					t.Errorf("leftover staging file %s", e.Name())
				}
			}
		})
	}
}

func TestJSONSink_Write_Cancelled(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONSink(filepath.Join(dir, "data.json"), filepath.Join(dir, "stat.json"), false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Write(ctx, testDocument(), nil); err == nil {
		t.Fatal("Write expected error for cancelled context, got nil")
	}

	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("cancelled write created %d files", len(entries))
	}
}

func TestEncode_Compact(t *testing.T) {
	data, err := Encode(map[string]any{"a": "<b>"}, false)
	if err != nil {
		t.Fatalf("Encode returned unexpected error: %v", err)
	}

	if got := strings.TrimSpace(string(data)); got != `{"a":"<b>"}` {
		t.Errorf("Encode = %s", got)
	}
}
