package normalizer

import (
	"errors"
	"testing"
	"time"

	"modelcharts/internal/models"
)

func paramsVsData(t *testing.T) *Normalizer {
	t.Helper()

	n, err := NewNormalizer(Options{
		Fields:       DefaultFieldMap(),
		X:            Axis{Field: AxisParameters, Log: true},
		Y:            Axis{Field: AxisDatasetSize, Log: true},
		CategoryMode: ModeOriginal,
	})
	if err != nil {
		t.Fatalf("NewNormalizer failed: %v", err)
	}

	return n
}

func sizeByYear(t *testing.T) *Normalizer {
	t.Helper()

	n, err := NewNormalizer(Options{
		Fields:       DefaultFieldMap(),
		X:            Axis{Field: AxisYear},
		Y:            Axis{Field: AxisParameters, Log: true},
		CategoryMode: ModeClassify,
	})
	if err != nil {
		t.Fatalf("NewNormalizer failed: %v", err)
	}

	return n
}

func TestNewNormalizer_UnknownAxis(t *testing.T) {
	_, err := NewNormalizer(Options{
		Fields: DefaultFieldMap(),
		X:      Axis{Field: "compute"},
		Y:      Axis{Field: AxisParameters},
	})
	if !errors.Is(err, ErrUnknownAxisField) {
		t.Fatalf("NewNormalizer error = %v, want ErrUnknownAxisField", err)
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	n := paramsVsData(t)

	raw := models.RawRecord{
		"model":                            "M1",
		"organization":                     "OrgA",
		"domain":                           "Language, Vision",
		"parameters":                       1e9,
		"training_dataset_size_datapoints": int64(100000000000),
		"publication_date":                 "2020-06-11",
		"confidence":                       "Confident",
		"frontier_model":                   int64(1),
	}

	rec, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize returned unexpected error: %v", err)
	}

	if rec.Name != "M1" || rec.Organization != "OrgA" {
		t.Errorf("Name/Organization = %q/%q, want M1/OrgA", rec.Name, rec.Organization)
	}

	if rec.Category != "Language" || rec.PrimaryDomain != "Language" {
		t.Errorf("Category = %q, PrimaryDomain = %q, want Language", rec.Category, rec.PrimaryDomain)
	}

	if rec.Domain != "Language, Vision" {
		t.Errorf("Domain = %q, want full domain string kept", rec.Domain)
	}

	if rec.X != 1e9 || rec.Y != 1e11 {
		t.Errorf("X, Y = %v, %v; want 1e9, 1e11", rec.X, rec.Y)
	}

	if rec.Year == nil || *rec.Year != 2020 {
		t.Errorf("Year = %v, want 2020", rec.Year)
	}

	if rec.Frontier == nil || !*rec.Frontier {
		t.Errorf("Frontier = %v, want true", rec.Frontier)
	}

	if rec.Confidence != "Confident" {
		t.Errorf("Confidence = %q, want Confident", rec.Confidence)
	}
}

func TestNormalizer_Normalize_Skips(t *testing.T) {
	n := paramsVsData(t)

	base := func() models.RawRecord {
		return models.RawRecord{
			"model":                            "M",
			"parameters":                       1e9,
			"training_dataset_size_datapoints": 1e10,
			"publication_date":                 "2021",
		}
	}

	tests := []struct {
		name       string
		mutate     func(models.RawRecord)
		wantErr    error
		wantReason string
		ineligible bool
	}{
		{
			name:       "Missing name",
			mutate:     func(r models.RawRecord) { delete(r, "model") },
			wantErr:    ErrMissingName,
			wantReason: ReasonMissingName,
		},
		{
			name:       "Bad date",
			mutate:     func(r models.RawRecord) { r["publication_date"] = "unknown" },
			wantErr:    ErrUnparseableDate,
			wantReason: ReasonUnparseableDate,
		},
		{
			name:       "Zero parameters",
			mutate:     func(r models.RawRecord) { r["parameters"] = int64(0) },
			wantErr:    ErrNonPositive,
			wantReason: ReasonNonPositive,
			ineligible: true,
		},
		{
			name:       "Negative dataset size",
			mutate:     func(r models.RawRecord) { r["training_dataset_size_datapoints"] = -1.0 },
			wantErr:    ErrNonPositive,
			wantReason: ReasonNonPositive,
			ineligible: true,
		},
		{
			name:       "Null parameters",
			mutate:     func(r models.RawRecord) { r["parameters"] = nil },
			wantErr:    ErrMissingValue,
			wantReason: ReasonMissingValue,
			ineligible: true,
		},
		{
			name:       "Text parameters",
			mutate:     func(r models.RawRecord) { r["parameters"] = "about a billion" },
			wantErr:    ErrNotNumeric,
			wantReason: ReasonNotNumeric,
			ineligible: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := base()
			tt.mutate(raw)

			rec, err := n.Normalize(raw)
			if rec != nil {
				t.Errorf("Normalize returned record %+v, want nil", rec)
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Normalize error = %v, want %v", err, tt.wantErr)
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("Normalize error %T is not *ValidationError", err)
			}

			if got := Reason(err); got != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got, tt.wantReason)
			}

			if got := IsIneligible(err); got != tt.ineligible {
				t.Errorf("IsIneligible = %v, want %v", got, tt.ineligible)
			}
		})
	}
}

func TestNormalizer_YearAxis(t *testing.T) {
	n := sizeByYear(t)

	rec, err := n.Normalize(models.RawRecord{
		"model":            "GPT-3",
		"domain":           "Language",
		"parameters":       1.75e11,
		"release_year":     int64(2020),
		"publication_date": "2019-01-01",
	})
	if err != nil {
		t.Fatalf("Normalize returned unexpected error: %v", err)
	}

	if rec.X != 2020 {
		t.Errorf("X = %v, want release_year 2020 to win over publication_date", rec.X)
	}

	rec, err = n.Normalize(models.RawRecord{
		"model":            "AlexNet",
		"domain":           "Vision",
		"parameters":       6e7,
		"publication_date": time.Date(2012, 9, 30, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Normalize returned unexpected error: %v", err)
	}

	if rec.X != 2012 || rec.Category != "Vision" {
		t.Errorf("X, Category = %v, %q; want 2012, Vision", rec.X, rec.Category)
	}

	_, err = n.Normalize(models.RawRecord{"model": "Undated", "parameters": 1e6})
	if !errors.Is(err, ErrMissingValue) {
		t.Errorf("Normalize without date error = %v, want ErrMissingValue", err)
	}
}

func TestNormalizer_OptionalFields(t *testing.T) {
	n := paramsVsData(t)

	rec, err := n.Normalize(models.RawRecord{
		"model":                            "Bare",
		"parameters":                       "5e8",
		"training_dataset_size_datapoints": "2e9",
	})
	if err != nil {
		t.Fatalf("Normalize returned unexpected error: %v", err)
	}

	if rec.Year != nil {
		t.Errorf("Year = %v, want nil for missing date", *rec.Year)
	}

	if rec.Category != CategoryUnknown {
		t.Errorf("Category = %q, want %q", rec.Category, CategoryUnknown)
	}

	if rec.Frontier != nil {
		t.Errorf("Frontier = %v, want nil", *rec.Frontier)
	}

	if rec.Parameters == nil || *rec.Parameters != 5e8 {
		t.Errorf("Parameters = %v, want 5e8", rec.Parameters)
	}
}

func TestNormalizer_FrontierStrings(t *testing.T) {
	n := paramsVsData(t)

	yes, no := true, false

	tests := []struct {
		in   any
		want *bool
	}{
		{"true", &yes},
		{"Yes", &yes},
		{"N", &no},
		{"0", &no},
		{"unknown", nil},
		{"  ", nil},
	}

	for _, tt := range tests {
		rec, err := n.Normalize(models.RawRecord{
			"model":                            "M",
			"parameters":                       1e9,
			"training_dataset_size_datapoints": 1e9,
			"frontier_model":                   tt.in,
		})
		if err != nil {
			t.Fatalf("Normalize(%q) returned unexpected error: %v", tt.in, err)
		}

		switch {
		case tt.want == nil && rec.Frontier != nil:
			t.Errorf("Frontier(%q) = %v, want nil", tt.in, *rec.Frontier)
		case tt.want != nil && (rec.Frontier == nil || *rec.Frontier != *tt.want):
			t.Errorf("Frontier(%q) = %v, want %v", tt.in, rec.Frontier, *tt.want)
		}
	}
}
