package traffic

import (
	"math"
	"testing"

	"co2-bunny/internal/core"
)

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestEstimate(t *testing.T) {
	tests := []struct {
		name  string
		views float64
		want  float64
	}{
		{"zero views", 0, 0},
		{"one hundred thousand views", 100000, 30.0},
		{"one million views", 1_000_000, 300.0},
		{"single view", 1, 0.0003},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			estimate, err := Estimate("example.com", tt.views)
			if err != nil {
				t.Fatalf("Estimate failed: %v", err)
			}
			if !almostEqual(estimate.TotalAnnualEmissionsKg, tt.want, 1e-9) {
				t.Errorf("TotalAnnualEmissionsKg = %f, want %f", estimate.TotalAnnualEmissionsKg, tt.want)
			}
			if estimate.CarbonPerViewGrams != CarbonPerViewGrams {
				t.Errorf("CarbonPerViewGrams = %f, want %f", estimate.CarbonPerViewGrams, CarbonPerViewGrams)
			}
			if estimate.AnnualPageViews != int64(tt.views) {
				t.Errorf("AnnualPageViews = %d, want %d", estimate.AnnualPageViews, int64(tt.views))
			}
		})
	}
}

func TestEstimateRejectsInvalidInput(t *testing.T) {
	for _, views := range []float64{-5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := Estimate("example.com", views); !core.IsCode(err, core.ErrCodeValidation) {
			t.Errorf("Estimate(%v) error = %v, want validation error", views, err)
		}
	}
}

func TestParsePageViews(t *testing.T) {
	valid := map[string]int64{
		"0":      0,
		"100000": 100000,
		" 42 ":   42,
		"1e3":    1000,
		"12.0":   12,
	}
	for raw, want := range valid {
		got, err := ParsePageViews(raw)
		if err != nil {
			t.Errorf("ParsePageViews(%q) failed: %v", raw, err)
			continue
		}
		if got != want {
			t.Errorf("ParsePageViews(%q) = %d, want %d", raw, got, want)
		}
	}

	invalid := []string{"", "abc", "-5", "12.5", "NaN", "Inf", "true", "1e300"}
	for _, raw := range invalid {
		if _, err := ParsePageViews(raw); !core.IsCode(err, core.ErrCodeValidation) {
			t.Errorf("ParsePageViews(%q) error = %v, want validation error", raw, err)
		}
	}
}
