// Package traffic turns annual page views into an annual emissions estimate
// using a fixed per-view constant.
package traffic

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"co2-bunny/internal/core"
	"co2-bunny/internal/features/impact/models"
)

// CarbonPerViewGrams is the grams of CO2 attributed to one page view
const CarbonPerViewGrams = 0.3

// maxPageViews keeps conversions to int64 exact
const maxPageViews = 1 << 53

// Estimate computes the annual emissions for the given page views. Views must
// be a finite, non-negative number.
func Estimate(url string, annualPageViews float64) (*models.TrafficEstimate, error) {
	if math.IsNaN(annualPageViews) || math.IsInf(annualPageViews, 0) {
		return nil, core.NewValidationError("annualPageViews must be a finite number", nil)
	}
	if annualPageViews < 0 {
		return nil, core.NewValidationError("annualPageViews must not be negative", nil)
	}

	return &models.TrafficEstimate{
		URL:                    url,
		AnnualPageViews:        int64(annualPageViews),
		CarbonPerViewGrams:     CarbonPerViewGrams,
		TotalAnnualEmissionsKg: (CarbonPerViewGrams * annualPageViews) / 1000,
	}, nil
}

// ParsePageViews validates a raw annualPageViews value: required, numeric,
// finite, non-negative and whole
func ParsePageViews(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, core.NewValidationError("annualPageViews is required", nil)
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, core.NewValidationError("annualPageViews must be a number", err)
	}

	switch {
	case math.IsNaN(value) || math.IsInf(value, 0):
		return 0, core.NewValidationError("annualPageViews must be a finite number", nil)
	case value < 0:
		return 0, core.NewValidationError("annualPageViews must not be negative", nil)
	case value != math.Trunc(value):
		return 0, core.NewValidationError("annualPageViews must be a whole number", nil)
	case value > maxPageViews:
		return 0, core.NewValidationError(fmt.Sprintf("annualPageViews must not exceed %d", int64(maxPageViews)), nil)
	}

	return int64(value), nil
}
