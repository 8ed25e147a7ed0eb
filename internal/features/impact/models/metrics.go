package models

import (
	"encoding/json"
	"strconv"
)

// TransferMetrics is the normalized data-transfer/energy estimate for a page
type TransferMetrics struct {
	URL                string          `json:"url"`
	DataTransferKB     float64         `json:"data_transfer_kb"`
	EnergyUsedKWh      float64         `json:"energy_used_kwh"`
	CarbonEmissions    CarbonEmissions `json:"carbon_emissions_grams"`
	GreenRating        string          `json:"green_rating"`
	CleanerThanPercent float64         `json:"-"`
}

// HostingMetrics is the normalized green-hosting lookup for a site
type HostingMetrics struct {
	URL                  string  `json:"url"`
	GreenHosting         bool    `json:"green_hosting"`
	Provider             string  `json:"provider"`
	CarbonSavingsGrams   float64 `json:"carbon_savings_grams"`
	SustainabilityReport string  `json:"sustainability_report"`
}

// TrafficEstimate is the fixed-multiplier annual emissions estimate
type TrafficEstimate struct {
	URL                    string  `json:"url"`
	AnnualPageViews        int64   `json:"annual_page_views"`
	CarbonPerViewGrams     float64 `json:"carbon_per_view_grams"`
	TotalAnnualEmissionsKg float64 `json:"total_annual_emissions_kg"`
}

// CleanerThan renders the percentile the way the provider's badge does
func (t TransferMetrics) CleanerThan() string {
	return strconv.FormatFloat(t.CleanerThanPercent, 'f', -1, 64) + "%"
}

// MarshalJSON adds the rendered cleanerThan member
func (t TransferMetrics) MarshalJSON() ([]byte, error) {
	type alias TransferMetrics
	return json.Marshal(struct {
		alias
		CleanerThan string `json:"cleanerThan"`
	}{
		alias:       alias(t),
		CleanerThan: t.CleanerThan(),
	})
}
