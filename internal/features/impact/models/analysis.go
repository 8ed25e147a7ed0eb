package models

import "time"

// WebsiteAnalysis is one persisted, immutable impact calculation
type WebsiteAnalysis struct {
	ID                     string          `json:"id"`
	URL                    string          `json:"url"`
	DataTransferKB         float64         `json:"dataTransferKB"`
	EnergyUsedKWh          float64         `json:"energyUsedKWh"`
	CarbonEmissionsG       CarbonEmissions `json:"carbonEmissionsG"`
	GreenHosting           bool            `json:"greenHosting"`
	Provider               string          `json:"provider"`
	AnnualPageViews        int64           `json:"annualPageViews"`
	CarbonPerViewG         float64         `json:"carbonPerViewG"`
	TotalAnnualEmissionsKg float64         `json:"totalAnnualEmissionsKg"`
	CreatedAt              time.Time       `json:"createdAt"`
}

// CalculationResult is the aggregator's answer: the stored analysis plus
// whether it came from the freshness window
type CalculationResult struct {
	*WebsiteAnalysis
	Message string `json:"message,omitempty"`
	Cached  bool   `json:"-"`
}

// CalculateRequest is the body of POST /api/impact/calculate
type CalculateRequest struct {
	URL             string    `json:"url"`
	AnnualPageViews PageViews `json:"annualPageViews"`
}
