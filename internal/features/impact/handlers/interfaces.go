package handlers

import (
	"context"

	"co2-bunny/internal/features/impact/models"
)

// Calculator is what the handlers need from the impact aggregator
type Calculator interface {
	Calculate(ctx context.Context, url, rawPageViews string) (*models.CalculationResult, error)
	DataTransfer(ctx context.Context, url string) (*models.TransferMetrics, error)
	EnergySource(ctx context.Context, url string) (*models.HostingMetrics, error)
	Traffic(url, rawPageViews string) (*models.TrafficEstimate, error)
}

// HistoryReader is what the handlers need from the history queries
type HistoryReader interface {
	ListByURL(ctx context.Context, url string) ([]models.WebsiteAnalysis, error)
	ListRecent(ctx context.Context, limitParam string) ([]models.WebsiteAnalysis, error)
}
