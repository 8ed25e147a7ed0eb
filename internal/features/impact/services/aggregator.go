// Package services holds the impact calculations: the aggregator that combines
// provider data with the traffic estimate, and the read-only history queries.
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"co2-bunny/internal/core"
	"co2-bunny/internal/features/impact/models"
	"co2-bunny/internal/features/impact/traffic"
)

// Calculation sources, used as metric labels
const (
	sourceCache = "cache"
	sourceFresh = "fresh"
)

// AnalysisStore is the cache the aggregator reads from and writes to
type AnalysisStore interface {
	FindFresh(ctx context.Context, url string, annualPageViews int64, maxAge time.Duration) (*models.WebsiteAnalysis, error)
	Insert(ctx context.Context, analysis *models.WebsiteAnalysis) (*models.WebsiteAnalysis, error)
}

// Providers fetches the third-party metrics for a site
type Providers interface {
	FetchTransferMetrics(ctx context.Context, url string) (*models.TransferMetrics, error)
	FetchHostingMetrics(ctx context.Context, url string) (*models.HostingMetrics, error)
}

// Aggregator produces website analyses, reusing a fresh cached one when it
// exists for the same url and page views
type Aggregator struct {
	store     AnalysisStore
	providers Providers
	logger    *core.Logger
	metrics   *core.Metrics
	cacheTTL  time.Duration
	group     singleflight.Group
}

// NewAggregator creates an aggregator. metrics may be nil.
func NewAggregator(logger *core.Logger, metrics *core.Metrics, store AnalysisStore, providers Providers, cacheTTL time.Duration) *Aggregator {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}

	return &Aggregator{
		store:     store,
		providers: providers,
		logger:    logger,
		metrics:   metrics,
		cacheTTL:  cacheTTL,
	}
}

// Calculate validates the input, then returns either the newest analysis
// inside the cache window or a freshly computed and stored one
func (a *Aggregator) Calculate(ctx context.Context, url, rawPageViews string) (*models.CalculationResult, error) {
	if err := requireURL(url); err != nil {
		return nil, err
	}
	views, err := traffic.ParsePageViews(rawPageViews)
	if err != nil {
		return nil, err
	}

	// The shared work outlives any single caller; provider and database
	// timeouts still bound it.
	key := url + "\x00" + strconv.FormatInt(views, 10)
	flight := a.group.DoChan(key, func() (any, error) {
		return a.calculate(context.WithoutCancel(ctx), url, views)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			a.logger.WithContext(ctx).Debug("Shared in-flight calculation", "url", url, "annual_page_views", views)
		}
		return res.Val.(*models.CalculationResult), nil
	}
}

func (a *Aggregator) calculate(ctx context.Context, url string, views int64) (*models.CalculationResult, error) {
	logger := a.logger.WithContext(ctx)

	cached, err := a.store.FindFresh(ctx, url, views, a.cacheTTL)
	if err != nil {
		a.metrics.ObserveCalculation(sourceCache, "error")
		return nil, err
	}
	if cached != nil {
		a.metrics.ObserveCalculation(sourceCache, "success")
		logger.Info("Using cached analysis", "url", url, "id", cached.ID)
		return &models.CalculationResult{
			WebsiteAnalysis: cached,
			Message:         "Using cached analysis from the last " + describeWindow(a.cacheTTL),
			Cached:          true,
		}, nil
	}

	analysis, err := a.compute(ctx, url, views)
	if err != nil {
		a.metrics.ObserveCalculation(sourceFresh, "error")
		logger.Error("Impact calculation failed", "url", url, "error", err)
		return nil, err
	}

	stored, err := a.store.Insert(ctx, analysis)
	if err != nil {
		a.metrics.ObserveCalculation(sourceFresh, "error")
		logger.Error("Failed to store analysis", "url", url, "error", err)
		return nil, err
	}

	a.metrics.ObserveCalculation(sourceFresh, "success")
	a.metrics.ObserveAnnualEmissions(stored.GreenHosting, stored.TotalAnnualEmissionsKg)
	logger.Info("Stored new analysis",
		"url", url,
		"id", stored.ID,
		"green_hosting", stored.GreenHosting,
		"total_annual_emissions_kg", stored.TotalAnnualEmissionsKg,
	)

	return &models.CalculationResult{WebsiteAnalysis: stored}, nil
}

// compute runs both provider lookups and the estimate concurrently. The first
// failure cancels the others.
func (a *Aggregator) compute(ctx context.Context, url string, views int64) (*models.WebsiteAnalysis, error) {
	var (
		transfer *models.TransferMetrics
		hosting  *models.HostingMetrics
		estimate *models.TrafficEstimate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transfer, err = a.providers.FetchTransferMetrics(gctx, url)
		return err
	})
	g.Go(func() error {
		var err error
		hosting, err = a.providers.FetchHostingMetrics(gctx, url)
		return err
	})
	g.Go(func() error {
		var err error
		estimate, err = traffic.Estimate(url, float64(views))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.WebsiteAnalysis{
		URL:                    url,
		DataTransferKB:         transfer.DataTransferKB,
		EnergyUsedKWh:          transfer.EnergyUsedKWh,
		CarbonEmissionsG:       transfer.CarbonEmissions,
		GreenHosting:           hosting.GreenHosting,
		Provider:               hosting.Provider,
		AnnualPageViews:        views,
		CarbonPerViewG:         estimate.CarbonPerViewGrams,
		TotalAnnualEmissionsKg: estimate.TotalAnnualEmissionsKg - hosting.CarbonSavingsGrams/1000,
	}, nil
}

// DataTransfer returns the transfer metrics for a single url
func (a *Aggregator) DataTransfer(ctx context.Context, url string) (*models.TransferMetrics, error) {
	if err := requireURL(url); err != nil {
		return nil, err
	}
	return a.providers.FetchTransferMetrics(ctx, url)
}

// EnergySource returns the hosting metrics for a single url
func (a *Aggregator) EnergySource(ctx context.Context, url string) (*models.HostingMetrics, error) {
	if err := requireURL(url); err != nil {
		return nil, err
	}
	return a.providers.FetchHostingMetrics(ctx, url)
}

// Traffic returns the annual emissions estimate without touching providers or
// the cache
func (a *Aggregator) Traffic(url, rawPageViews string) (*models.TrafficEstimate, error) {
	if err := requireURL(url); err != nil {
		return nil, err
	}
	views, err := traffic.ParsePageViews(rawPageViews)
	if err != nil {
		return nil, err
	}
	return traffic.Estimate(url, float64(views))
}

func requireURL(url string) error {
	if strings.TrimSpace(url) == "" {
		return core.NewValidationError("url is required", nil)
	}
	return nil
}

// describeWindow renders the cache window for messages, e.g. "24 hours"
func describeWindow(window time.Duration) string {
	if window%time.Hour != 0 {
		return window.String()
	}

	hours := int64(window / time.Hour)
	if hours == 1 {
		return "hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
