package impact

import (
	"context"
	"net/http"

	"co2-bunny/internal/core"
)

// FeatureName is the registry name of the impact feature
const FeatureName = "impact"

type Feature struct {
	*core.BaseFeature
	service *Service
	config  Config
}

func NewFeature(logger *core.Logger, db *core.Database, metrics *core.Metrics, config Config, enabled bool) *Feature {
	baseFeature := core.NewBaseFeature(
		FeatureName,
		"Website carbon footprint analysis with a 24h result cache",
		enabled,
		logger,
		db,
	)

	return &Feature{
		BaseFeature: baseFeature,
		service:     NewService(baseFeature.Logger(), baseFeature.DB(), metrics, config),
		config:      config,
	}
}

// Init applies the impact migrations
func (f *Feature) Init(ctx context.Context) error {
	if err := f.BaseFeature.Init(ctx); err != nil {
		return err
	}

	if err := f.service.Migrate(ctx); err != nil {
		return core.NewFeatureError(FeatureName, "failed to apply migrations", err)
	}

	f.Logger().Info("Impact feature initialized", "cache_ttl", f.config.CacheTTL, "web", f.config.WebEnabled)
	return nil
}

// Routes returns the HTTP routes for the impact feature
func (f *Feature) Routes() []core.Route {
	apiHandler := f.service.GetAPIHandler()

	routes := []core.Route{
		// API routes
		{Method: http.MethodGet, Path: "/api/impact/data-transfer", Handler: apiHandler.DataTransfer},
		{Method: http.MethodGet, Path: "/api/impact/energy-source", Handler: apiHandler.EnergySource},
		{Method: http.MethodGet, Path: "/api/impact/traffic", Handler: apiHandler.Traffic},
		{Method: http.MethodPost, Path: "/api/impact/calculate", Handler: apiHandler.Calculate},
		{Method: http.MethodGet, Path: "/api/analyses", Handler: apiHandler.ListAnalyses},
		{Method: http.MethodGet, Path: "/api/analyses/recent", Handler: apiHandler.RecentAnalyses},
	}

	if f.config.WebEnabled {
		webHandler := f.service.GetWebHandler()
		routes = append(routes,
			core.Route{Method: http.MethodGet, Path: "/", Handler: webHandler.Analyze},
			core.Route{Method: http.MethodPost, Path: "/analyze", Handler: webHandler.Submit},
		)
	}

	return routes
}

// Shutdown gracefully shuts down the impact feature
func (f *Feature) Shutdown(ctx context.Context) error {
	f.Logger().Info("Shutting down impact feature")
	return f.BaseFeature.Shutdown(ctx)
}
