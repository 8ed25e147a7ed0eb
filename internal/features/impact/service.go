package impact

import (
	"context"

	"co2-bunny/internal/core"
	"co2-bunny/internal/features/impact/database"
	"co2-bunny/internal/features/impact/handlers"
	"co2-bunny/internal/features/impact/migrations"
	"co2-bunny/internal/features/impact/providers"
	"co2-bunny/internal/features/impact/services"
)

// Service wires the impact components together. The CLI uses it directly;
// the HTTP server reaches it through Feature.
type Service struct {
	logger     *core.Logger
	migrations *migrations.Manager
	aggregator *services.Aggregator
	history    *services.History
	apiHandler *handlers.APIHandler
	webHandler *handlers.WebHandler
}

// NewService builds the impact components over db. metrics may be nil.
func NewService(logger *core.Logger, db *core.Database, metrics *core.Metrics, config Config) *Service {
	store := database.NewAnalysisStore(db)
	client := providers.NewClient(logger, metrics, config.Providers)

	aggregator := services.NewAggregator(logger, metrics, store, client, config.CacheTTL)
	history := services.NewHistory(logger, store)

	return &Service{
		logger:     logger,
		migrations: migrations.NewManager(db, logger),
		aggregator: aggregator,
		history:    history,
		apiHandler: handlers.NewAPIHandler(logger, aggregator, history),
		webHandler: handlers.NewWebHandler(logger, aggregator, history),
	}
}

// Migrate brings the analysis table up to date
func (s *Service) Migrate(ctx context.Context) error {
	return s.migrations.Migrate(ctx)
}

// Aggregator returns the impact aggregator
func (s *Service) Aggregator() *services.Aggregator {
	return s.aggregator
}

// History returns the read-only history queries
func (s *Service) History() *services.History {
	return s.history
}

// GetAPIHandler returns the API handler for routing
func (s *Service) GetAPIHandler() *handlers.APIHandler {
	return s.apiHandler
}

// GetWebHandler returns the web handler for routing
func (s *Service) GetWebHandler() *handlers.WebHandler {
	return s.webHandler
}
