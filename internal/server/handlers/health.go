package handlers

import (
	"net/http"
	"time"

	"co2-bunny/internal/core"
)

// healthPingTimeout bounds the database check
const healthPingTimeout = 2 * time.Second

// HealthHandler reports service and feature status
type HealthHandler struct {
	logger   *core.Logger
	registry *core.Registry
	db       *core.Database
	version  string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(logger *core.Logger, registry *core.Registry, db *core.Database, version string) *HealthHandler {
	return &HealthHandler{
		logger:   logger,
		registry: registry,
		db:       db,
		version:  version,
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string                        `json:"status"`
	Service  string                        `json:"service"`
	Version  string                        `json:"version"`
	Database string                        `json:"database"`
	Features map[string]core.FeatureStatus `json:"features"`
}

// HealthCheckHandler provides a health check endpoint. It answers 503 when
// the database does not respond.
func (h *HealthHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:   "ok",
		Service:  "co2-bunny",
		Version:  h.version,
		Database: "ok",
		Features: h.registry.GetFeatureStatus(),
	}

	status := http.StatusOK
	if err := h.db.PingWithTimeout(healthPingTimeout); err != nil {
		h.logger.WithContext(r.Context()).Error("Health check database ping failed", "error", err)
		response.Status = "degraded"
		response.Database = "unavailable"
		status = http.StatusServiceUnavailable
	}

	core.WriteJSON(w, status, response)
}
