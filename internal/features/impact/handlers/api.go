package handlers

import (
	"encoding/json"
	"net/http"

	"co2-bunny/internal/core"
	"co2-bunny/internal/features/impact/models"
)

// maxBodyBytes caps the calculate request body
const maxBodyBytes = 1 << 16

type APIHandler struct {
	logger     *core.Logger
	calculator Calculator
	history    HistoryReader
}

func NewAPIHandler(logger *core.Logger, calculator Calculator, history HistoryReader) *APIHandler {
	return &APIHandler{
		logger:     logger,
		calculator: calculator,
		history:    history,
	}
}

// DataTransfer handles GET /api/impact/data-transfer?url=
func (h *APIHandler) DataTransfer(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.calculator.DataTransfer(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		h.fail(w, r, "Failed to fetch data transfer impact", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, metrics)
}

// EnergySource handles GET /api/impact/energy-source?url=
func (h *APIHandler) EnergySource(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.calculator.EnergySource(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		h.fail(w, r, "Failed to fetch energy source", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, metrics)
}

// Traffic handles GET /api/impact/traffic?url=&annualPageViews=
func (h *APIHandler) Traffic(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	estimate, err := h.calculator.Traffic(query.Get("url"), query.Get("annualPageViews"))
	if err != nil {
		h.fail(w, r, "Failed to calculate traffic impact", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, estimate)
}

// Calculate handles POST /api/impact/calculate
func (h *APIHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req models.CalculateRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, "Invalid calculate request", core.NewValidationError("Request body must be a JSON object with url and annualPageViews", err))
		return
	}

	result, err := h.calculator.Calculate(r.Context(), req.URL, req.AnnualPageViews.Raw)
	if err != nil {
		h.fail(w, r, "Failed to calculate total impact", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, result)
}

// ListAnalyses handles GET /api/analyses?url=
func (h *APIHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.history.ListByURL(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		h.fail(w, r, "Failed to list analyses", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, analyses)
}

// RecentAnalyses handles GET /api/analyses/recent?limit=
func (h *APIHandler) RecentAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.history.ListRecent(r.Context(), r.URL.Query().Get("limit"))
	if err != nil {
		h.fail(w, r, "Failed to list recent analyses", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, analyses)
}

func (h *APIHandler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	logger := h.logger.WithContext(r.Context())
	if core.IsCode(err, core.ErrCodeValidation) {
		logger.Warn(message, "path", r.URL.Path, "error", err)
	} else {
		logger.Error(message, "path", r.URL.Path, "error", err)
	}
	core.HandleError(w, err)
}
