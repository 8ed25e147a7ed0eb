package handlers

import (
	"errors"
	"net/http"

	"co2-bunny/internal/core"
	"co2-bunny/views/impact"
)

type WebHandler struct {
	logger     *core.Logger
	calculator Calculator
	history    HistoryReader
}

func NewWebHandler(logger *core.Logger, calculator Calculator, history HistoryReader) *WebHandler {
	return &WebHandler{
		logger:     logger,
		calculator: calculator,
		history:    history,
	}
}

// Analyze renders the calculator page with the most recent analyses
func (h *WebHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, impact.PageData{})
}

// Submit handles the calculator form post
func (h *WebHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, impact.PageData{Error: "Could not read the submitted form"})
		return
	}

	data := impact.PageData{
		URL:       r.PostFormValue("url"),
		PageViews: r.PostFormValue("pageViews"),
	}

	result, err := h.calculator.Calculate(r.Context(), data.URL, data.PageViews)
	if err != nil {
		h.logger.WithContext(r.Context()).Warn("Analyze form failed", "url", data.URL, "error", err)
		data.Error = errorMessage(err)
		h.render(w, r, statusFor(err), data)
		return
	}

	data.Result = result
	h.render(w, r, http.StatusOK, data)
}

func (h *WebHandler) render(w http.ResponseWriter, r *http.Request, status int, data impact.PageData) {
	recent, err := h.history.ListRecent(r.Context(), "")
	if err != nil {
		h.logger.WithContext(r.Context()).Error("Failed to load recent analyses", "error", err)
	}
	data.Recent = recent

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := impact.AnalyzePage(data).Render(r.Context(), w); err != nil {
		h.logger.WithContext(r.Context()).Error("Failed to render analyze page", "error", err)
	}
}

func errorMessage(err error) string {
	var appErr *core.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "An unexpected error occurred"
}

func statusFor(err error) int {
	var appErr *core.AppError
	if errors.As(err, &appErr) {
		return core.GetHTTPStatusCode(appErr)
	}
	return http.StatusInternalServerError
}
