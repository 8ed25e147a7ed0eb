package core

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsObserve(t *testing.T) {
	m := NewMetrics()

	m.ObserveCalculation("fresh", "success")
	m.ObserveCalculation("fresh", "success")
	m.ObserveCalculation("cache", "success")
	m.ObserveProviderRequest("greenweb", time.Now(), nil)
	m.ObserveProviderRequest("greenweb", time.Now(), errors.New("timeout"))
	m.ObserveAnnualEmissions(true, 29.99)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`co2bunny_calculations_total{outcome="success",source="fresh"} 2`,
		`co2bunny_calculations_total{outcome="success",source="cache"} 1`,
		`co2bunny_provider_requests_total{outcome="error",provider="greenweb"} 1`,
		`co2bunny_provider_request_duration_seconds_count{provider="greenweb"} 2`,
		`co2bunny_last_annual_emissions_kg{green_hosting="true"} 29.99`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output is missing %q", want)
		}
	}
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics

	m.ObserveCalculation("fresh", "success")
	m.ObserveProviderRequest("websitecarbon", time.Now(), nil)
	m.ObserveAnnualEmissions(false, 1)
}
