package core

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exported by the service.
// Each instance owns its registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	calculations     *prometheus.CounterVec
	providerRequests *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	annualEmissions  *prometheus.GaugeVec
}

// NewMetrics creates and registers the service collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "co2bunny_calculations_total",
				Help: "Impact calculations by source (cache or fresh) and outcome",
			},
			[]string{"source", "outcome"},
		),
		providerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "co2bunny_provider_requests_total",
				Help: "Outbound provider requests by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		providerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "co2bunny_provider_request_duration_seconds",
				Help:    "Latency of outbound provider requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		annualEmissions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "co2bunny_last_annual_emissions_kg",
				Help: "Total annual emissions of the most recent fresh analysis",
			},
			[]string{"green_hosting"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.calculations,
		m.providerRequests,
		m.providerDuration,
		m.annualEmissions,
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collected metrics in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCalculation counts one calculation
func (m *Metrics) ObserveCalculation(source, outcome string) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(source, outcome).Inc()
}

// ObserveProviderRequest records the outcome and latency of one upstream call
func (m *Metrics) ObserveProviderRequest(provider string, started time.Time, err error) {
	if m == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
	}

	m.providerRequests.WithLabelValues(provider, outcome).Inc()
	m.providerDuration.WithLabelValues(provider).Observe(time.Since(started).Seconds())
}

// ObserveAnnualEmissions records the total of a freshly computed analysis
func (m *Metrics) ObserveAnnualEmissions(greenHosting bool, kg float64) {
	if m == nil {
		return
	}

	label := "false"
	if greenHosting {
		label = "true"
	}
	m.annualEmissions.WithLabelValues(label).Set(kg)
}
