package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector handles Prometheus metrics collection for the
// generation pipeline and the HTTP surface in front of it.
type MetricsCollector struct {
	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Pipeline metrics
	generationsTotal        *prometheus.CounterVec
	admissionDenialsTotal   *prometheus.CounterVec
	cacheLookupsTotal       *prometheus.CounterVec
	providerRequestDuration prometheus.Histogram
	safetyScore             prometheus.Histogram
	generationCostTotal     prometheus.Counter
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hearthplan_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hearthplan_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		generationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hearthplan_generations_total",
				Help: "Recipe generation attempts by outcome",
			},
			[]string{"outcome"},
		),
		admissionDenialsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hearthplan_admission_denials_total",
				Help: "Admission denials by gate",
			},
			[]string{"gate"},
		),
		cacheLookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hearthplan_recipe_cache_lookups_total",
				Help: "Recipe cache lookups by result",
			},
			[]string{"result"},
		),
		providerRequestDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hearthplan_provider_request_duration_seconds",
				Help:    "Generation provider call duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
		),
		safetyScore: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hearthplan_safety_score",
				Help:    "Safety scores of generated recipes",
				Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),
		generationCostTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "hearthplan_generation_cost_total",
				Help: "Cumulative provider cost across all users",
			},
		),
	}
}

// RecordHTTPRequest records one HTTP request.
func (m *MetricsCollector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordGeneration records one pipeline outcome: success, cache_hit,
// denied, provider_failure, or invalid.
func (m *MetricsCollector) RecordGeneration(outcome string) {
	m.generationsTotal.WithLabelValues(outcome).Inc()
}

// RecordAdmissionDenial records a denial at the cost or rate gate.
func (m *MetricsCollector) RecordAdmissionDenial(gate string) {
	m.admissionDenialsTotal.WithLabelValues(gate).Inc()
}

// RecordCacheLookup records a hit, miss, or unsafe-discard.
func (m *MetricsCollector) RecordCacheLookup(result string) {
	m.cacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordProviderCall records provider latency and cost.
func (m *MetricsCollector) RecordProviderCall(duration time.Duration, cost float64) {
	m.providerRequestDuration.Observe(duration.Seconds())
	m.generationCostTotal.Add(cost)
}

// RecordSafetyScore records the safety score of a generated recipe.
func (m *MetricsCollector) RecordSafetyScore(score int) {
	m.safetyScore.Observe(float64(score))
}

// Handler returns the Prometheus scrape handler.
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.Handler()
}
