// Package monitoring handles Prometheus metrics collection
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/alchemorsel/planner/internal/application/planning"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Pipeline metrics
	generationsTotal    *prometheus.CounterVec
	generationDuration  *prometheus.HistogramVec
	retrievalCandidates prometheus.Histogram
	retrievalFailures   prometheus.Counter
	mutationsTotal      *prometheus.CounterVec
}

// NewMetricsCollector creates a new metrics collector with its own
// registry so repeated construction in tests never double-registers
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(registry)

	return &MetricsCollector{
		logger:   logger,
		registry: registry,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),

		generationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plan_generations_total",
				Help: "Total number of plan generation attempts by outcome",
			},
			[]string{"outcome"},
		),
		generationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "plan_generation_duration_seconds",
				Help:    "Plan generation duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		retrievalCandidates: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "retrieval_candidates",
				Help:    "Number of candidates produced per retrieval fan-out",
				Buckets: []float64{0, 5, 10, 20, 30, 50},
			},
		),
		retrievalFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "retrieval_collection_failures_total",
				Help: "Total number of per-collection search failures",
			},
		),
		mutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plan_mutations_total",
				Help: "Total number of plan mutations by op and outcome",
			},
			[]string{"op", "outcome"},
		),
	}
}

var _ planning.Metrics = (*MetricsCollector)(nil)

// ObserveGeneration records one generation attempt
func (m *MetricsCollector) ObserveGeneration(outcome string, duration time.Duration) {
	m.generationsTotal.WithLabelValues(outcome).Inc()
	m.generationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveRetrieval records one retrieval fan-out
func (m *MetricsCollector) ObserveRetrieval(candidates, failedCollections int) {
	m.retrievalCandidates.Observe(float64(candidates))
	if failedCollections > 0 {
		m.retrievalFailures.Add(float64(failedCollections))
	}
}

// ObserveMutation records one mutation attempt
func (m *MetricsCollector) ObserveMutation(op, outcome string) {
	m.mutationsTotal.WithLabelValues(op, outcome).Inc()
}

// HTTPMiddleware creates a Gin middleware for HTTP metrics collection
func (m *MetricsCollector) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, statusCode).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path, statusCode).Observe(duration)
	}
}

// Handler exposes the collected metrics in Prometheus text format
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
