package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics collection
type Collector struct {
	// API Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Engine Metrics
	SimulationsTotal   *prometheus.CounterVec
	SimulationDuration prometheus.Histogram
	SimulatedWeeks     prometheus.Histogram

	// Boundary Metrics
	ValidationFailuresTotal *prometheus.CounterVec

	// Storage Metrics
	StoredSimulationsTotal prometheus.Counter
	PurgedSimulationsTotal prometheus.Counter
	StorageErrorsTotal     *prometheus.CounterVec
}

// NewCollector creates a new metrics collector registered on reg. Passing
// prometheus.DefaultRegisterer exposes the metrics on the default /metrics handler.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by path, method, and status",
			},
			[]string{"path", "method", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"path"},
		),

		SimulationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "simulations_total",
				Help:      "Total number of engine runs by feed type",
			},
			[]string{"feed_type"},
		),

		SimulationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "simulation_duration_seconds",
				Help:      "Engine run duration in seconds",
				Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
			},
		),

		SimulatedWeeks: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "simulated_weeks",
				Help:      "Projection horizon requested per simulation",
				Buckets:   []float64{1, 4, 8, 12, 16, 24, 36, 52},
			},
		),

		ValidationFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_failures_total",
				Help:      "Total number of rejected input fields",
			},
			[]string{"field"},
		),

		StoredSimulationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stored_simulations_total",
				Help:      "Total number of simulations saved",
			},
		),

		PurgedSimulationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "purged_simulations_total",
				Help:      "Total number of simulations removed by the retention job",
			},
		),

		StorageErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_errors_total",
				Help:      "Total number of storage errors by operation",
			},
			[]string{"operation"},
		),
	}
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(path, method string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	c.HTTPRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordSimulation records one engine run.
func (c *Collector) RecordSimulation(feedType string, weeks int, duration time.Duration) {
	if c == nil {
		return
	}
	c.SimulationsTotal.WithLabelValues(feedType).Inc()
	c.SimulatedWeeks.Observe(float64(weeks))
	c.SimulationDuration.Observe(duration.Seconds())
}

// RecordValidationFailure counts one rejected field.
func (c *Collector) RecordValidationFailure(field string) {
	if c == nil {
		return
	}
	c.ValidationFailuresTotal.WithLabelValues(field).Inc()
}

// RecordStored counts one saved simulation.
func (c *Collector) RecordStored() {
	if c == nil {
		return
	}
	c.StoredSimulationsTotal.Inc()
}

// RecordPurged counts simulations removed by retention.
func (c *Collector) RecordPurged(n int64) {
	if c == nil || n <= 0 {
		return
	}
	c.PurgedSimulationsTotal.Add(float64(n))
}

// RecordStorageError counts one failed storage operation.
func (c *Collector) RecordStorageError(operation string) {
	if c == nil {
		return
	}
	c.StorageErrorsTotal.WithLabelValues(operation).Inc()
}
