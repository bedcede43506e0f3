// Package metrics exposes Prometheus metrics for the gateway: admission
// outcomes, inference latency, unit consumption, and store health.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector registers and records all gateway metrics.
//
// Metrics:
//   - neurongate_admissions_total: admission decisions by outcome and reason
//   - neurongate_inference_duration_seconds: generation latency by model/status
//   - neurongate_units_consumed_total: consumption units charged, by model
//   - neurongate_sessions_created_total: new sessions
//   - neurongate_store_errors_total: key-value store failures by operation
type Collector struct {
	registry *prometheus.Registry

	admissionsTotal   *prometheus.CounterVec
	inferenceDuration *prometheus.HistogramVec
	unitsConsumed     *prometheus.CounterVec
	sessionsCreated   prometheus.Counter
	storeErrors       *prometheus.CounterVec
}

// Config configures metric naming.
type Config struct {
	// Namespace is the metric namespace. Default: "neurongate".
	Namespace string
}

// NewCollector creates a collector and registers its metrics with registry.
// If registry is nil a fresh one is created.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if cfg.Namespace == "" {
		cfg.Namespace = "neurongate"
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,

		admissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "admissions_total",
				Help:      "Admission decisions by outcome and denial reason",
			},
			[]string{"outcome", "reason"},
		),

		inferenceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "inference_duration_seconds",
				Help:      "Duration of upstream generation calls",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"model", "status"},
		),

		unitsConsumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "units_consumed_total",
				Help:      "Consumption units charged to sessions",
			},
			[]string{"model"},
		),

		sessionsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "sessions_created_total",
				Help:      "Sessions created for first-contact callers",
			},
		),

		storeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "store_errors_total",
				Help:      "Key-value store failures by operation",
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		c.admissionsTotal,
		c.inferenceDuration,
		c.unitsConsumed,
		c.sessionsCreated,
		c.storeErrors,
	)

	return c
}

// RecordAdmission records an admission decision.
func (c *Collector) RecordAdmission(admitted bool, reason string) {
	outcome := "admitted"
	if !admitted {
		outcome = "denied"
	}
	c.admissionsTotal.WithLabelValues(outcome, reason).Inc()
}

// RecordInference records a completed (or failed) generation call.
func (c *Collector) RecordInference(model, status string, duration time.Duration) {
	c.inferenceDuration.WithLabelValues(model, status).Observe(duration.Seconds())
}

// RecordUnits records consumption units charged after a successful call.
func (c *Collector) RecordUnits(model string, units int64) {
	c.unitsConsumed.WithLabelValues(model).Add(float64(units))
}

// RecordSessionCreated records a new session.
func (c *Collector) RecordSessionCreated() {
	c.sessionsCreated.Inc()
}

// RecordStoreError records a key-value store failure.
func (c *Collector) RecordStoreError(operation string) {
	c.storeErrors.WithLabelValues(operation).Inc()
}
