package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the stack orchestrator.
// When disabled, every recording method is a no-op.
type Metrics struct {
	config MetricsConfig

	// Stack metrics
	stacksCreated   *prometheus.CounterVec
	stacksCompleted *prometheus.CounterVec
	stackDuration   *prometheus.HistogramVec

	// Resource metrics
	resourcesProvisioned *prometheus.CounterVec
	resourceDuration     *prometheus.HistogramVec

	// Rollback metrics
	rollbacks       prometheus.Counter
	rollbackDeletes *prometheus.CounterVec

	// Provider metrics
	providerErrors *prometheus.CounterVec

	// Validation metrics
	validations *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		stacksCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stacks_created_total",
				Help:      "Total number of stack creations started",
			},
			[]string{"account"},
		),
		stacksCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stacks_completed_total",
				Help:      "Total number of stack creations finished, by terminal status",
			},
			[]string{"status"},
		),
		stackDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stack_duration_seconds",
				Help:      "Duration of stack operations in seconds",
				Buckets:   buckets,
			},
			[]string{"operation", "status"},
		),
		resourcesProvisioned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resources_provisioned_total",
				Help:      "Total number of resource provisioning attempts",
			},
			[]string{"kind", "status"},
		),
		resourceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resource_provision_duration_seconds",
				Help:      "Duration of individual resource provisioning in seconds",
				Buckets:   buckets,
			},
			[]string{"kind"},
		),
		rollbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rollbacks_total",
				Help:      "Total number of stack rollbacks",
			},
		),
		rollbackDeletes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rollback_deletes_total",
				Help:      "Total number of rollback delete attempts, by outcome",
			},
			[]string{"outcome"},
		),
		providerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_errors_total",
				Help:      "Total number of provider errors",
			},
			[]string{"kind", "operation"},
		),
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "template_validations_total",
				Help:      "Total number of template validations, by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		m.stacksCreated,
		m.stacksCompleted,
		m.stackDuration,
		m.resourcesProvisioned,
		m.resourceDuration,
		m.rollbacks,
		m.rollbackDeletes,
		m.providerErrors,
		m.validations,
	)

	return m, nil
}

// RecordStackCreated increments the counter for started stack creations.
func (m *Metrics) RecordStackCreated(account string) {
	if m.stacksCreated == nil {
		return
	}
	m.stacksCreated.WithLabelValues(account).Inc()
}

// RecordStackCompleted records a finished stack operation with its
// terminal status and duration.
func (m *Metrics) RecordStackCompleted(operation, status string, duration time.Duration) {
	if m.stacksCompleted == nil {
		return
	}
	m.stacksCompleted.WithLabelValues(status).Inc()
	m.stackDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// RecordResourceProvisioned records one resource provisioning attempt.
func (m *Metrics) RecordResourceProvisioned(kind, status string, duration time.Duration) {
	if m.resourcesProvisioned == nil {
		return
	}
	m.resourcesProvisioned.WithLabelValues(kind, status).Inc()
	m.resourceDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordRollback records the start of a stack rollback.
func (m *Metrics) RecordRollback() {
	if m.rollbacks == nil {
		return
	}
	m.rollbacks.Inc()
}

// RecordRollbackDelete records one delete attempt during rollback.
func (m *Metrics) RecordRollbackDelete(outcome string) {
	if m.rollbackDeletes == nil {
		return
	}
	m.rollbackDeletes.WithLabelValues(outcome).Inc()
}

// RecordProviderError records a provider error.
func (m *Metrics) RecordProviderError(kind, operation string) {
	if m.providerErrors == nil {
		return
	}
	m.providerErrors.WithLabelValues(kind, operation).Inc()
}

// RecordValidation records a template validation result.
func (m *Metrics) RecordValidation(result string) {
	if m.validations == nil {
		return
	}
	m.validations.WithLabelValues(result).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer(logger *Logger) error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("metrics server error")
		}
	}()

	return nil
}
