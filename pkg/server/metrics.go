package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "sliderbind").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for message handling duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry receives the metrics and backs GET /metrics.
	// Default: a new registry per server.
	Registry *prometheus.Registry
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "sliderbind",
		Buckets:   prometheus.DefBuckets,
	}
}

// metrics holds the Prometheus collectors of one server.
type metrics struct {
	registry *prometheus.Registry

	messagesReceived *prometheus.CounterVec
	messagesSent     *prometheus.CounterVec
	messagesDropped  prometheus.Counter
	messageDuration  *prometheus.HistogramVec
	errors           *prometheus.CounterVec
	valuesRelayed    prometheus.Counter
	inputsBound      prometheus.Counter
	activeSessions   prometheus.Gauge
	handlerPanics    prometheus.Counter
}

func newMetrics(opts ...MetricsOption) *metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	factory := promauto.With(config.Registry)

	counterOpts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}
	}

	return &metrics{
		registry: config.Registry,

		messagesReceived: factory.NewCounterVec(
			counterOpts("messages_received_total", "Client messages received by type"),
			[]string{"type"}),

		messagesSent: factory.NewCounterVec(
			counterOpts("messages_sent_total", "Server messages sent by type"),
			[]string{"type"}),

		messagesDropped: factory.NewCounter(
			counterOpts("messages_dropped_total", "Server messages dropped because the send queue was full")),

		messageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "message_duration_seconds",
			Help:        "Client message handling duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"type"}),

		errors: factory.NewCounterVec(
			counterOpts("errors_total", "Errors reported to clients by code"),
			[]string{"code"}),

		valuesRelayed: factory.NewCounter(
			counterOpts("values_relayed_total", "Input values relayed from widgets")),

		inputsBound: factory.NewCounter(
			counterOpts("inputs_bound_total", "Inputs bound across all sessions")),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of active WebSocket sessions",
			ConstLabels: config.ConstLabels,
		}),

		handlerPanics: factory.NewCounter(
			counterOpts("handler_panics_total", "Panics recovered on session event loops")),
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
