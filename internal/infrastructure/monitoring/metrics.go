package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Navigation outcomes.
const (
	OutcomeLoaded    = "loaded"
	OutcomeFailed    = "failed"
	OutcomeDiscarded = "discarded"
)

// Metrics holds all Prometheus metrics. Every recording method is safe on a
// nil receiver so components can run without a collector.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Facade metrics
	Navigations   *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	FramesActive  prometheus.Gauge

	// Bridge metrics
	BridgeMessages *prometheus.CounterVec
}

// NewMetrics creates a collector on its own registry, so several instances
// can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facade_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "facade_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		Navigations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facade_navigations_total",
				Help: "Navigations by outcome (loaded, failed, discarded)",
			},
			[]string{"outcome"},
		),
		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "facade_repository_fetch_duration_seconds",
				Help:    "Repository API call duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "status"},
		),
		FramesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "facade_frames_active",
				Help: "Number of live frame runtimes",
			},
		),

		BridgeMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facade_bridge_messages_total",
				Help: "Bridge messages by direction and kind",
			},
			[]string{"direction", "kind"},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordNavigation counts a settled navigation.
func (m *Metrics) RecordNavigation(outcome string) {
	if m == nil {
		return
	}
	m.Navigations.WithLabelValues(outcome).Inc()
}

// RecordFetch records one repository API call.
func (m *Metrics) RecordFetch(endpoint, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(endpoint, status).Observe(duration.Seconds())
}

// RecordBridgeMessage records a bridge message; direction is "in" or "out".
func (m *Metrics) RecordBridgeMessage(direction, kind string) {
	if m == nil {
		return
	}
	m.BridgeMessages.WithLabelValues(direction, kind).Inc()
}

func (m *Metrics) IncFrames() {
	if m == nil {
		return
	}
	m.FramesActive.Inc()
}

func (m *Metrics) DecFrames() {
	if m == nil {
		return
	}
	m.FramesActive.Dec()
}
