// Package observability provides Prometheus metrics for the ratio pipeline.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Upstream
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	BreakerState     *prometheus.GaugeVec

	// Cache
	CacheLookups *prometheus.CounterVec

	// Pool selection
	ProbeOutcomes *prometheus.CounterVec
	Selections    *prometheus.CounterVec

	// Pipeline
	RatioRuns      *prometheus.CounterVec
	RatioDuration  prometheus.Histogram
	RenderDuration prometheus.Histogram
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_ratio"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		UpstreamRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Market data requests by endpoint and outcome",
		}, []string{"endpoint", "status"}),
		UpstreamLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_seconds",
			Help:      "Market data request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"name"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by kind and result",
		}, []string{"kind", "result"}),

		ProbeOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_probes_total",
			Help:      "Pool history probes by outcome",
		}, []string{"outcome"}),
		Selections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_selections_total",
			Help:      "Pool selections by deciding rule",
		}, []string{"reason"}),

		RatioRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratio_runs_total",
			Help:      "Ratio computations by outcome",
		}, []string{"status"}),
		RatioDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ratio_run_seconds",
			Help:      "End-to-end ratio computation time",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		RenderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chart_render_seconds",
			Help:      "ASCII chart render time",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveUpstream(endpoint, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(endpoint, status).Inc()
	m.UpstreamLatency.WithLabelValues(endpoint).Observe(took.Seconds())
}

func (m *Metrics) SetBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(state)
}

func (m *Metrics) ObserveCache(kind, result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveProbe(outcome string) {
	if m == nil {
		return
	}
	m.ProbeOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSelection(reason string) {
	if m == nil {
		return
	}
	m.Selections.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveRun(status string, took time.Duration) {
	if m == nil {
		return
	}
	m.RatioRuns.WithLabelValues(status).Inc()
	m.RatioDuration.Observe(took.Seconds())
}

func (m *Metrics) ObserveRender(took time.Duration) {
	if m == nil {
		return
	}
	m.RenderDuration.Observe(took.Seconds())
}
