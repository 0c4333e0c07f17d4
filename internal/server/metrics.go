package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/noderelax/pkg/observability"
)

// Metrics exports solver, cache and HTTP activity to Prometheus. It
// implements the arrange, cache and HTTP hook interfaces; register it with
// [Metrics.Install].
type Metrics struct {
	registry *prometheus.Registry

	tasks          *prometheus.CounterVec
	taskDuration   prometheus.Histogram
	phaseIters     *prometheus.HistogramVec
	phaseConverged *prometheus.CounterVec
	runningTasks   prometheus.Gauge
	renders        *prometheus.CounterVec
	cacheRequests  *prometheus.CounterVec
	cacheBytes     *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a private registry, so several
// servers (or tests) can coexist in one process.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "noderelax_arrange_tasks_total",
				Help: "Finished arrange tasks by outcome",
			},
			[]string{"outcome"},
		),
		taskDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "noderelax_arrange_duration_seconds",
				Help:    "Wall time of arrange tasks",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
		phaseIters: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "noderelax_arrange_phase_iterations",
				Help:    "Iterations run per arrange phase",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 500, 1000},
			},
			[]string{"phase"},
		),
		phaseConverged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "noderelax_arrange_phase_converged_total",
				Help: "Phases that ended early because no node moved",
			},
			[]string{"phase"},
		),
		runningTasks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "noderelax_arrange_running_tasks",
				Help: "Arrange tasks currently running",
			},
		),
		renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "noderelax_renders_total",
				Help: "Render runs by result",
			},
			[]string{"result"},
		),
		cacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "noderelax_cache_requests_total",
				Help: "Cache lookups by key type and result",
			},
			[]string{"type", "result"},
		),
		cacheBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "noderelax_cache_written_bytes_total",
				Help: "Bytes written to the cache by key type",
			},
			[]string{"type"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "noderelax_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "noderelax_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
	m.registry.MustRegister(
		m.tasks, m.taskDuration, m.phaseIters, m.phaseConverged, m.runningTasks,
		m.renders, m.cacheRequests, m.cacheBytes, m.httpRequests, m.httpDuration,
	)
	return m
}

// Install registers m as the process-wide arrange, pipeline, cache and
// HTTP hooks.
func (m *Metrics) Install() {
	observability.SetArrangeHooks(m)
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// =============================================================================
// observability.ArrangeHooks
// =============================================================================

func (m *Metrics) OnArrangeStart(context.Context, int) {
	m.runningTasks.Inc()
}

func (m *Metrics) OnPhaseComplete(_ context.Context, phase, iterations int, converged bool, _ time.Duration) {
	label := strconv.Itoa(phase)
	m.phaseIters.WithLabelValues(label).Observe(float64(iterations))
	if converged {
		m.phaseConverged.WithLabelValues(label).Inc()
	}
}

func (m *Metrics) OnArrangeComplete(_ context.Context, canceled bool, d time.Duration, err error) {
	m.runningTasks.Dec()
	outcome := "done"
	switch {
	case err != nil:
		outcome = "failed"
	case canceled:
		outcome = "canceled"
	}
	m.tasks.WithLabelValues(outcome).Inc()
	m.taskDuration.Observe(d.Seconds())
}

// =============================================================================
// observability.PipelineHooks
// =============================================================================

func (m *Metrics) OnRenderStart(context.Context, []string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, _ []string, _ time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.renders.WithLabelValues(result).Inc()
}

// =============================================================================
// observability.CacheHooks
// =============================================================================

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// =============================================================================
// observability.HTTPHooks
// =============================================================================

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

var (
	_ observability.ArrangeHooks  = (*Metrics)(nil)
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)
