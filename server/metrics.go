package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Shivvam/agent-communication-protocol/engine"
)

// Metrics holds the Prometheus collectors of the transport and of the runs
// it dispatches. Each Metrics owns its registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	events       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with a fresh registry.
// activeRuns, when set, backs the acp_active_runs gauge.
func NewMetrics(activeRuns func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acp_http_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "acp_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acp_runs_total",
			Help: "Finished runs by agent and terminal status.",
		}, []string{"agent", "status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "acp_run_duration_seconds",
			Help:    "Run wall time in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"agent"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acp_run_events_total",
			Help: "Events emitted by agents, by agent and kind.",
		}, []string{"agent", "kind"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.runs, m.runDuration, m.events,
	)

	if activeRuns != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "acp_active_runs",
			Help: "Runs currently executing.",
		}, func() float64 { return float64(activeRuns()) }))
	}

	return m
}

// Registry exposes the underlying registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Callbacks returns the engine callbacks feeding the run metrics.
func (m *Metrics) Callbacks() []engine.Callback {
	return []engine.Callback{
		engine.NewFunctionCallback(engine.CallbackAfterRun, func(_ context.Context, cc *engine.CallbackContext) error {
			if cc.Run == nil {
				return nil
			}

			m.runs.WithLabelValues(cc.Run.AgentName, string(cc.Run.Status)).Inc()
			m.runDuration.WithLabelValues(cc.Run.AgentName).Observe(cc.Duration.Seconds())

			return nil
		}),
		engine.NewFunctionCallback(engine.CallbackOnEvent, func(_ context.Context, cc *engine.CallbackContext) error {
			if cc.Event != nil {
				m.events.WithLabelValues(cc.Event.Author, string(cc.Event.Kind())).Inc()
			}

			return nil
		}),
	}
}

// middleware records request count and latency labelled with the chi
// route pattern rather than the raw path.
func (m *Metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := routePattern(r)
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// routePattern extracts the matched pattern like "/runs/{run_id}", falling
// back to the raw path for unmatched requests.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}

	return r.URL.Path
}
