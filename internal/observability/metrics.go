// Package observability exposes Prometheus metrics for the HTTP surface and
// the projection engine.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iwvelando/proforma/internal/engine"
)

// Metrics holds the registry and every collector of the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	computationsTotal   *prometheus.CounterVec
	computationDuration prometheus.Histogram
	irrTotal            *prometheus.CounterVec
	cacheLookups        *prometheus.CounterVec
}

// NewMetrics creates a private registry with the base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proforma_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "proforma_http_request_duration_seconds",
		Help:    "HTTP request duration by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	computations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proforma_computations_total",
		Help: "Projection computations by outcome.",
	}, []string{"outcome"})
	computationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "proforma_computation_duration_seconds",
		Help:    "Time spent building and valuing a projection.",
		Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05},
	})
	irr := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proforma_irr_total",
		Help: "Solved IRRs by perspective and convergence status.",
	}, []string{"perspective", "status"})
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proforma_cache_lookups_total",
		Help: "Result cache lookups by outcome.",
	}, []string{"result"})
	registry.MustRegister(requests, duration, computations, computationDuration, irr, cacheLookups)
	return &Metrics{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:       requests,
		requestDuration:     duration,
		computationsTotal:   computations,
		computationDuration: computationDuration,
		irrTotal:            irr,
		cacheLookups:        cacheLookups,
	}
}

// Handler returns the /metrics handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records the count and duration of every request by route
// pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveComputation records a finished computation. A nil result counts as
// rejected assumptions.
func (m *Metrics) ObserveComputation(result *engine.Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.computationDuration.Observe(elapsed.Seconds())
	if result == nil {
		m.computationsTotal.WithLabelValues("invalid").Inc()
		return
	}
	m.computationsTotal.WithLabelValues("ok").Inc()
	m.irrTotal.WithLabelValues("project", string(result.IRRProject.Status)).Inc()
	m.irrTotal.WithLabelValues("equity", string(result.IRREquity.Status)).Inc()
}

// ObserveCacheLookup records whether a result was served from the cache.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
