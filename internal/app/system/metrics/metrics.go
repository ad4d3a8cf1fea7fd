// Package metrics owns the Prometheus collectors exposed at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Selection change operations.
const (
	OpAdd       = "add"
	OpDuplicate = "duplicate"
	OpRemove    = "remove"
	OpEnroll    = "enroll"
	OpUnenroll  = "unenroll"
)

// Metrics groups the app's collectors on a private registry so tests can
// build as many as they need.
type Metrics struct {
	reg *prometheus.Registry

	selectionChanges *prometheus.CounterVec
	opportunityLists prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New registers the collectors, plus Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		selectionChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "haymanh_selection_changes_total",
			Help: "Dashboard selection and enrollment changes by operation.",
		}, []string{"op"}),
		opportunityLists: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "haymanh_opportunity_list_total",
			Help: "Opportunity list requests served.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "haymanh_http_requests_total",
			Help: "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "haymanh_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	m.reg.MustRegister(
		m.selectionChanges,
		m.opportunityLists,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// SelectionChanged counts one selection or enrollment change. A nil
// receiver is a no-op.
func (m *Metrics) SelectionChanged(op string) {
	if m == nil {
		return
	}
	m.selectionChanges.WithLabelValues(op).Inc()
}

// OpportunityListed counts one list request.
func (m *Metrics) OpportunityListed() {
	if m == nil {
		return
	}
	m.opportunityLists.Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency keyed by the chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
