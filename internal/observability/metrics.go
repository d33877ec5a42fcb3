package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jobmetrics "github.com/hotelpulse/hotelpulse/internal/jobs"
)

// Metrics collects the Prometheus metrics of the API process.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fetchDuration   *prometheus.HistogramVec
	fetchErrors     *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	droppedRecords  *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	jobs            *jobmetrics.Metrics
}

// NewMetrics initialises the registry and every collector.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hotelpulse_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hotelpulse_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hotelpulse_metrics_fetch_duration_seconds",
		Help:    "Duration of payload fetches against the metrics service, by period.",
		Buckets: prometheus.DefBuckets,
	}, []string{"period"})
	fetchErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hotelpulse_metrics_fetch_errors_total",
		Help: "Failed payload fetches, by period.",
	}, []string{"period"})
	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hotelpulse_dashboard_refreshes_total",
		Help: "Dashboard refresh cycles by outcome.",
	}, []string{"outcome"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hotelpulse_dashboard_dropped_records_total",
		Help: "Raw series records that matched no bucket, by series.",
	}, []string{"series"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hotelpulse_payload_cache_lookups_total",
		Help: "Payload cache lookups by result.",
	}, []string{"result"})
	registry.MustRegister(requests, duration, fetchDuration, fetchErrors, refreshes, dropped, cache)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		fetchDuration:   fetchDuration,
		fetchErrors:     fetchErrors,
		refreshes:       refreshes,
		droppedRecords:  dropped,
		cacheLookups:    cache,
		jobs:            jobmetrics.NewMetrics(registry),
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
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

// ObserveFetch records one metrics-service fetch.
func (m *Metrics) ObserveFetch(period string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(period).Observe(d.Seconds())
	if err != nil {
		m.fetchErrors.WithLabelValues(period).Inc()
	}
}

// ObserveDropped counts raw records that were discarded during reconciliation.
func (m *Metrics) ObserveDropped(series string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.droppedRecords.WithLabelValues(series).Add(float64(n))
}

// ObserveRefresh counts a refresh outcome.
func (m *Metrics) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

// ObserveCache counts a payload cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Jobs exposes the job collectors registered on this registry.
func (m *Metrics) Jobs() *jobmetrics.Metrics {
	if m == nil {
		return nil
	}
	return m.jobs
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
