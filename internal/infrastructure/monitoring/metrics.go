// Package monitoring provides Prometheus metrics for the web client and its
// calls to the recipe service.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger   *zap.Logger
	gatherer prometheus.Gatherer

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Backend metrics
	backendRequestsTotal   *prometheus.CounterVec
	backendRequestDuration *prometheus.HistogramVec

	// Client metrics
	eventsTotal       *prometheus.CounterVec
	signInsTotal      prometheus.Counter
	recipesViewed     prometheus.Counter
	recipesLikedTotal prometheus.Counter
}

// NewMetricsCollector registers the collectors on reg. A nil reg uses a
// fresh registry.
func NewMetricsCollector(reg *prometheus.Registry, logger *zap.Logger) *MetricsCollector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger,
		gatherer: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		backendRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_requests_total",
				Help: "Total number of calls to the recipe service",
			},
			[]string{"method", "outcome"},
		),
		backendRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_request_duration_seconds",
				Help:    "Recipe service call duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"method"},
		),

		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "client_events_total",
				Help: "Total number of audit events by delivery outcome",
			},
			[]string{"type", "outcome"},
		),
		signInsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "client_sign_ins_total",
				Help: "Total number of local sign-ins",
			},
		),
		recipesViewed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "client_recipes_viewed_total",
				Help: "Total number of recipe detail views",
			},
		),
		recipesLikedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "client_recipes_liked_total",
				Help: "Total number of recipe likes",
			},
		),
	}
}

// HTTPMiddleware records request counts and latency per route pattern.
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// BackendRequest records one call to the recipe service.
func (m *MetricsCollector) BackendRequest(method, outcome string, duration time.Duration) {
	m.backendRequestsTotal.WithLabelValues(method, outcome).Inc()
	m.backendRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// EventDelivered records the outcome of one audit event delivery.
func (m *MetricsCollector) EventDelivered(eventType, outcome string) {
	m.eventsTotal.WithLabelValues(eventType, outcome).Inc()
}

func (m *MetricsCollector) SignedIn() {
	m.signInsTotal.Inc()
}

func (m *MetricsCollector) RecipeViewed() {
	m.recipesViewed.Inc()
}

func (m *MetricsCollector) RecipeLiked() {
	m.recipesLikedTotal.Inc()
}

// Gatherer exposes the underlying registry.
func (m *MetricsCollector) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
