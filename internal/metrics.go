package internal

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"plant-maint-api/internal/sheet"
)

// Metrics collects Prometheus metrics for HTTP requests and table store
// round trips on a private registry.
type Metrics struct {
	reqTotal     *prometheus.CounterVec
	reqLatency   *prometheus.HistogramVec
	storeTotal   *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec
	registry     *prometheus.Registry
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	reqTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	reqLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	storeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "table_store_operations_total",
			Help: "Table store reads and full-table replaces",
		},
		[]string{"op", "table", "outcome"},
	)
	storeLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "table_store_operation_duration_seconds",
			Help:    "Table store round-trip latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "table"},
	)

	registry.MustRegister(reqTotal, reqLatency, storeTotal, storeLatency)

	return &Metrics{
		reqTotal:     reqTotal,
		reqLatency:   reqLatency,
		storeTotal:   storeTotal,
		storeLatency: storeLatency,
		registry:     registry,
	}
}

// Middleware returns a chi middleware that records request metrics.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if chiCtx := chi.RouteContext(r.Context()); chiCtx != nil && len(chiCtx.RoutePatterns) > 0 {
				path = chiCtx.RoutePatterns[len(chiCtx.RoutePatterns)-1]
			}
			status := http.StatusText(rw.code)
			m.reqTotal.WithLabelValues(r.Method, path, status).Inc()
			m.reqLatency.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler returns an http.Handler that serves the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// MeasureStore wraps a table store so every read and replace is counted
// and timed. Every mutation pays a full read plus a full write, so store
// latency dominates request latency; these series make that visible.
func (m *Metrics) MeasureStore(s sheet.Store) sheet.Store {
	return &measuredStore{inner: s, metrics: m}
}

type measuredStore struct {
	inner   sheet.Store
	metrics *Metrics
}

func (ms *measuredStore) Read(ctx context.Context, table string) (sheet.Table, error) {
	start := time.Now()
	t, err := ms.inner.Read(ctx, table)
	ms.record("read", table, start, err)
	return t, err
}

func (ms *measuredStore) Replace(ctx context.Context, table string, t sheet.Table) error {
	start := time.Now()
	err := ms.inner.Replace(ctx, table, t)
	ms.record("replace", table, start, err)
	return err
}

func (ms *measuredStore) record(op, table string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ms.metrics.storeTotal.WithLabelValues(op, table, outcome).Inc()
	ms.metrics.storeLatency.WithLabelValues(op, table).Observe(time.Since(start).Seconds())
}

// statusRecorder captures the HTTP status code for metrics
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	return sr.ResponseWriter.Write(b)
}
