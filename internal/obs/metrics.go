package obs

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce       sync.Once
	clientInitOnce sync.Once

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "clubhire_http_in_flight_requests",
		Help: "In-flight HTTP requests served.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhire_http_requests_total",
			Help: "Total number of HTTP requests served.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clubhire_http_request_duration_seconds",
			Help:    "Served HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	guardDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhire_guard_decisions_total",
			Help: "Route guard decisions by final state.",
		},
		[]string{"state"},
	)

	clientRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhire_client_requests_total",
			Help: "Backend calls issued by the API client.",
		},
		[]string{"method", "shape", "outcome"},
	)

	clientRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clubhire_client_request_duration_seconds",
			Help:    "Backend call latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "shape"},
	)
)

// Init registers server-side metrics in the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration, guardDecisions)
	})
	InitClient()
}

// InitClient registers the API client metrics. Safe to call more than once.
func InitClient() {
	clientInitOnce.Do(func() {
		prometheus.MustRegister(clientRequestsTotal, clientRequestDuration)
	})
}

// Handler exposes the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveGuard counts one navigation decision.
func ObserveGuard(state string) {
	guardDecisions.WithLabelValues(state).Inc()
}

// ObserveClientCall records one backend call made through the API client.
func ObserveClientCall(method, shape, outcome string, d time.Duration) {
	clientRequestsTotal.WithLabelValues(method, shape, outcome).Inc()
	clientRequestDuration.WithLabelValues(method, shape).Observe(d.Seconds())
}

// Instrument measures RPS, latency and in-flight requests of next.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses identifier segments so metric label cardinality stays bounded.
// Numeric segments and ULID-like segments become ":id"; the query string is dropped.
func CanonicalPath(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	parts := strings.Split(p, "/")
	for i, part := range parts {
		if isIdentifier(part) {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

func isIdentifier(seg string) bool {
	if seg == "" {
		return false
	}
	digits := true
	for _, r := range seg {
		if !unicode.IsDigit(r) {
			digits = false
			break
		}
	}
	if digits {
		return true
	}
	if len(seg) != 26 {
		return false
	}
	for _, r := range seg {
		if !unicode.IsDigit(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
