package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "verification_layer",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "verification_layer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "verification_layer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	verifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "verification_layer",
			Subsystem: "eligibility",
			Name:      "verifications_total",
			Help:      "Total number of recorded scoring decisions.",
		},
		[]string{"outcome"},
	)

	scoreDistribution = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "verification_layer",
			Subsystem: "eligibility",
			Name:      "score",
			Help:      "Distribution of computed eligibility scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11), // 0 to 100
		},
	)

	appeals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "verification_layer",
			Subsystem: "appeals",
			Name:      "events_total",
			Help:      "Total number of appeal submissions and resolutions.",
		},
		[]string{"phase"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		verifications,
		scoreDistribution,
		appeals,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordVerification records one committed scoring decision.
func RecordVerification(score int64, qualified bool) {
	outcome := "rejected"
	if qualified {
		outcome = "approved"
	}
	verifications.WithLabelValues(outcome).Inc()
	scoreDistribution.Observe(float64(score))
}

// RecordAppeal records an appeal lifecycle event.
func RecordAppeal(phase string) {
	appeals.WithLabelValues(phase).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "applications":
		if len(parts) == 1 {
			return "/applications"
		}
		if len(parts) == 2 {
			return "/applications/:id"
		}
		return "/applications/:id/" + strings.Join(parts[2:], "/")
	case "audit":
		if len(parts) == 1 {
			return "/audit"
		}
		return "/audit/:id"
	case "system":
		return "/" + trimmed
	default:
		return "/" + parts[0]
	}
}
