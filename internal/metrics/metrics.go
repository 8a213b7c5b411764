package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/star/apos/internal/apos"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apos_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apos_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	computationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apos_computations_total",
			Help: "Apparent position computations by body and result.",
		},
		[]string{"body", "result"},
	)

	computationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apos_computation_duration_seconds",
			Help:    "Duration of one apparent position computation.",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		},
		[]string{"body"},
	)

	lightTimeIterations = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apos_light_time_iterations",
			Help:    "Newton steps taken by the light-time iteration.",
			Buckets: prometheus.LinearBuckets(1, 1, apos.MaxIterations),
		},
		[]string{"body"},
	)

	seriesPointsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apos_series_points_total",
			Help: "Points computed by series requests, by result.",
		},
		[]string{"result"},
	)

	tablesLoadedTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "apos_reference_tables_loaded_timestamp_seconds",
			Help: "Unix time at which the reference tables were loaded.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(computationsTotal)
	prometheus.MustRegister(computationSeconds)
	prometheus.MustRegister(lightTimeIterations)
	prometheus.MustRegister(seriesPointsTotal)
	prometheus.MustRegister(tablesLoadedTimestamp)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Recorder implements apos.Recorder on the package's collectors.
type Recorder struct{}

var _ apos.Recorder = Recorder{}

// ObserveComputation records the outcome of one position computation.
func (Recorder) ObserveComputation(body string, d time.Duration, iterations int, err error) {
	computationsTotal.WithLabelValues(body, resultLabel(err)).Inc()
	computationSeconds.WithLabelValues(body).Observe(d.Seconds())
	if err == nil {
		lightTimeIterations.WithLabelValues(body).Observe(float64(iterations))
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apos.ErrNoConvergence):
		return "no_convergence"
	}
	return "error"
}

// ObserveSeries records the points of one series request.
func ObserveSeries(ok, failed int) {
	seriesPointsTotal.WithLabelValues("ok").Add(float64(ok))
	seriesPointsTotal.WithLabelValues("error").Add(float64(failed))
}

// SetTablesLoaded records when the reference tables were (re)loaded.
func SetTablesLoaded(t time.Time) {
	tablesLoadedTimestamp.Set(float64(t.Unix()))
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

var knownRoutes = map[string]bool{
	"/":                       true,
	"/healthz":                true,
	"/readyz":                 true,
	"/metrics":                true,
	"/api/v1/apparent":        true,
	"/api/v1/apparent/series": true,
	"/api/v1/timescales":      true,
	"/api/v1/ephemeris":       true,
}

// normalizeRoute maps a request path to a bounded set of label values.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/api/v1/apparent/"); ok && rest != "" && !strings.Contains(rest, "/") {
		return "/api/v1/apparent/{body}"
	}
	return "other"
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		path := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, r.Method).Observe(duration)
	})
}
