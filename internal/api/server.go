package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/star/apos/internal/auth"
	"github.com/star/apos/internal/ephemeris"
	"github.com/star/apos/internal/health"
	"github.com/star/apos/internal/httputil"
	"github.com/star/apos/internal/metrics"
	"github.com/star/apos/internal/refdata"
	"github.com/star/apos/internal/series"
	"github.com/star/apos/internal/timescale"
)

// DefaultMaxSeriesPoints caps a series request when Deps leaves it unset.
const DefaultMaxSeriesPoints = 1000

// Deps are the collaborators the HTTP handlers need.
type Deps struct {
	Tables    *refdata.Store
	Converter *timescale.Converter
	Provider  ephemeris.Provider
	Pool      *series.Pool

	Auth            auth.Config
	RateLimit       httputil.RateLimitConfig
	MaxSeriesPoints int
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, deps Deps) (*Server, error) {
	handler, err := newHandler(logger, deps)
	if err != nil {
		return nil, err
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}, nil
}

func newHandler(logger *slog.Logger, deps Deps) (http.Handler, error) {
	if deps.MaxSeriesPoints <= 0 {
		deps.MaxSeriesPoints = DefaultMaxSeriesPoints
	}
	h := &handlers{logger: logger, deps: deps}

	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(map[string]health.Check{
		"tables": func() error {
			if deps.Tables == nil || deps.Tables.Get() == nil {
				return errors.New("reference tables not loaded")
			}
			return nil
		},
		"ephemeris": func() error {
			if deps.Provider == nil {
				return errors.New("ephemeris not opened")
			}
			return nil
		},
	}))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/apparent", h.apparent)
	mux.HandleFunc("GET /api/v1/apparent/series", h.series)
	mux.HandleFunc("GET /api/v1/apparent/{body}", h.apparentBody)
	mux.HandleFunc("GET /api/v1/timescales", h.timescales)
	mux.HandleFunc("GET /api/v1/ephemeris", h.ephemeris)

	limit, err := httputil.RateLimit(deps.RateLimit, probePath)
	if err != nil {
		return nil, err
	}

	// Build middleware chain: metrics -> logging -> rate limit -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(deps.Auth)(handler)
	handler = limit(handler)
	handler = loggingMiddleware(logger, deps.RateLimit.TrustProxy)(handler)
	handler = metrics.Middleware(handler)
	return handler, nil
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
