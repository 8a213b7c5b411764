package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/star/apos/internal/apos"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/", "/"},
		{"/api/v1/apparent", "/api/v1/apparent"},
		{"/api/v1/apparent/series", "/api/v1/apparent/series"},
		{"/api/v1/timescales", "/api/v1/timescales"},
		{"/api/v1/ephemeris", "/api/v1/ephemeris"},

		// Per-body routes collapse to one label.
		{"/api/v1/apparent/sun", "/api/v1/apparent/{body}"},
		{"/api/v1/apparent/moon", "/api/v1/apparent/{body}"},
		{"/api/v1/apparent/jupiter", "/api/v1/apparent/{body}"},

		// Unknown/bot paths collapse to "other".
		{"/api/v1/apparent/", "other"},
		{"/api/v1/apparent/sun/extra", "other"},
		{"/wp-admin", "other"},
		{"/robots.txt", "other"},
		{"/.env", "other"},
		{"/api/v2/something", "other"},
		{"/favicon.ico", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := normalizeRoute(tt.path)
			if got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestMetricsCardinality verifies that 100 unique body names produce
// exactly 1 distinct path label, not 100.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[normalizeRoute(fmt.Sprintf("/api/v1/apparent/body%d", i))] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for parameterized paths, got %d: %v", len(seen), seen)
	}
}

func TestResultLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("sun: %w", apos.ErrNoConvergence), "no_convergence"},
		{errors.New("outside range"), "error"},
	}
	for _, tt := range tests {
		if got := resultLabel(tt.err); got != tt.want {
			t.Errorf("resultLabel(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRecorder(t *testing.T) {
	ok := testutil.ToFloat64(computationsTotal.WithLabelValues("moon", "ok"))
	failed := testutil.ToFloat64(computationsTotal.WithLabelValues("moon", "no_convergence"))

	var r Recorder
	r.ObserveComputation("moon", time.Millisecond, 3, nil)
	r.ObserveComputation("moon", time.Millisecond, apos.MaxIterations, apos.ErrNoConvergence)

	if got := testutil.ToFloat64(computationsTotal.WithLabelValues("moon", "ok")); got != ok+1 {
		t.Errorf("ok count = %v, want %v", got, ok+1)
	}
	if got := testutil.ToFloat64(computationsTotal.WithLabelValues("moon", "no_convergence")); got != failed+1 {
		t.Errorf("no_convergence count = %v, want %v", got, failed+1)
	}
}

func TestMiddlewareCountsRequests(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	c := httpRequestsTotal.WithLabelValues("/api/v1/apparent/{body}", http.MethodGet, "418")
	before := testutil.ToFloat64(c)

	for _, body := range []string{"sun", "moon"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/apparent/"+body, nil))
		if rec.Code != http.StatusTeapot {
			t.Fatalf("status = %d", rec.Code)
		}
	}
	if got := testutil.ToFloat64(c); got != before+2 {
		t.Errorf("count = %v, want %v", got, before+2)
	}
}
