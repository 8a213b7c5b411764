package httputil

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-client request rate limiting.
type RateLimitConfig struct {
	PerSecond  float64 // sustained requests per second; <= 0 disables limiting
	Burst      int
	TrustProxy bool
	MaxClients int // clients tracked at once; least recently seen are dropped
}

// IPRateLimiter hands out one token bucket per client IP. At most
// MaxClients buckets are kept.
type IPRateLimiter struct {
	limiters *lru.Cache
	r        rate.Limit
	b        int
}

// NewIPRateLimiter creates a limiter allowing r requests per second with
// burst b for each of up to maxClients IPs.
func NewIPRateLimiter(r rate.Limit, b, maxClients int) (*IPRateLimiter, error) {
	if maxClients <= 0 {
		maxClients = 10000
	}
	if b < 1 {
		b = 1
	}
	c, err := lru.New(maxClients)
	if err != nil {
		return nil, err
	}
	return &IPRateLimiter{limiters: c, r: r, b: b}, nil
}

// Limiter returns the bucket for ip, creating it if needed.
func (l *IPRateLimiter) Limiter(ip string) *rate.Limiter {
	if v, ok := l.limiters.Get(ip); ok {
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(l.r, l.b)
	// A concurrent request may have created one first; keep theirs.
	if prev, ok, _ := l.limiters.PeekOrAdd(ip, lim); ok {
		return prev.(*rate.Limiter)
	}
	return lim
}

// Allow reports whether a request from ip may proceed now.
func (l *IPRateLimiter) Allow(ip string) bool {
	return l.Limiter(ip).Allow()
}

// Clients returns the number of tracked client IPs.
func (l *IPRateLimiter) Clients() int {
	return l.limiters.Len()
}

// RateLimit returns a middleware answering 429 to clients over their rate.
// Paths for which exempt returns true are never limited. A config with
// PerSecond <= 0 yields a pass-through middleware.
func RateLimit(cfg RateLimitConfig, exempt func(path string) bool) (func(http.Handler) http.Handler, error) {
	if cfg.PerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	limiter, err := NewIPRateLimiter(rate.Limit(cfg.PerSecond), cfg.Burst, cfg.MaxClients)
	if err != nil {
		return nil, err
	}
	retryAfter := strconv.Itoa(int(math.Ceil(1 / cfg.PerSecond)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt != nil && exempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.Allow(ClientIP(r, cfg.TrustProxy)) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", retryAfter)
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}
