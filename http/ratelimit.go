package http

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitConfig configures the fixed-window limiter.
type RateLimitConfig struct {
	Enabled  bool
	Requests int           // requests allowed per window
	Window   time.Duration // window length
}

type window struct {
	start time.Time
	count int
}

// RateLimiter counts requests per key in fixed windows. Counters for expired
// windows are swept at most once per window length.
type RateLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	windows   map[string]*window
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow records a request for key and reports whether it is within the
// limit, how many requests remain and when the current window resets.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, reset time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	w, ok := rl.windows[key]
	if !ok || !now.Before(w.start.Add(rl.window)) {
		w = &window{start: now}
		rl.windows[key] = w
	}
	reset = w.start.Add(rl.window)

	if w.count >= rl.limit {
		return false, 0, reset
	}

	w.count++
	return true, rl.limit - w.count, reset
}

func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	rl.lastSweep = now
	for key, w := range rl.windows {
		if !now.Before(w.start.Add(rl.window)) {
			delete(rl.windows, key)
		}
	}
}

// Middleware limits requests per client IP. It must run after
// middleware.RealIP so that RemoteAddr holds the client address.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		allowed, remaining, reset := rl.Allow(key)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			retryAfter := int(math.Ceil(reset.Sub(rl.now()).Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
			slog.Warn("rate limit exceeded", "remote_ip", key, "path", r.URL.Path)
			WriteError(w, http.StatusTooManyRequests, MsgTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
