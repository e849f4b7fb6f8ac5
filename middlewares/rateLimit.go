package middlewares

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// RateLimiter allows each client IP at most limit requests per window.
type RateLimiter struct {
	limits            sync.Map
	limit             int32
	window            time.Duration
	cleanup           time.Duration
	trustForwardedFor bool
	now               func() time.Time
}

type clientData struct {
	requests    atomic.Int32
	windowStart atomic.Int64
}

// NewRateLimiter returns a limiter whose idle clients are forgotten every
// cleanup interval until ctx is done. Clients are keyed by the connection
// address unless trustForwardedFor is set.
func NewRateLimiter(ctx context.Context, limit int, window, cleanup time.Duration, trustForwardedFor bool) *RateLimiter {
	if limit > math.MaxInt32 {
		limit = math.MaxInt32
	}
	rl := &RateLimiter{
		limit:             int32(limit),
		window:            window,
		cleanup:           cleanup,
		trustForwardedFor: trustForwardedFor,
		now:               time.Now,
	}

	go rl.runCleanup(ctx)

	return rl
}

func (rl *RateLimiter) runCleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

// sweep drops clients whose window has expired.
func (rl *RateLimiter) sweep() {
	now := rl.now().UnixNano()
	rl.limits.Range(func(key, value interface{}) bool {
		data := value.(*clientData)
		if now-data.windowStart.Load() >= int64(rl.window) {
			rl.limits.Delete(key)
		}
		return true
	})
}

// allow records a request from clientIP and reports whether it is within budget.
func (rl *RateLimiter) allow(clientIP string) bool {
	now := rl.now().UnixNano()

	fresh := &clientData{}
	fresh.windowStart.Store(now)
	value, _ := rl.limits.LoadOrStore(clientIP, fresh)
	data := value.(*clientData)

	start := data.windowStart.Load()
	if now-start >= int64(rl.window) && data.windowStart.CompareAndSwap(start, now) {
		data.requests.Store(0)
	}

	return data.requests.Add(1) <= rl.limit
}

// Limit rejects requests over budget with 429. A limit <= 0 disables it.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		if !rl.allow(getClientIP(r, rl.trustForwardedFor)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			HttpError(w, r, "Too many requests", http.StatusTooManyRequests, nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func getClientIP(r *http.Request, trustForwardedFor bool) string {
	if xff := r.Header.Get("X-Forwarded-For"); trustForwardedFor && xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return ip
}
