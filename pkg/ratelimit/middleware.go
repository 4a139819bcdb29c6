package ratelimit

import (
	"net"
	"net/http"
	"strconv"
)

// Middleware limits requests per client IP, answering 429 with a
// Retry-After header when the window is exhausted. Limiter errors fail
// open: blocking all traffic on a store outage would be worse than
// admitting a few extra login attempts.
func Middleware(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

			if !result.Allowed {
				retry := int(result.RetryAfter().Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP keys the limiter on the connection's remote address.
// Forwarding headers are deliberately ignored here: they are only
// trustworthy after a proxy-aware middleware (chi's RealIP) has folded
// them into RemoteAddr, and reading them directly would let any client
// pick its own limiter key.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
