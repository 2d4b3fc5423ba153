package ratelimit

import (
	"net/http"
	"strconv"
)

// KeyFunc derives the limiter key from a request.
type KeyFunc func(r *http.Request) string

// ByClientIP keys the limiter on the remote address. Mount behind a
// middleware that resolves proxy headers (e.g. chi's RealIP) so the key
// reflects the actual client.
func ByClientIP(r *http.Request) string {
	return r.RemoteAddr
}

// Middleware rejects requests over the limit with 429 and standard
// rate-limit headers. Store errors fail open: throttling is protective,
// not load-bearing, and a Redis outage must not take down login.
func Middleware(l *Limiter, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := l.Allow(r.Context(), key(r))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed() {
				if retry := int(result.RetryAfter().Seconds()); retry > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retry))
				}
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
