package api

import (
	"log/slog"
	"net"
	"net/http"

	"shop-api/internal/ratelimit"
)

// RateLimit rejects a client once limiter says its address has used up the
// current window. Keys are prefixed with scope so routes count separately.
func RateLimit(limiter ratelimit.Limiter, scope string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !limiter.Allow(r.Context(), scope+":"+ip) {
			slog.Warn("Rate limit exceeded", "scope", scope, "ip", ip)
			writeError(w, http.StatusTooManyRequests, msgTooManyRequests)
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
