package handlers

import (
	"net"
	"net/http"
	"strings"
)

// RateLimiter guards the credential-bearing endpoints (login, register,
// oauth). A nil limiter disables the guard.
type RateLimiter interface {
	Allow(key string) bool
}

// allowRequest checks the caller against the limiter under a per-endpoint
// scope, so login attempts and oauth starts from one IP are budgeted
// separately.
func allowRequest(limiter RateLimiter, r *http.Request, scope string) bool {
	if limiter == nil {
		return true
	}

	key := clientIP(r)
	if scope != "" {
		key = scope + ":" + key
	}
	return limiter.Allow(key)
}

// clientIP resolves the caller's address, trusting the first hop of
// X-Forwarded-For when a proxy in front of the gateway set it.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr)); err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
