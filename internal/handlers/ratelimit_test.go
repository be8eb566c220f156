package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type recordingLimiter struct {
	keys  []string
	allow bool
}

func (l *recordingLimiter) Allow(key string) bool {
	l.keys = append(l.keys, key)
	return l.allow
}

func TestAllowRequestNilLimiterAllows(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	if !allowRequest(nil, r, "login") {
		t.Fatal("expected nil limiter to allow")
	}
}

func TestAllowRequestScopesKeyByEndpoint(t *testing.T) {
	limiter := &recordingLimiter{allow: true}

	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.RemoteAddr = "10.0.0.7:51234"

	allowRequest(limiter, r, "login")
	allowRequest(limiter, r, "oauth")

	if len(limiter.keys) != 2 {
		t.Fatalf("expected 2 limiter checks got %d", len(limiter.keys))
	}
	if limiter.keys[0] != "login:10.0.0.7" {
		t.Fatalf("expected scoped key login:10.0.0.7 got %q", limiter.keys[0])
	}
	if limiter.keys[1] != "oauth:10.0.0.7" {
		t.Fatalf("expected scoped key oauth:10.0.0.7 got %q", limiter.keys[1])
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.RemoteAddr = "10.0.0.7:51234"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	if got := clientIP(r); got != "203.0.113.9" {
		t.Fatalf("expected first forwarded hop got %q", got)
	}
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.RemoteAddr = "10.0.0.7:51234"

	if got := clientIP(r); got != "10.0.0.7" {
		t.Fatalf("expected host from remote addr got %q", got)
	}

	r.RemoteAddr = "10.0.0.8"
	if got := clientIP(r); got != "10.0.0.8" {
		t.Fatalf("expected bare remote addr got %q", got)
	}
}

func TestAllowRequestDenied(t *testing.T) {
	limiter := &recordingLimiter{allow: false}

	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	if allowRequest(limiter, r, "login") {
		t.Fatal("expected denial to propagate")
	}
}
