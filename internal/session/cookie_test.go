package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIssueSetsSessionCookie(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	store := CookieStore{Secure: true, TTL: 24 * time.Hour, NowFunc: func() time.Time { return now }}

	rec := httptest.NewRecorder()
	store.Issue(rec, "session-token")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie got %d", len(cookies))
	}

	c := cookies[0]
	if c.Name != CookieName {
		t.Fatalf("expected cookie %q got %q", CookieName, c.Name)
	}
	if c.Value != "session-token" {
		t.Fatalf("expected token value got %q", c.Value)
	}
	if c.Path != "/" {
		t.Fatalf("expected path / got %q", c.Path)
	}
	if !c.Expires.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("expected expiry %v got %v", now.Add(24*time.Hour), c.Expires)
	}
	if !c.HttpOnly || !c.Secure {
		t.Fatalf("expected HttpOnly and Secure, got %+v", c)
	}
	if c.SameSite != http.SameSiteStrictMode {
		t.Fatalf("expected SameSite strict got %v", c.SameSite)
	}
}

func TestClearMatchesIssuePath(t *testing.T) {
	store := NewCookieStore(false, 24*time.Hour)

	rec := httptest.NewRecorder()
	store.Clear(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie got %d", len(cookies))
	}

	c := cookies[0]
	if c.Name != CookieName || c.Value != "" {
		t.Fatalf("expected empty %q cookie got %+v", CookieName, c)
	}
	if c.Path != "/" {
		t.Fatalf("deletion path must match issue path, got %q", c.Path)
	}
	if c.MaxAge != -1 {
		t.Fatalf("expected MaxAge -1 got %d", c.MaxAge)
	}
	if !c.Expires.Equal(time.Unix(0, 0)) {
		t.Fatalf("expected epoch expiry got %v", c.Expires)
	}
}

func TestTokenReadsCookie(t *testing.T) {
	store := NewCookieStore(false, time.Hour)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := store.Token(r); ok {
		t.Fatal("expected no token without cookie")
	}

	r.AddCookie(&http.Cookie{Name: CookieName, Value: "session-token"})
	token, ok := store.Token(r)
	if !ok || token != "session-token" {
		t.Fatalf("expected token from cookie, got %q ok=%v", token, ok)
	}
}

func TestTokenIgnoresEmptyCookie(t *testing.T) {
	store := NewCookieStore(false, time.Hour)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: ""})

	if _, ok := store.Token(r); ok {
		t.Fatal("expected empty cookie to be treated as absent")
	}
}

func TestNewCookieStoreDefaultsTTL(t *testing.T) {
	store := NewCookieStore(false, 0)
	if store.TTL != 24*time.Hour {
		t.Fatalf("expected default TTL of 24h got %v", store.TTL)
	}
}
