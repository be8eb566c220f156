package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/streamloft/gateway/internal/faults"
	"github.com/streamloft/gateway/internal/models"
)

type fakeIdentities struct {
	user  models.User
	err   error
	calls int
}

func (f *fakeIdentities) WhoAmI(_ context.Context, token string) (models.User, error) {
	f.calls++
	if f.err != nil {
		return models.User{}, f.err
	}
	return f.user, nil
}

func resolveRequest(t *testing.T, identities *fakeIdentities, prepare func(*http.Request)) (*httptest.ResponseRecorder, models.User, bool) {
	t.Helper()

	var (
		seen models.User
		ok   bool
	)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, ok = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	resolver := Resolver{Identities: identities, Cookies: NewCookieStore(false, time.Hour)}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if prepare != nil {
		prepare(req)
	}
	rec := httptest.NewRecorder()
	resolver.Middleware(next).ServeHTTP(rec, req)
	return rec, seen, ok
}

func TestResolverNoCookieProceedsAnonymous(t *testing.T) {
	identities := &fakeIdentities{}

	rec, _, ok := resolveRequest(t, identities, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected request to proceed, got status %d", rec.Code)
	}
	if ok {
		t.Fatal("expected no identity without a cookie")
	}
	if identities.calls != 0 {
		t.Fatalf("expected no identity lookup, got %d calls", identities.calls)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("expected no cookie mutation for anonymous request")
	}
}

func TestResolverAttachesIdentityOnce(t *testing.T) {
	identities := &fakeIdentities{user: models.User{ID: "u1", Username: "streamer", Role: models.RoleCreator}}

	_, seen, ok := resolveRequest(t, identities, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: CookieName, Value: "session-token"})
	})

	if !ok {
		t.Fatal("expected identity on context")
	}
	if seen.ID != "u1" {
		t.Fatalf("unexpected identity %+v", seen)
	}
	if identities.calls != 1 {
		t.Fatalf("expected exactly one identity lookup, got %d", identities.calls)
	}
}

func TestResolverSkipsLookupWhenIdentityAlreadyAttached(t *testing.T) {
	identities := &fakeIdentities{}
	attached := models.User{ID: "pre", Username: "attached"}

	var seen models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
	})

	resolver := Resolver{Identities: identities, Cookies: NewCookieStore(false, time.Hour)}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "session-token"})
	req = req.WithContext(WithUser(req.Context(), attached))

	resolver.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)

	if identities.calls != 0 {
		t.Fatalf("expected no remote call when identity already attached, got %d", identities.calls)
	}
	if seen.ID != "pre" {
		t.Fatalf("expected attached identity to survive, got %+v", seen)
	}
}

func TestResolverClearsCookieOnInvalidToken(t *testing.T) {
	identities := &fakeIdentities{err: faults.Upstream(faults.InvalidToken, "api.whoami", http.StatusUnauthorized)}

	rec, _, ok := resolveRequest(t, identities, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: CookieName, Value: "stale-token"})
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected request to proceed unauthenticated, got status %d", rec.Code)
	}
	if ok {
		t.Fatal("expected no identity for rejected token")
	}

	assertCookieCleared(t, rec)
}

func TestResolverClearsCookieOnAmbiguousFailure(t *testing.T) {
	identities := &fakeIdentities{err: errors.New("connection reset")}

	rec, _, ok := resolveRequest(t, identities, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: CookieName, Value: "session-token"})
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected request to proceed, got status %d", rec.Code)
	}
	if ok {
		t.Fatal("expected ambiguous failure to fail closed")
	}

	assertCookieCleared(t, rec)
}

func assertCookieCleared(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected exactly one Set-Cookie header, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != CookieName || c.Value != "" || c.MaxAge != -1 {
		t.Fatalf("expected deletion cookie, got %+v", c)
	}
	if c.Path != "/" {
		t.Fatalf("deletion path must be /, got %q", c.Path)
	}
}
