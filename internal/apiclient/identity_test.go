package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/streamloft/gateway/internal/faults"
	"github.com/streamloft/gateway/internal/models"
)

func TestWhoAmIResolvesIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/me" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer session-token" {
			t.Errorf("expected bearer header got %q", got)
		}
		w.Write([]byte(`{"id":"u1","username":"streamer","email":"s@example.com","role":"creator"}`))
	}))
	defer srv.Close()

	client := New(srv.URL)

	user, err := client.WhoAmI(context.Background(), "session-token")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if user.ID != "u1" || user.Role != models.RoleCreator {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestWhoAmIUnknownRoleDefaultsToViewer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"u1","username":"streamer","role":"superuser"}`))
	}))
	defer srv.Close()

	user, err := New(srv.URL).WhoAmI(context.Background(), "session-token")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if user.Role != models.RoleViewer {
		t.Fatalf("expected unknown role to normalise to viewer, got %q", user.Role)
	}
}

func TestWhoAmIRejectedTokenIsInvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL).WhoAmI(context.Background(), "stale-token")
	if !faults.Is(err, faults.InvalidToken) {
		t.Fatalf("expected InvalidToken got %v", err)
	}
	if faults.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected status 401 got %d", faults.StatusOf(err))
	}
}

func TestWhoAmITransportFailureIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := New(srv.URL).WhoAmI(context.Background(), "session-token")
	if !faults.Is(err, faults.Unknown) {
		t.Fatalf("expected Unknown for transport failure, got %v", err)
	}
}

func TestUserByEmailNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("email"); got != "nobody@example.com" {
			t.Errorf("expected email query got %q", got)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL).UserByEmail(context.Background(), "nobody@example.com", "session-token")
	if !faults.Is(err, faults.NotFound) {
		t.Fatalf("expected NotFound got %v", err)
	}
}

func TestUserByEmailRejectedTokenIsInvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(srv.URL).UserByEmail(context.Background(), "a@example.com", "session-token")
	if !faults.Is(err, faults.InvalidToken) {
		t.Fatalf("expected InvalidToken got %v", err)
	}
}

func TestUserByEmailServerErrorIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).UserByEmail(context.Background(), "a@example.com", "session-token")
	if !faults.Is(err, faults.Unknown) {
		t.Fatalf("expected Unknown got %v", err)
	}
}

func TestLoginValidatesInputBeforeNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), "", "password")
	if !faults.Is(err, faults.InvalidRequest) {
		t.Fatalf("expected InvalidRequest got %v", err)
	}
	if called {
		t.Fatal("expected no network call for invalid input")
	}
}

func TestLoginBadCredentialsIsInvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), "streamer", "wrong")
	if !faults.Is(err, faults.InvalidToken) {
		t.Fatalf("expected InvalidToken got %v", err)
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	_, err := New("http://unused").Register(context.Background(), models.Registration{
		Username:             "streamer",
		Email:                "s@example.com",
		Password:             "secret123",
		PasswordConfirmation: "secret124",
	})
	if !faults.Is(err, faults.InvalidRequest) {
		t.Fatalf("expected InvalidRequest got %v", err)
	}
}
