package twitch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/streamloft/gateway/internal/faults"
)

func testCredentials(t *testing.T) Credentials {
	t.Helper()
	creds, err := NewCredentials("client-id", "client-secret", "https://gateway.example/auth/twitch/callback")
	if err != nil {
		t.Fatalf("new credentials: %v", err)
	}
	return creds
}

func tokenResponse(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func TestNewCredentialsRequiresAllValues(t *testing.T) {
	if _, err := NewCredentials("client-id", "", "https://gateway.example/cb"); err == nil {
		t.Fatal("expected error for missing client secret")
	}
}

func TestAuthorizeURLIsDeterministic(t *testing.T) {
	client := NewClient(testCredentials(t))

	first := client.AuthorizeURL()
	second := client.AuthorizeURL()
	if first != second {
		t.Fatalf("authorize URL not deterministic: %q vs %q", first, second)
	}

	parsed, err := url.Parse(first)
	if err != nil {
		t.Fatalf("parse authorize URL: %v", err)
	}
	q := parsed.Query()
	if q.Get("response_type") != "code" {
		t.Fatalf("expected response_type=code got %q", q.Get("response_type"))
	}
	if q.Get("client_id") != "client-id" {
		t.Fatalf("expected client_id got %q", q.Get("client_id"))
	}
	if q.Get("scope") != strings.Join(Scopes, " ") {
		t.Fatalf("expected scopes %q got %q", strings.Join(Scopes, " "), q.Get("scope"))
	}
}

func TestExchangeSendsAuthorizationCodeGrant(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = r.PostForm
		tokenResponse(w, `{"access_token":"at","refresh_token":"rt","expires_in":3600,"token_type":"bearer"}`)
	}))
	defer srv.Close()

	client := NewClient(testCredentials(t), WithEndpoints("", srv.URL, ""))

	grant, err := client.Exchange(context.Background(), "the-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}

	if grant.AccessToken != "at" || grant.RefreshToken != "rt" {
		t.Fatalf("unexpected grant %+v", grant)
	}
	if form.Get("grant_type") != "authorization_code" {
		t.Fatalf("expected authorization_code grant got %q", form.Get("grant_type"))
	}
	if form.Get("code") != "the-code" {
		t.Fatalf("expected code to be forwarded, got %q", form.Get("code"))
	}
	if form.Get("redirect_uri") == "" {
		t.Fatal("expected redirect_uri in token request")
	}
	// Twitch requires the client credentials in the request body.
	if form.Get("client_id") != "client-id" || form.Get("client_secret") != "client-secret" {
		t.Fatalf("expected client credentials in form, got id=%q secret=%q",
			form.Get("client_id"), form.Get("client_secret"))
	}
}

func TestRefreshSendsRefreshTokenGrant(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		tokenResponse(w, `{"access_token":"at2","refresh_token":"rt2","expires_in":3600}`)
	}))
	defer srv.Close()

	client := NewClient(testCredentials(t), WithEndpoints("", srv.URL, ""))

	grant, err := client.Refresh(context.Background(), "old-refresh")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if grant.AccessToken != "at2" || grant.RefreshToken != "rt2" {
		t.Fatalf("unexpected grant %+v", grant)
	}
	if form.Get("grant_type") != "refresh_token" {
		t.Fatalf("expected refresh_token grant got %q", form.Get("grant_type"))
	}
	if form.Get("refresh_token") != "old-refresh" {
		t.Fatalf("expected refresh token to be forwarded, got %q", form.Get("refresh_token"))
	}
	if form.Get("client_secret") != "client-secret" {
		t.Fatal("expected client secret in refresh request body")
	}
}

func TestExchangeRejectedByProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(testCredentials(t), WithEndpoints("", srv.URL, ""))

	_, err := client.Exchange(context.Background(), "bad-code")
	if !faults.Is(err, faults.ProviderRejected) {
		t.Fatalf("expected ProviderRejected got %v", err)
	}
	if faults.StatusOf(err) != http.StatusForbidden {
		t.Fatalf("expected status 403 got %d", faults.StatusOf(err))
	}
}

func TestExchangeMissingRefreshTokenIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenResponse(w, `{"access_token":"at","expires_in":3600}`)
	}))
	defer srv.Close()

	client := NewClient(testCredentials(t), WithEndpoints("", srv.URL, ""))

	_, err := client.Exchange(context.Background(), "the-code")
	if !faults.Is(err, faults.MalformedGrant) {
		t.Fatalf("expected MalformedGrant for missing refresh token, got %v", err)
	}
}

func TestExchangeUndecodableBodyIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenResponse(w, `not json`)
	}))
	defer srv.Close()

	client := NewClient(testCredentials(t), WithEndpoints("", srv.URL, ""))

	_, err := client.Exchange(context.Background(), "the-code")
	if !faults.Is(err, faults.MalformedGrant) {
		t.Fatalf("expected MalformedGrant for undecodable body, got %v", err)
	}
}

func TestExchangeTransportFailureIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(testCredentials(t), WithEndpoints("", srv.URL, ""))

	_, err := client.Exchange(context.Background(), "the-code")
	if !faults.Is(err, faults.Unknown) {
		t.Fatalf("expected Unknown for transport failure, got %v", err)
	}
}

func TestProfileSendsBearerAndClientID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer access-token" {
			t.Errorf("expected bearer header got %q", got)
		}
		if got := r.Header.Get("Client-Id"); got != "client-id" {
			t.Errorf("expected Client-Id header got %q", got)
		}
		w.Write([]byte(`{"data":[{"id":"42","login":"streamer","display_name":"Streamer","email":"s@example.com"}]}`))
	}))
	defer srv.Close()

	client := NewClient(testCredentials(t), WithEndpoints("", "", srv.URL))

	profile, err := client.Profile(context.Background(), "access-token")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.ID != "42" || profile.Login != "streamer" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestProfileEmptyDataIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	client := NewClient(testCredentials(t), WithEndpoints("", "", srv.URL))

	_, err := client.Profile(context.Background(), "access-token")
	if !faults.Is(err, faults.MalformedProfile) {
		t.Fatalf("expected MalformedProfile got %v", err)
	}
}

func TestProfileRejectedByProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(testCredentials(t), WithEndpoints("", "", srv.URL))

	_, err := client.Profile(context.Background(), "expired-token")
	if !faults.Is(err, faults.ProviderRejected) {
		t.Fatalf("expected ProviderRejected got %v", err)
	}
}
