// Package twitch drives the Twitch OAuth 2.0 authorisation-code flow: building
// the authorize URL, exchanging a code for tokens, refreshing an access token,
// and fetching the authenticated user's profile. The client keeps no state
// between calls; grants are handed to the caller, which owns turning them into
// a session.
package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/streamloft/gateway/internal/faults"
)

const (
	defaultAuthorizeURL = "https://id.twitch.tv/oauth2/authorize"
	defaultTokenURL     = "https://id.twitch.tv/oauth2/token"
	defaultUserInfoURL  = "https://api.twitch.tv/helix/users"
)

// Scopes is the fixed set of scopes the application requests.
var Scopes = []string{"channel:bot", "user:read:email", "user:read:chat"}

// Credentials identify the OAuth application to Twitch.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// NewCredentials validates the application credentials. A missing value is a
// configuration error and should abort startup, not surface to a user.
func NewCredentials(clientID, clientSecret, redirectURI string) (Credentials, error) {
	if clientID == "" || clientSecret == "" || redirectURI == "" {
		return Credentials{}, errors.New("twitch: client id, client secret, and redirect uri are all required")
	}
	return Credentials{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
	}, nil
}

// Grant is the token pair issued by Twitch's token endpoint.
type Grant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	Scope        []string
	TokenType    string
}

// Profile is the identity record returned by the helix users endpoint.
type Profile struct {
	ID              string `json:"id"`
	Login           string `json:"login"`
	DisplayName     string `json:"display_name"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profile_image_url"`
	CreatedAt       string `json:"created_at"`
}

// Client talks to Twitch's OAuth and helix endpoints.
type Client struct {
	creds        Credentials
	httpClient   *http.Client
	authorizeURL string
	tokenURL     string
	userInfoURL  string
}

// Option customises the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for provider calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithEndpoints points the client at alternative provider endpoints. Tests
// use this to direct traffic at a local server.
func WithEndpoints(authorize, token, userInfo string) Option {
	return func(c *Client) {
		if authorize != "" {
			c.authorizeURL = authorize
		}
		if token != "" {
			c.tokenURL = token
		}
		if userInfo != "" {
			c.userInfoURL = userInfo
		}
	}
}

// NewClient constructs a Twitch client for the provided credentials.
func NewClient(creds Credentials, opts ...Option) *Client {
	client := &Client{
		creds:        creds,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		authorizeURL: defaultAuthorizeURL,
		tokenURL:     defaultTokenURL,
		userInfoURL:  defaultUserInfoURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// config builds the oauth2 configuration for this client. Twitch wants the
// client credentials in the POST body, not basic auth, so the auth style is
// pinned rather than left to the library's probing.
func (c *Client) config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.creds.ClientID,
		ClientSecret: c.creds.ClientSecret,
		RedirectURL:  c.creds.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.authorizeURL,
			TokenURL:  c.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// oauthContext pins the oauth2 transport to this client's HTTP client.
func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// AuthorizeURL returns the URL a browser should be redirected to in order to
// authorise the application. It is deterministic for a given configuration.
func (c *Client) AuthorizeURL() string {
	return c.config().AuthCodeURL("")
}

// Exchange trades a single-use authorization code for a token grant.
func (c *Client) Exchange(ctx context.Context, code string) (Grant, error) {
	const op = "twitch.exchange"

	tok, err := c.config().Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return Grant{}, classifyGrantError(op, err)
	}
	return grantFromToken(op, tok)
}

// Refresh obtains a fresh grant from a refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Grant, error) {
	const op = "twitch.refresh"

	source := c.config().TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := source.Token()
	if err != nil {
		return Grant{}, classifyGrantError(op, err)
	}
	return grantFromToken(op, tok)
}

// classifyGrantError maps token-endpoint failures onto the taxonomy: a non-2xx
// provider response is ProviderRejected with its status, a transport failure is
// Unknown, and anything else means the provider answered 2xx with a payload
// the library could not turn into a usable token.
func classifyGrantError(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if resp := retrieveErr.Response; resp != nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
			return faults.Upstream(faults.ProviderRejected, op, resp.StatusCode)
		}
		return faults.New(faults.MalformedGrant, op, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return faults.New(faults.Unknown, op, err)
	}

	return faults.New(faults.MalformedGrant, op, err)
}

// grantFromToken converts the library token into a grant. A grant missing
// either token is unusable even on a 2xx response.
func grantFromToken(op string, tok *oauth2.Token) (Grant, error) {
	if tok.AccessToken == "" || tok.RefreshToken == "" {
		return Grant{}, faults.New(faults.MalformedGrant, op, errors.New("token response missing access or refresh token"))
	}

	grant := Grant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		grant.ExpiresIn = int(time.Until(tok.Expiry).Seconds())
	}
	if scopes, ok := tok.Extra("scope").([]any); ok {
		for _, scope := range scopes {
			if s, ok := scope.(string); ok {
				grant.Scope = append(grant.Scope, s)
			}
		}
	}
	return grant, nil
}

// Profile fetches the profile of the user the access token belongs to. This
// stays a plain request: helix is not an OAuth endpoint and wants the
// application's Client-Id alongside the bearer token.
func (c *Client) Profile(ctx context.Context, accessToken string) (Profile, error) {
	const op = "twitch.profile"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return Profile{}, faults.New(faults.Unknown, op, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Client-Id", c.creds.ClientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Profile{}, faults.New(faults.Unknown, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Profile{}, faults.Upstream(faults.ProviderRejected, op, resp.StatusCode)
	}

	var payload struct {
		Data []Profile `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Profile{}, faults.New(faults.MalformedProfile, op, fmt.Errorf("decode user info: %w", err))
	}
	if len(payload.Data) == 0 {
		return Profile{}, faults.New(faults.MalformedProfile, op, errors.New("user info response contained no records"))
	}

	return payload.Data[0], nil
}
