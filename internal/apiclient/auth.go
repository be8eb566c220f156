package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/streamloft/gateway/internal/faults"
	"github.com/streamloft/gateway/internal/models"
	"github.com/streamloft/gateway/internal/twitch"
)

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login forwards credentials to the API and returns the issued session token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	const op = "api.login"

	if username == "" || password == "" {
		return "", faults.New(faults.InvalidRequest, op, errors.New("username and password are required"))
	}

	body := map[string]string{"username": username, "password": password}
	return c.mintToken(ctx, op, "/auth/login", body)
}

// Register creates a new account and returns the issued session token.
func (c *Client) Register(ctx context.Context, reg models.Registration) (string, error) {
	const op = "api.register"

	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		return "", faults.New(faults.InvalidRequest, op, errors.New("username, email, and password are required"))
	}
	if reg.Password != reg.PasswordConfirmation {
		return "", faults.New(faults.InvalidRequest, op, errors.New("passwords do not match"))
	}

	return c.mintToken(ctx, op, "/auth/register", reg)
}

// Provision reconciles a Twitch profile with a local account. The API owns
// the find-or-create step, so two concurrent callbacks presenting the same
// email converge on a single account upstream.
func (c *Client) Provision(ctx context.Context, profile twitch.Profile, grant twitch.Grant) (models.User, string, error) {
	const op = "api.twitch_login"

	body := map[string]any{
		"provider_user_id": profile.ID,
		"login":            profile.Login,
		"email":            profile.Email,
		"access_token":     grant.AccessToken,
		"refresh_token":    grant.RefreshToken,
		"expires_in":       grant.ExpiresIn,
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/twitch", "", body)
	if err != nil {
		return models.User{}, "", faults.New(faults.Unknown, op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.User{}, "", faults.New(faults.Unknown, op, err)
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		return models.User{}, "", faults.Upstream(faults.Unknown, op, resp.StatusCode)
	}

	var payload authResponse
	if err := decode(resp, &payload); err != nil {
		return models.User{}, "", faults.New(faults.Unknown, op, err)
	}
	if payload.Token == "" {
		return models.User{}, "", faults.New(faults.Unknown, op, errors.New("auth response missing token"))
	}
	payload.User.Role = models.ParseRole(string(payload.User.Role))
	return payload.User, payload.Token, nil
}

func (c *Client) mintToken(ctx context.Context, op, path string, body any) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, "", body)
	if err != nil {
		return "", faults.New(faults.Unknown, op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", faults.New(faults.Unknown, op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
		return "", faults.Upstream(faults.InvalidToken, op, resp.StatusCode)
	case !ok(resp.StatusCode):
		return "", faults.Upstream(faults.Unknown, op, resp.StatusCode)
	}

	var payload authResponse
	if err := decode(resp, &payload); err != nil {
		return "", faults.New(faults.Unknown, op, err)
	}
	if payload.Token == "" {
		return "", faults.New(faults.Unknown, op, errors.New("auth response missing token"))
	}
	return payload.Token, nil
}
