package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/streamloft/gateway/internal/faults"
	"github.com/streamloft/gateway/internal/models"
)

// WhoAmI exchanges a session token for the identity it belongs to. Every
// failure is classified as either InvalidToken (the API rejected the
// credential) or Unknown (ambiguous transport failure); the session resolver
// clears the cookie in both cases, but the distinction is made deliberately
// here rather than left to a generic error path.
func (c *Client) WhoAmI(ctx context.Context, token string) (models.User, error) {
	const op = "api.whoami"

	req, err := c.newRequest(ctx, http.MethodGet, "/user/me", token, nil)
	if err != nil {
		return models.User{}, faults.New(faults.Unknown, op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.User{}, faults.New(faults.Unknown, op, err)
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		return models.User{}, faults.Upstream(faults.InvalidToken, op, resp.StatusCode)
	}

	var user models.User
	if err := decode(resp, &user); err != nil {
		return models.User{}, faults.New(faults.Unknown, op, err)
	}
	user.Role = models.ParseRole(string(user.Role))
	return user, nil
}

// UserByEmail looks up an account by email address. A 404 is a legitimate
// "no such user" result and is reported as NotFound, never InvalidToken.
func (c *Client) UserByEmail(ctx context.Context, email, token string) (models.User, error) {
	const op = "api.user_by_email"

	req, err := c.newRequest(ctx, http.MethodGet, "/user?email="+url.QueryEscape(email), token, nil)
	if err != nil {
		return models.User{}, faults.New(faults.Unknown, op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.User{}, faults.New(faults.Unknown, op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return models.User{}, faults.Upstream(faults.NotFound, op, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return models.User{}, faults.Upstream(faults.InvalidToken, op, resp.StatusCode)
	case !ok(resp.StatusCode):
		return models.User{}, faults.Upstream(faults.Unknown, op, resp.StatusCode)
	}

	var user models.User
	if err := decode(resp, &user); err != nil {
		return models.User{}, faults.New(faults.Unknown, op, err)
	}
	user.Role = models.ParseRole(string(user.Role))
	return user, nil
}
