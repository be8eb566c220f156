package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/streamloft/gateway/internal/faults"
	"github.com/streamloft/gateway/internal/models"
)

// Videos lists the catalog, optionally filtered to a single channel.
func (c *Client) Videos(ctx context.Context, channel string) ([]models.Video, error) {
	const op = "api.videos"

	params := url.Values{}
	if channel != "" {
		params.Set("username", channel)
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/video?"+params.Encode(), "", nil)
	if err != nil {
		return nil, faults.New(faults.Unknown, op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, faults.New(faults.Unknown, op, err)
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		return nil, faults.Upstream(faults.Unknown, op, resp.StatusCode)
	}

	var payload struct {
		Videos []models.Video `json:"videos"`
	}
	if err := decode(resp, &payload); err != nil {
		return nil, faults.New(faults.Unknown, op, err)
	}
	return payload.Videos, nil
}

// DeleteVideos removes the identified videos on behalf of the token's owner.
func (c *Client) DeleteVideos(ctx context.Context, token string, ids []string) error {
	const op = "api.delete_videos"

	if len(ids) == 0 {
		return nil
	}

	req, err := c.newRequest(ctx, http.MethodDelete, "/video?id="+url.QueryEscape(strings.Join(ids, ",")), token, nil)
	if err != nil {
		return faults.New(faults.Unknown, op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return faults.New(faults.Unknown, op, err)
	}
	defer resp.Body.Close()

	switch {
	case ok(resp.StatusCode):
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return faults.Upstream(faults.InvalidToken, op, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return faults.Upstream(faults.NotFound, op, resp.StatusCode)
	default:
		return faults.Upstream(faults.Unknown, op, resp.StatusCode)
	}
}
