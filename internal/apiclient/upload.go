package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/streamloft/gateway/internal/faults"
	"github.com/streamloft/gateway/internal/models"
)

// Start initialises a multipart upload. Input is validated before any network
// call; each successful call yields a fresh upload id, since the upstream
// does not deduplicate repeated initialisations.
func (c *Client) Start(ctx context.Context, token string, req models.StartUpload) (models.UploadSession, error) {
	const op = "api.upload_start"

	if req.FileName == "" || req.FileType == "" || req.Parts < 1 {
		return models.UploadSession{}, faults.New(faults.InvalidRequest, op,
			errors.New("file name, file type, and a part count of at least one are required"))
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/upload/start", token, req)
	if err != nil {
		return models.UploadSession{}, faults.New(faults.Unknown, op, err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return models.UploadSession{}, faults.New(faults.Unknown, op, err)
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		return models.UploadSession{}, faults.Upstream(faults.InitFailed, op, resp.StatusCode)
	}

	var session models.UploadSession
	if err := decode(resp, &session); err != nil {
		return models.UploadSession{}, faults.New(faults.Unknown, op, err)
	}
	return session, nil
}

// Complete asks the API to assemble the finished object from the parts the
// caller uploaded directly to storage. A part mismatch is surfaced as
// IncompleteParts and never retried here: re-submitting a completion after a
// partial success is unsafe without upstream idempotency keys, so the retry
// decision belongs to the caller.
func (c *Client) Complete(ctx context.Context, token string, req models.CompleteUpload) error {
	const op = "api.upload_complete"

	if req.UploadID == "" || req.VideoID == "" || req.Key == "" {
		return faults.New(faults.InvalidRequest, op, errors.New("upload id, video id, and key are required"))
	}
	if len(req.CompletedParts) == 0 {
		return faults.New(faults.InvalidRequest, op, errors.New("at least one completed part is required"))
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/upload/complete", token, req)
	if err != nil {
		return faults.New(faults.Unknown, op, err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return faults.New(faults.Unknown, op, err)
	}
	defer resp.Body.Close()

	switch {
	case ok(resp.StatusCode):
		return decodeDiscard(resp)
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusBadRequest:
		// The API reports issued/completed part mismatches as 4xx.
		return faults.Upstream(faults.IncompleteParts, op, resp.StatusCode)
	default:
		return faults.Upstream(faults.Unknown, op, resp.StatusCode)
	}
}

func decodeDiscard(resp *http.Response) error {
	return decode(resp, nil)
}
