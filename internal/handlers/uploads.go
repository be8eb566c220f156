package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/streamloft/gateway/internal/logging"
	"github.com/streamloft/gateway/internal/models"
	"github.com/streamloft/gateway/internal/session"
)

// UploadHandler exposes the two halves of the multipart upload lifecycle.
// Part bytes never pass through these endpoints; the browser uploads them
// straight to the presigned URLs and reports the etags back on completion.
type UploadHandler struct {
	Uploads UploadCoordinator
	Cookies session.CookieStore
}

// Start handles POST /api/uploads.
func (h UploadHandler) Start(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Uploads == nil {
		logger.Error("upload coordinator unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "uploads unavailable"})
		return
	}

	token, user, ok := h.authenticated(w, r)
	if !ok {
		return
	}

	var req startUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid upload init payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ctx, span := logging.StartSpan(ctx, "upload.start")
	defer span.End()

	// Each call yields a fresh upload id; the upstream does not
	// deduplicate repeated initialisations.
	uploadSession, err := h.Uploads.Start(ctx, token, models.StartUpload{
		Title:    req.Title,
		FileName: req.FileName,
		FileType: req.FileType,
		Parts:    req.Parts,
	})
	if err != nil {
		respondFault(ctx, w, err)
		return
	}

	logger.Info("upload initialised",
		"user_id", user.ID,
		"video_id", uploadSession.VideoID,
		"parts", len(uploadSession.PartURLs),
	)
	respondJSON(ctx, w, http.StatusOK, uploadSession)
}

// Complete handles POST /api/uploads/complete.
func (h UploadHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Uploads == nil {
		logger.Error("upload coordinator unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "uploads unavailable"})
		return
	}

	token, user, ok := h.authenticated(w, r)
	if !ok {
		return
	}

	var req models.CompleteUpload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid upload completion payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ctx, span := logging.StartSpan(ctx, "upload.complete")
	defer span.End()

	if err := h.Uploads.Complete(ctx, token, req); err != nil {
		// Surfaced, not retried: the caller decides whether to resume
		// the failed parts or abort.
		respondFault(ctx, w, err)
		return
	}

	logger.Info("upload completed", "user_id", user.ID, "video_id", req.VideoID)
	respondJSON(ctx, w, http.StatusAccepted, map[string]string{"status": "complete"})
}

// authenticated requires a resolved identity and returns the raw session
// token for forwarding upstream.
func (h UploadHandler) authenticated(w http.ResponseWriter, r *http.Request) (string, models.User, bool) {
	ctx := r.Context()

	user, ok := session.UserFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "sign in to upload"})
		return "", models.User{}, false
	}

	token, ok := h.Cookies.Token(r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "sign in to upload"})
		return "", models.User{}, false
	}

	return token, user, true
}

type startUploadRequest struct {
	Title    string `json:"title"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	Parts    int32  `json:"parts"`
}
