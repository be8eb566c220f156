package handlers

import (
	"net/http"
	"strings"

	"github.com/streamloft/gateway/internal/logging"
	"github.com/streamloft/gateway/internal/session"
)

// VideoHandler proxies catalog reads and deletes to the downstream API.
type VideoHandler struct {
	Videos  VideoCatalog
	Cookies session.CookieStore
}

// Handle dispatches GET and DELETE on /api/videos.
func (h VideoHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h VideoHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Videos == nil {
		logging.FromContext(ctx).Error("video catalog unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "catalog unavailable"})
		return
	}

	videos, err := h.Videos.Videos(ctx, r.URL.Query().Get("channel"))
	if err != nil {
		respondFault(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": videos})
}

func (h VideoHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil {
		logger.Error("video catalog unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "catalog unavailable"})
		return
	}

	user, ok := session.UserFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "sign in to delete videos"})
		return
	}

	token, ok := h.Cookies.Token(r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "sign in to delete videos"})
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	if raw == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}

	ids := strings.Split(raw, ",")
	if err := h.Videos.DeleteVideos(ctx, token, ids); err != nil {
		respondFault(ctx, w, err)
		return
	}

	logger.Info("videos deleted", "user_id", user.ID, "count", len(ids))
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}
