package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/streamloft/gateway/internal/faults"
	"github.com/streamloft/gateway/internal/logging"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondFault maps a classified gateway failure onto an HTTP response,
// carrying enough detail (kind, upstream status) for the caller to decide
// whether to retry the failed phase.
func respondFault(ctx context.Context, w http.ResponseWriter, err error) {
	kind := faults.KindOf(err)

	status := http.StatusBadGateway
	switch kind {
	case faults.InvalidRequest:
		status = http.StatusBadRequest
	case faults.InvalidToken:
		status = http.StatusUnauthorized
	case faults.NotFound:
		status = http.StatusNotFound
	case faults.IncompleteParts:
		status = http.StatusConflict
	case faults.InitFailed, faults.ProviderRejected:
		status = http.StatusBadGateway
	}

	body := map[string]any{"error": kind.String()}
	if upstream := faults.StatusOf(err); upstream != 0 {
		body["upstream_status"] = upstream
	}

	logging.FromContext(ctx).Warn("request failed", "kind", kind.String(), "error", err)
	respondJSON(ctx, w, status, body)
}
