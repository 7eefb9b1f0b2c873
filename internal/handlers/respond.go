package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/reelmates/backend/internal/apperrors"
	"github.com/reelmates/backend/internal/logging"
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

// respondError is the single translation point from the error taxonomy to
// HTTP statuses. Unclassified errors are logged and returned as generic 500s.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := apperrors.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case apperrors.Validation:
		status = http.StatusBadRequest
	case apperrors.Unauthenticated:
		status = http.StatusUnauthorized
	case apperrors.Forbidden:
		status = http.StatusForbidden
	case apperrors.NotFound:
		status = http.StatusNotFound
	case apperrors.Conflict:
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logging.FromContext(ctx).Error("unclassified failure", "error", err)
	}

	body := map[string]string{"error": apperrors.MessageOf(err)}
	if code := apperrors.CodeOf(err); code != "" {
		body["code"] = code
	}

	respondJSON(ctx, w, status, body)
}
