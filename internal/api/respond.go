package api

import (
	"encoding/json"
	"net/http"

	"rentspace-backend/internal/apperr"
	"rentspace-backend/internal/logger"
)

type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// respondError maps the application error taxonomy onto HTTP statuses.
// Unclassified errors are reported as internal without leaking details.
func respondError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindAuthorization:
		status = http.StatusForbidden
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindState:
		status = http.StatusUnprocessableEntity
	case apperr.KindGateway:
		status = http.StatusBadGateway
	}

	body := errorBody{Kind: string(kind)}
	if kind == apperr.KindInternal {
		logger.Error("Request failed", "error", err)
		body.Error = "internal error"
	} else {
		body.Error = err.Error()
		body.Retryable = apperr.Is(err, apperr.KindGateway)
	}
	respondJSON(w, status, body)
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}
