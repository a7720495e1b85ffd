package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"rentspace-backend/internal/apperr"
	"rentspace-backend/internal/service"
)

type AvailabilityHandler struct {
	availabilitySvc service.AvailabilityService
}

func NewAvailabilityHandler(availabilitySvc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilitySvc: availabilitySvc}
}

// CheckAvailability handles GET /products/{id}/availability?days=2026-09-01,2026-09-02
func (h *AvailabilityHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	raw := r.URL.Query().Get("days")
	if raw == "" {
		respondError(w, apperr.Validation("query parameter days is required"))
		return
	}
	days := strings.Split(raw, ",")

	result, err := h.availabilitySvc.CheckAvailability(r.Context(), productID, days)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// pathID parses a numeric path variable.
func pathID(r *http.Request, name string) (int32, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s: %q", name, raw)
	}
	return int32(id), nil
}
