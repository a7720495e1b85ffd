package api

import (
	"net/http"
	"time"

	"rentspace-backend/internal/domain"
	"rentspace-backend/internal/service"
)

// AdminHandler serves the operator surface: commission policy edits, manual
// payout runs, and failed-payout requeues.
type AdminHandler struct {
	commissionSvc service.CommissionService
	payoutSvc     service.PayoutService
}

func NewAdminHandler(commissionSvc service.CommissionService, payoutSvc service.PayoutService) *AdminHandler {
	return &AdminHandler{commissionSvc: commissionSvc, payoutSvc: payoutSvc}
}

// GetCommissionPolicy handles GET /admin/commission-policy
func (h *AdminHandler) GetCommissionPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.commissionSvc.GetPolicy(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, policy)
}

type updatePolicyRequest struct {
	Type             string  `json:"type"`
	FixedAmountCents int64   `json:"fixed_amount_cents"`
	Percentage       float64 `json:"percentage"`
}

// UpdateCommissionPolicy handles PUT /admin/commission-policy
func (h *AdminHandler) UpdateCommissionPolicy(w http.ResponseWriter, r *http.Request) {
	claims, _ := actorFromContext(r.Context())

	var req updatePolicyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	policy, err := h.commissionSvc.UpdatePolicy(r.Context(), claims.UserID, &domain.CommissionPolicy{
		Type:             domain.CommissionType(req.Type),
		FixedAmountCents: req.FixedAmountCents,
		Percentage:       req.Percentage,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, policy)
}

// RunPayoutBatch handles POST /admin/payouts/run
func (h *AdminHandler) RunPayoutBatch(w http.ResponseWriter, r *http.Request) {
	report, err := h.payoutSvc.RunBatch(r.Context(), time.Now())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// PayoutSettlement handles POST /admin/settlements/{id}/payout
func (h *AdminHandler) PayoutSettlement(w http.ResponseWriter, r *http.Request) {
	settlementID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	detail, err := h.payoutSvc.PayoutSettlement(r.Context(), settlementID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// RequeueSettlement handles POST /admin/settlements/{id}/requeue
func (h *AdminHandler) RequeueSettlement(w http.ResponseWriter, r *http.Request) {
	settlementID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	settlement, err := h.payoutSvc.RequeueSettlement(r.Context(), settlementID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settlement)
}
