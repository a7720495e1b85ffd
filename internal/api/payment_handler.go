package api

import (
	"net/http"

	"rentspace-backend/internal/apperr"
	"rentspace-backend/internal/domain"
	"rentspace-backend/internal/service"
)

type PaymentHandler struct {
	paymentSvc service.PaymentService
}

func NewPaymentHandler(paymentSvc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

type createPaymentResponse struct {
	Settlement  *domain.Settlement `json:"settlement"`
	ClientToken string             `json:"client_token"`
}

// CreatePayment handles POST /bookings/{id}/payment
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	claims, _ := actorFromContext(r.Context())

	bookingID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	settlement, clientToken, err := h.paymentSvc.CreatePayment(r.Context(), claims.UserID, bookingID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, createPaymentResponse{Settlement: settlement, ClientToken: clientToken})
}

type confirmPaymentRequest struct {
	PaymentIntentRef string `json:"payment_intent_ref"`
}

// ConfirmPayment handles POST /payments/confirm
func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.PaymentIntentRef == "" {
		respondError(w, apperr.Validation("payment_intent_ref is required"))
		return
	}

	settlement, err := h.paymentSvc.ConfirmPayment(r.Context(), req.PaymentIntentRef)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settlement)
}
