package api

import (
	"net/http"
	"strconv"

	"rentspace-backend/internal/apperr"
	"rentspace-backend/internal/domain"
	"rentspace-backend/internal/service"
)

type BookingHandler struct {
	bookingSvc service.BookingService
}

func NewBookingHandler(bookingSvc service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

type createBookingRequest struct {
	ProductID    int32    `json:"product_id"`
	Days         []string `json:"days"`
	DeliveryInfo string   `json:"delivery_info"`
}

// CreateBooking handles POST /bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	claims, _ := actorFromContext(r.Context())

	var req createBookingRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	booking, err := h.bookingSvc.CreateBooking(r.Context(), claims.UserID, req.ProductID, req.Days, req.DeliveryInfo)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, booking)
}

// GetBooking handles GET /bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	claims, _ := actorFromContext(r.Context())

	bookingID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	booking, err := h.bookingSvc.GetBooking(r.Context(), claims.UserID, bookingID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

type bookingListResponse struct {
	Bookings []domain.Booking `json:"bookings"`
	Total    int32            `json:"total"`
	Page     int32            `json:"page"`
	PageSize int32            `json:"page_size"`
}

// ListRentals handles GET /bookings/rentals for the acting renter.
func (h *BookingHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
	claims, _ := actorFromContext(r.Context())
	status, page, pageSize := listParams(r)

	bookings, total, err := h.bookingSvc.ListRentals(r.Context(), claims.UserID, status, page, pageSize)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, bookingListResponse{Bookings: bookings, Total: total, Page: page, PageSize: pageSize})
}

// ListLendings handles GET /bookings/lendings for the acting owner.
func (h *BookingHandler) ListLendings(w http.ResponseWriter, r *http.Request) {
	claims, _ := actorFromContext(r.Context())
	status, page, pageSize := listParams(r)

	bookings, total, err := h.bookingSvc.ListLendings(r.Context(), claims.UserID, status, page, pageSize)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, bookingListResponse{Bookings: bookings, Total: total, Page: page, PageSize: pageSize})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /bookings/{id}/status
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, _ := actorFromContext(r.Context())

	bookingID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req updateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	booking, err := h.bookingSvc.UpdateStatus(r.Context(), claims.UserID, bookingID, domain.BookingStatus(req.Status))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

type cancelBookingResponse struct {
	Booking                 *domain.Booking `json:"booking"`
	CancellationChargeCents int64           `json:"cancellation_charge_cents"`
	RefundAmountCents       int64           `json:"refund_amount_cents"`
}

// CancelBooking handles POST /bookings/{id}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	claims, _ := actorFromContext(r.Context())

	bookingID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req cancelBookingRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	booking, charge, refund, err := h.bookingSvc.CancelBooking(r.Context(), claims.UserID, bookingID, req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cancelBookingResponse{
		Booking:                 booking,
		CancellationChargeCents: charge,
		RefundAmountCents:       refund,
	})
}

type uploadPhotoRequest struct {
	ObjectKey string `json:"object_key"`
}

// UploadReturnPhoto handles POST /bookings/{id}/photos
func (h *BookingHandler) UploadReturnPhoto(w http.ResponseWriter, r *http.Request) {
	claims, _ := actorFromContext(r.Context())

	bookingID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req uploadPhotoRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	photo, err := h.bookingSvc.UploadReturnPhoto(r.Context(), claims.UserID, bookingID, req.ObjectKey)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, photo)
}

type reviewPhotoRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// ReviewReturnPhoto handles POST /bookings/{id}/photos/{photoID}/review
func (h *BookingHandler) ReviewReturnPhoto(w http.ResponseWriter, r *http.Request) {
	claims, _ := actorFromContext(r.Context())

	bookingID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	photoID, err := pathID(r, "photoID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req reviewPhotoRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if !req.Approve && req.Reason == "" {
		respondError(w, apperr.Validation("a rejection requires a reason"))
		return
	}

	booking, err := h.bookingSvc.ReviewReturnPhoto(r.Context(), claims.UserID, bookingID, photoID, req.Approve, req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

// ReuploadReturnPhoto handles POST /bookings/{id}/photos/{photoID}/reupload
func (h *BookingHandler) ReuploadReturnPhoto(w http.ResponseWriter, r *http.Request) {
	claims, _ := actorFromContext(r.Context())

	bookingID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	photoID, err := pathID(r, "photoID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req uploadPhotoRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	photo, err := h.bookingSvc.ReuploadReturnPhoto(r.Context(), claims.UserID, bookingID, photoID, req.ObjectKey)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, photo)
}

func listParams(r *http.Request) (status string, page, pageSize int32) {
	q := r.URL.Query()
	status = q.Get("status")

	page = 1
	if v, err := strconv.ParseInt(q.Get("page"), 10, 32); err == nil && v > 0 {
		page = int32(v)
	}
	pageSize = 20
	if v, err := strconv.ParseInt(q.Get("page_size"), 10, 32); err == nil && v > 0 && v <= 100 {
		pageSize = int32(v)
	}
	return status, page, pageSize
}
