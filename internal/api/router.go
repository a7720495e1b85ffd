package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"rentspace-backend/internal/security"
)

// NewRouter assembles the HTTP API. All routes under /api/v1 require a valid
// bearer token; the /admin subtree additionally requires the admin role.
func NewRouter(
	tokens security.TokenManager,
	availabilityHandler *AvailabilityHandler,
	bookingHandler *BookingHandler,
	paymentHandler *PaymentHandler,
	adminHandler *AdminHandler,
) http.Handler {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(authMiddleware(tokens))

	v1.HandleFunc("/products/{id:[0-9]+}/availability", availabilityHandler.CheckAvailability).Methods(http.MethodGet)

	v1.HandleFunc("/bookings", bookingHandler.CreateBooking).Methods(http.MethodPost)
	v1.HandleFunc("/bookings/rentals", bookingHandler.ListRentals).Methods(http.MethodGet)
	v1.HandleFunc("/bookings/lendings", bookingHandler.ListLendings).Methods(http.MethodGet)
	v1.HandleFunc("/bookings/{id:[0-9]+}", bookingHandler.GetBooking).Methods(http.MethodGet)
	v1.HandleFunc("/bookings/{id:[0-9]+}/status", bookingHandler.UpdateStatus).Methods(http.MethodPatch)
	v1.HandleFunc("/bookings/{id:[0-9]+}/cancel", bookingHandler.CancelBooking).Methods(http.MethodPost)

	v1.HandleFunc("/bookings/{id:[0-9]+}/photos", bookingHandler.UploadReturnPhoto).Methods(http.MethodPost)
	v1.HandleFunc("/bookings/{id:[0-9]+}/photos/{photoID:[0-9]+}/review", bookingHandler.ReviewReturnPhoto).Methods(http.MethodPost)
	v1.HandleFunc("/bookings/{id:[0-9]+}/photos/{photoID:[0-9]+}/reupload", bookingHandler.ReuploadReturnPhoto).Methods(http.MethodPost)

	v1.HandleFunc("/bookings/{id:[0-9]+}/payment", paymentHandler.CreatePayment).Methods(http.MethodPost)
	v1.HandleFunc("/payments/confirm", paymentHandler.ConfirmPayment).Methods(http.MethodPost)

	admin := v1.PathPrefix("/admin").Subrouter()
	admin.Use(adminOnly)
	admin.HandleFunc("/commission-policy", adminHandler.GetCommissionPolicy).Methods(http.MethodGet)
	admin.HandleFunc("/commission-policy", adminHandler.UpdateCommissionPolicy).Methods(http.MethodPut)
	admin.HandleFunc("/payouts/run", adminHandler.RunPayoutBatch).Methods(http.MethodPost)
	admin.HandleFunc("/settlements/{id:[0-9]+}/payout", adminHandler.PayoutSettlement).Methods(http.MethodPost)
	admin.HandleFunc("/settlements/{id:[0-9]+}/requeue", adminHandler.RequeueSettlement).Methods(http.MethodPost)

	return r
}
