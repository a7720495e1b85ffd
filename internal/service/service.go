package service

import (
	"context"
	"time"

	"rentspace-backend/internal/domain"
)

type AvailabilityService interface {
	CheckAvailability(ctx context.Context, productID int32, days []string) (*domain.AvailabilityResult, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, renterID, productID int32, days []string, deliveryInfo string) (*domain.Booking, error)
	GetBooking(ctx context.Context, actorID, bookingID int32) (*domain.Booking, error)
	ListRentals(ctx context.Context, renterID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	ListLendings(ctx context.Context, ownerID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	// UpdateStatus performs an owner-initiated forward transition
	// (confirm, start, complete). Cancellation goes through CancelBooking.
	UpdateStatus(ctx context.Context, actorID, bookingID int32, next domain.BookingStatus) (*domain.Booking, error)
	// CancelBooking cancels on behalf of the renter or the owner and
	// returns the cancellation charge and refund amounts in cents.
	CancelBooking(ctx context.Context, actorID, bookingID int32, reason string) (*domain.Booking, int64, int64, error)

	UploadReturnPhoto(ctx context.Context, renterID, bookingID int32, objectKey string) (*domain.ReturnPhoto, error)
	ReviewReturnPhoto(ctx context.Context, ownerID, bookingID, photoID int32, approve bool, reason string) (*domain.Booking, error)
	ReuploadReturnPhoto(ctx context.Context, renterID, bookingID, photoID int32, objectKey string) (*domain.ReturnPhoto, error)
}

type PaymentService interface {
	// CreatePayment opens a payment intent for a booking and returns the
	// settlement plus the client token used to complete the charge.
	CreatePayment(ctx context.Context, renterID, bookingID int32) (*domain.Settlement, string, error)
	// ConfirmPayment captures the intent and snapshots the commission
	// policy onto the settlement. Confirming twice is a no-op.
	ConfirmPayment(ctx context.Context, paymentRef string) (*domain.Settlement, error)
}

type PayoutService interface {
	// RunBatch disburses every due scheduled settlement, grouped per
	// owner, with per-owner fault isolation.
	RunBatch(ctx context.Context, now time.Time) (*domain.PayoutBatchReport, error)
	// PayoutSettlement disburses a single settlement with the same
	// compare-and-set guard as the batch.
	PayoutSettlement(ctx context.Context, settlementID int32) (*domain.PayoutDetail, error)
	// RequeueSettlement moves a failed settlement back to scheduled so the
	// next batch picks it up again.
	RequeueSettlement(ctx context.Context, settlementID int32) (*domain.Settlement, error)
}

type CommissionService interface {
	GetPolicy(ctx context.Context) (*domain.CommissionPolicy, error)
	UpdatePolicy(ctx context.Context, adminID int32, policy *domain.CommissionPolicy) (*domain.CommissionPolicy, error)
}

// NotifyService delivers best-effort notifications. Failures are logged and
// never propagated into core state changes.
type NotifyService interface {
	Notify(ctx context.Context, recipientID int32, title, body string, attrs map[string]string)
}
