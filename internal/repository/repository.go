package repository

import (
	"context"
	"time"

	"rentspace-backend/internal/domain"
)

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id int32) (*domain.Product, error)
}

type BookingRepository interface {
	// CreateWithReservation inserts the booking and reserves one stock unit
	// per requested day in a single transaction. If any day has no free
	// unit the whole transaction rolls back and a conflict is returned.
	CreateWithReservation(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int32) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
	// CancelAndRelease marks the booking cancelled and releases its day
	// reservations in a single transaction.
	CancelAndRelease(ctx context.Context, booking *domain.Booking) error
	// CompleteAndRelease marks an ongoing booking completed and releases
	// its day reservations in a single transaction. Completed bookings no
	// longer consume inventory.
	CompleteAndRelease(ctx context.Context, booking *domain.Booking) error
	// CountBookedUnits returns the per-day demand of bookings that still
	// consume inventory, restricted to the given days.
	CountBookedUnits(ctx context.Context, productID int32, days []string) (map[string]int32, error)
	ListByRenter(ctx context.Context, renterID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	ListByOwner(ctx context.Context, ownerID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error)

	// Return photos
	CreatePhoto(ctx context.Context, photo *domain.ReturnPhoto) error
	GetPhoto(ctx context.Context, photoID int32) (*domain.ReturnPhoto, error)
	ListPhotos(ctx context.Context, bookingID int32) ([]domain.ReturnPhoto, error)
	// UpdatePhotoStatus transitions a photo only if it is still in the
	// expected status; returns false when another review got there first.
	UpdatePhotoStatus(ctx context.Context, photoID int32, expected, next domain.ReturnPhotoStatus, rejectionReason, objectKey string) (bool, error)
	SetPhotosVerified(ctx context.Context, bookingID int32, verified bool) error
}

type SettlementRepository interface {
	Create(ctx context.Context, settlement *domain.Settlement) error
	GetByID(ctx context.Context, id int32) (*domain.Settlement, error)
	GetByBookingID(ctx context.Context, bookingID int32) (*domain.Settlement, error)
	GetByPaymentIntentRef(ctx context.Context, ref string) (*domain.Settlement, error)
	// Update writes the money and payment fields. Payout progress moves
	// only through CASPayoutStatus, SchedulePayout, UnschedulePayout,
	// MarkPaidOut and MarkPayoutFailed so a stale struct can never
	// overwrite a concurrent payout transition.
	Update(ctx context.Context, settlement *domain.Settlement) error
	// CASPayoutStatus transitions payout status only from the expected
	// pre-state; returns false if another path won the race.
	CASPayoutStatus(ctx context.Context, id int32, expected, next domain.PayoutStatus) (bool, error)
	SchedulePayout(ctx context.Context, id int32, payoutDate time.Time) error
	// UnschedulePayout takes a scheduled settlement back off the payout
	// queue; returns false if the batch already claimed it.
	UnschedulePayout(ctx context.Context, id int32) (bool, error)
	ListDueScheduled(ctx context.Context, now time.Time) ([]domain.Settlement, error)
	MarkPaidOut(ctx context.Context, ids []int32, transferRef string, paidOn time.Time) error
	MarkPayoutFailed(ctx context.Context, ids []int32, payoutErr string) error
}

type CommissionPolicyRepository interface {
	// GetCurrent returns the newest policy version.
	GetCurrent(ctx context.Context) (*domain.CommissionPolicy, error)
	Create(ctx context.Context, policy *domain.CommissionPolicy) error
}

type PayoutAccountRepository interface {
	GetByOwner(ctx context.Context, ownerID int32) (*domain.PayoutAccount, error)
	Upsert(ctx context.Context, account *domain.PayoutAccount) error
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int32) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.User, error)
}
