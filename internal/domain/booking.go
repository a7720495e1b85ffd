package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusOngoing   BookingStatus = "ONGOING"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

type BookingPaymentState string

const (
	BookingUnpaid   BookingPaymentState = "UNPAID"
	BookingPaid     BookingPaymentState = "PAID"
	BookingRefunded BookingPaymentState = "REFUNDED"
)

type ReturnPhotoStatus string

const (
	ReturnPhotoPending  ReturnPhotoStatus = "PENDING"
	ReturnPhotoApproved ReturnPhotoStatus = "APPROVED"
	ReturnPhotoRejected ReturnPhotoStatus = "REJECTED"
)

type ReturnPhoto struct {
	ID        int32             `json:"id"`
	BookingID int32             `json:"booking_id"`
	ObjectKey string            `json:"object_key"`
	Status    ReturnPhotoStatus `json:"status"`
	// RejectionReason is set while Status is REJECTED and cleared on
	// approval or re-upload.
	RejectionReason string    `json:"rejection_reason,omitempty"`
	CreatedOn       time.Time `json:"created_on"`
	UpdatedOn       time.Time `json:"updated_on"`
}

type Booking struct {
	ID        int32 `json:"id"`
	ProductID int32 `json:"product_id"`
	RenterID  int32 `json:"renter_id"`
	OwnerID   int32 `json:"owner_id"`
	// Days holds the distinct requested calendar days as sorted
	// yyyy-mm-dd keys. A booking consumes one stock unit on each day.
	Days                    []string            `json:"days"`
	Status                  BookingStatus       `json:"status"`
	PaymentState            BookingPaymentState `json:"payment_state"`
	TotalAmountCents        int64               `json:"total_amount_cents"`
	DeliveryInfo            string              `json:"delivery_info,omitempty"`
	AllReturnPhotosVerified bool                `json:"all_return_photos_verified"`
	CancellationReason      string              `json:"cancellation_reason,omitempty"`
	CancellationInitiatedBy *int32              `json:"cancellation_initiated_by,omitempty"`
	SettlementID            *int32              `json:"settlement_id,omitempty"`
	CreatedOn               time.Time           `json:"created_on"`
	UpdatedOn               time.Time           `json:"updated_on"`
}

// bookingTransitions is the allowed successor set for each status.
// COMPLETED and CANCELLED are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusOngoing, BookingStatusCancelled},
	BookingStatusOngoing:   {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted: {},
	BookingStatusCancelled: {},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the lifecycle.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// ConsumesInventory reports whether a booking in this status still holds
// stock units against its requested days.
func (s BookingStatus) ConsumesInventory() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed || s == BookingStatusOngoing
}

// IsValidBookingStatus reports whether the string names a known status.
func IsValidBookingStatus(s BookingStatus) bool {
	_, ok := bookingTransitions[s]
	return ok
}

// AllPhotosVerified computes the all-or-nothing verification outcome:
// true iff the photo set is non-empty and every photo is APPROVED.
func AllPhotosVerified(photos []ReturnPhoto) bool {
	if len(photos) == 0 {
		return false
	}
	for _, p := range photos {
		if p.Status != ReturnPhotoApproved {
			return false
		}
	}
	return true
}

// EarliestDay returns the first requested day key, or "" for an empty set.
func (b *Booking) EarliestDay() string {
	if len(b.Days) == 0 {
		return ""
	}
	earliest := b.Days[0]
	for _, d := range b.Days[1:] {
		if d < earliest {
			earliest = d
		}
	}
	return earliest
}
