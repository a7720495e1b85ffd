package service

import (
	"context"
	"fmt"
	"time"

	"rentspace-backend/internal/apperr"
	"rentspace-backend/internal/domain"
	"rentspace-backend/internal/gateway"
	"rentspace-backend/internal/repository"
	"rentspace-backend/internal/utils"
)

type bookingService struct {
	bookingRepo    repository.BookingRepository
	productRepo    repository.ProductRepository
	settlementRepo repository.SettlementRepository
	gw             gateway.PaymentGateway
	notifySvc      NotifyService
	payoutHold     time.Duration
	now            func() time.Time
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	productRepo repository.ProductRepository,
	settlementRepo repository.SettlementRepository,
	gw gateway.PaymentGateway,
	notifySvc NotifyService,
	payoutHoldDays int,
) BookingService {
	return &bookingService{
		bookingRepo:    bookingRepo,
		productRepo:    productRepo,
		settlementRepo: settlementRepo,
		gw:             gw,
		notifySvc:      notifySvc,
		payoutHold:     time.Duration(payoutHoldDays) * 24 * time.Hour,
		now:            time.Now,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, renterID, productID int32, dayStrs []string, deliveryInfo string) (*domain.Booking, error) {
	days, err := utils.NormalizeDays(dayStrs)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	if len(days) == 0 {
		return nil, apperr.Validation("at least one day is required")
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.OwnerID == renterID {
		return nil, apperr.Validation("owners cannot book their own product")
	}
	if product.TotalStockUnits == 0 {
		return nil, apperr.Conflict("product %d has no stock units", productID)
	}
	for _, day := range days {
		if !product.AllowsDay(day) {
			return nil, apperr.Conflict("product %d is not bookable on %s", productID, day)
		}
	}

	booking := &domain.Booking{
		ProductID:        productID,
		RenterID:         renterID,
		OwnerID:          product.OwnerID,
		Days:             days,
		Status:           domain.BookingStatusPending,
		PaymentState:     domain.BookingUnpaid,
		TotalAmountCents: product.DailyPriceCents * int64(len(days)),
		DeliveryInfo:     deliveryInfo,
	}

	// The conditional day reservation inside this call is the oversell
	// guard; a concurrent creation for the last unit loses here.
	if err := s.bookingRepo.CreateWithReservation(ctx, booking); err != nil {
		return nil, err
	}

	s.notifySvc.Notify(ctx, booking.OwnerID, "New booking request",
		fmt.Sprintf("Your product %q was booked for %d day(s).", product.Name, len(days)),
		map[string]string{"type": "BOOKING_CREATED", "booking_id": fmt.Sprintf("%d", booking.ID)})

	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, actorID, bookingID int32) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.RenterID != actorID && booking.OwnerID != actorID {
		return nil, apperr.Authorization("user %d has no access to booking %d", actorID, bookingID)
	}
	return booking, nil
}

func (s *bookingService) ListRentals(ctx context.Context, renterID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return s.bookingRepo.ListByRenter(ctx, renterID, status, page, pageSize)
}

func (s *bookingService) ListLendings(ctx context.Context, ownerID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return s.bookingRepo.ListByOwner(ctx, ownerID, status, page, pageSize)
}

func (s *bookingService) UpdateStatus(ctx context.Context, actorID, bookingID int32, next domain.BookingStatus) (*domain.Booking, error) {
	if !domain.IsValidBookingStatus(next) {
		return nil, apperr.Validation("unknown booking status %q", next)
	}
	if next == domain.BookingStatusCancelled {
		return nil, apperr.Validation("use the cancel operation to cancel a booking")
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.OwnerID != actorID {
		return nil, apperr.Authorization("only the owner can update booking %d", bookingID)
	}
	if !domain.CanTransition(booking.Status, next) {
		return nil, apperr.State("cannot move booking %d from %s to %s", bookingID, booking.Status, next)
	}

	booking.Status = next
	if next == domain.BookingStatusCompleted {
		// Completion releases the day reservations together with the
		// status change, matching the demand count's view of inventory.
		if err := s.bookingRepo.CompleteAndRelease(ctx, booking); err != nil {
			return nil, err
		}
	} else if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	s.notifySvc.Notify(ctx, booking.RenterID, "Booking updated",
		fmt.Sprintf("Booking %d is now %s.", booking.ID, booking.Status),
		map[string]string{"type": "BOOKING_STATUS", "booking_id": fmt.Sprintf("%d", booking.ID)})

	return booking, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, actorID, bookingID int32, reason string) (*domain.Booking, int64, int64, error) {
	if reason == "" {
		return nil, 0, 0, apperr.Validation("cancellation reason is required")
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, 0, 0, err
	}
	if booking.RenterID != actorID && booking.OwnerID != actorID {
		return nil, 0, 0, apperr.Authorization("user %d cannot cancel booking %d", actorID, bookingID)
	}
	if !domain.CanTransition(booking.Status, domain.BookingStatusCancelled) {
		return nil, 0, 0, apperr.State("booking %d is %s and cannot be cancelled", bookingID, booking.Status)
	}

	var chargeCents, refundCents int64
	var settlement *domain.Settlement
	if booking.PaymentState == domain.BookingPaid && booking.SettlementID != nil {
		settlement, err = s.settlementRepo.GetByID(ctx, *booking.SettlementID)
		if err != nil {
			return nil, 0, 0, err
		}
		switch settlement.PayoutStatus {
		case domain.PayoutProcessing:
			return nil, 0, 0, apperr.Conflict("payout for booking %d is in progress", bookingID)
		case domain.PayoutPaid:
			return nil, 0, 0, apperr.State("booking %d was already paid out to the owner", bookingID)
		}

		product, err := s.productRepo.GetByID(ctx, booking.ProductID)
		if err != nil {
			return nil, 0, 0, err
		}

		hours, err := utils.HoursUntil(booking.EarliestDay(), s.now())
		if err != nil {
			return nil, 0, 0, apperr.Internal(err, "booking %d has an invalid start day", bookingID)
		}

		chargeCents = CancellationCharge(product.CancellationTiers, hours, settlement.TotalAmountCents)
		refundCents = settlement.TotalAmountCents - chargeCents
		if refundCents < 0 {
			refundCents = 0
		}

		// Take a scheduled payout off the queue before refunding so the
		// batch cannot transfer money the renter is getting back. Losing
		// this race means the batch holds the settlement; the caller
		// retries after it settles.
		if settlement.PayoutStatus == domain.PayoutScheduled {
			ok, err := s.settlementRepo.UnschedulePayout(ctx, settlement.ID)
			if err != nil {
				return nil, 0, 0, err
			}
			if !ok {
				return nil, 0, 0, apperr.Conflict("payout for booking %d was claimed concurrently", bookingID)
			}
			settlement.PayoutStatus = domain.PayoutPending
		}

		// The refund goes out before any local mutation so a gateway
		// failure leaves the booking and settlement untouched.
		if refundCents > 0 {
			if _, err := s.gw.Refund(ctx, settlement.PaymentIntentRef, refundCents); err != nil {
				return nil, 0, 0, apperr.Gateway(err, "refund for booking %d failed", bookingID)
			}
		}
	}

	booking.CancellationReason = reason
	booking.CancellationInitiatedBy = &actorID
	if refundCents > 0 {
		booking.PaymentState = domain.BookingRefunded
	}
	if err := s.bookingRepo.CancelAndRelease(ctx, booking); err != nil {
		return nil, 0, 0, err
	}

	if settlement != nil {
		settlement.CancellationChargeCents = chargeCents
		settlement.RefundAmountCents = refundCents
		switch {
		case refundCents == settlement.TotalAmountCents:
			settlement.PaymentStatus = domain.PaymentRefunded
		case refundCents > 0:
			settlement.PaymentStatus = domain.PaymentPartiallyRefunded
		}
		if err := s.settlementRepo.Update(ctx, settlement); err != nil {
			return nil, 0, 0, err
		}
	}

	counterparty := booking.OwnerID
	if actorID == booking.OwnerID {
		counterparty = booking.RenterID
	}
	s.notifySvc.Notify(ctx, counterparty, "Booking cancelled",
		fmt.Sprintf("Booking %d was cancelled: %s", booking.ID, reason),
		map[string]string{"type": "BOOKING_CANCELLED", "booking_id": fmt.Sprintf("%d", booking.ID)})

	return booking, chargeCents, refundCents, nil
}

func (s *bookingService) UploadReturnPhoto(ctx context.Context, renterID, bookingID int32, objectKey string) (*domain.ReturnPhoto, error) {
	if objectKey == "" {
		return nil, apperr.Validation("photo object key is required")
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.RenterID != renterID {
		return nil, apperr.Authorization("only the renter can upload return photos for booking %d", bookingID)
	}
	if !returnWorkflowActive(booking.Status) {
		return nil, apperr.State("booking %d is %s; return photos are not accepted", bookingID, booking.Status)
	}

	photo := &domain.ReturnPhoto{
		BookingID: bookingID,
		ObjectKey: objectKey,
		Status:    domain.ReturnPhotoPending,
	}
	if err := s.bookingRepo.CreatePhoto(ctx, photo); err != nil {
		return nil, err
	}

	// A fresh pending photo always breaks the all-approved state.
	if booking.AllReturnPhotosVerified {
		if err := s.bookingRepo.SetPhotosVerified(ctx, bookingID, false); err != nil {
			return nil, err
		}
	}

	s.notifySvc.Notify(ctx, booking.OwnerID, "Return photo uploaded",
		fmt.Sprintf("A return photo for booking %d awaits your review.", bookingID),
		map[string]string{"type": "RETURN_PHOTO_UPLOADED", "booking_id": fmt.Sprintf("%d", bookingID)})

	return photo, nil
}

func (s *bookingService) ReviewReturnPhoto(ctx context.Context, ownerID, bookingID, photoID int32, approve bool, reason string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.OwnerID != ownerID {
		return nil, apperr.Authorization("only the owner can review photos of booking %d", bookingID)
	}

	photo, err := s.bookingRepo.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if photo.BookingID != bookingID {
		return nil, apperr.NotFound("photo %d does not belong to booking %d", photoID, bookingID)
	}
	if photo.Status != domain.ReturnPhotoPending {
		return nil, apperr.State("photo %d is %s, not pending review", photoID, photo.Status)
	}

	next := domain.ReturnPhotoApproved
	rejectionReason := ""
	if !approve {
		if reason == "" {
			return nil, apperr.Validation("a rejection reason is required")
		}
		next = domain.ReturnPhotoRejected
		rejectionReason = reason
	}

	updated, err := s.bookingRepo.UpdatePhotoStatus(ctx, photoID, domain.ReturnPhotoPending, next, rejectionReason, "")
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, apperr.Conflict("photo %d was already reviewed", photoID)
	}

	if err := s.recomputeVerified(ctx, booking); err != nil {
		return nil, err
	}

	title, body := "Return photo approved", fmt.Sprintf("A return photo for booking %d was approved.", bookingID)
	if !approve {
		title, body = "Return photo rejected", fmt.Sprintf("A return photo for booking %d was rejected: %s", bookingID, reason)
	}
	s.notifySvc.Notify(ctx, booking.RenterID, title, body,
		map[string]string{"type": "RETURN_PHOTO_REVIEWED", "booking_id": fmt.Sprintf("%d", bookingID)})

	return booking, nil
}

func (s *bookingService) ReuploadReturnPhoto(ctx context.Context, renterID, bookingID, photoID int32, objectKey string) (*domain.ReturnPhoto, error) {
	if objectKey == "" {
		return nil, apperr.Validation("photo object key is required")
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.RenterID != renterID {
		return nil, apperr.Authorization("only the renter can re-upload photos for booking %d", bookingID)
	}

	photo, err := s.bookingRepo.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if photo.BookingID != bookingID {
		return nil, apperr.NotFound("photo %d does not belong to booking %d", photoID, bookingID)
	}
	if photo.Status != domain.ReturnPhotoRejected {
		return nil, apperr.State("photo %d is %s; only rejected photos can be re-uploaded", photoID, photo.Status)
	}

	updated, err := s.bookingRepo.UpdatePhotoStatus(ctx, photoID, domain.ReturnPhotoRejected, domain.ReturnPhotoPending, "", objectKey)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, apperr.Conflict("photo %d changed while re-uploading", photoID)
	}

	// Verification is all-or-nothing across the current set, so a
	// re-upload always resets it.
	if err := s.bookingRepo.SetPhotosVerified(ctx, bookingID, false); err != nil {
		return nil, err
	}

	photo.Status = domain.ReturnPhotoPending
	photo.RejectionReason = ""
	photo.ObjectKey = objectKey

	s.notifySvc.Notify(ctx, booking.OwnerID, "Return photo re-uploaded",
		fmt.Sprintf("A replacement return photo for booking %d awaits your review.", bookingID),
		map[string]string{"type": "RETURN_PHOTO_REUPLOADED", "booking_id": fmt.Sprintf("%d", bookingID)})

	return photo, nil
}

// recomputeVerified refreshes the all-approved flag and, on the transition to
// verified, makes the settlement payout-eligible.
func (s *bookingService) recomputeVerified(ctx context.Context, booking *domain.Booking) error {
	photos, err := s.bookingRepo.ListPhotos(ctx, booking.ID)
	if err != nil {
		return err
	}
	verified := domain.AllPhotosVerified(photos)
	if err := s.bookingRepo.SetPhotosVerified(ctx, booking.ID, verified); err != nil {
		return err
	}
	booking.AllReturnPhotosVerified = verified

	if verified && booking.SettlementID != nil {
		settlement, err := s.settlementRepo.GetByID(ctx, *booking.SettlementID)
		if err != nil {
			return err
		}
		if settlement.PaymentStatus == domain.PaymentPaid && settlement.PayoutStatus == domain.PayoutPending {
			payoutDate := s.now().Add(s.payoutHold)
			if err := s.settlementRepo.SchedulePayout(ctx, settlement.ID, payoutDate); err != nil {
				return err
			}
		}
	}
	return nil
}

func returnWorkflowActive(status domain.BookingStatus) bool {
	return status == domain.BookingStatusConfirmed ||
		status == domain.BookingStatusOngoing ||
		status == domain.BookingStatusCompleted
}
