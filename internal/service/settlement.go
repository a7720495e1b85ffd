package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"rentspace-backend/internal/apperr"
	"rentspace-backend/internal/domain"
	"rentspace-backend/internal/gateway"
	"rentspace-backend/internal/repository"
)

type paymentService struct {
	settlementRepo repository.SettlementRepository
	bookingRepo    repository.BookingRepository
	policyRepo     repository.CommissionPolicyRepository
	gw             gateway.PaymentGateway
	notifySvc      NotifyService
	currency       string
}

func NewPaymentService(
	settlementRepo repository.SettlementRepository,
	bookingRepo repository.BookingRepository,
	policyRepo repository.CommissionPolicyRepository,
	gw gateway.PaymentGateway,
	notifySvc NotifyService,
	currency string,
) PaymentService {
	return &paymentService{
		settlementRepo: settlementRepo,
		bookingRepo:    bookingRepo,
		policyRepo:     policyRepo,
		gw:             gw,
		notifySvc:      notifySvc,
		currency:       currency,
	}
}

// CommissionAmount computes the platform's cut of a total under a policy.
// Percentage amounts round half away from zero to whole cents; the owner
// share is always total minus commission, so the split is exact.
func CommissionAmount(policy *domain.CommissionPolicy, totalCents int64) int64 {
	switch policy.Type {
	case domain.CommissionFixed:
		amount := policy.FixedAmountCents
		if amount > totalCents {
			amount = totalCents
		}
		return amount
	case domain.CommissionPercentage:
		return int64(math.Round(float64(totalCents) * policy.Percentage / 100))
	default:
		return 0
	}
}

// CancellationCharge applies the tier table to the signed hours remaining
// before the booking start. Tiers are scanned in descending hours_before_start
// order and the first tier whose threshold is >= hoursDifference wins. With
// the usual lenient-when-far-out tables this picks the largest threshold and
// therefore the smallest charge; that is the deployed behavior and is kept
// as is.
func CancellationCharge(tiers []domain.CancellationTier, hoursDifference float64, totalPaidCents int64) int64 {
	sorted := append([]domain.CancellationTier(nil), tiers...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].HoursBeforeStart > sorted[j].HoursBeforeStart
	})
	for _, tier := range sorted {
		if hoursDifference <= float64(tier.HoursBeforeStart) {
			return int64(math.Round(float64(totalPaidCents) * tier.ChargePercentage / 100))
		}
	}
	return 0
}

func (s *paymentService) CreatePayment(ctx context.Context, renterID, bookingID int32) (*domain.Settlement, string, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if booking.RenterID != renterID {
		return nil, "", apperr.Authorization("only the renter can pay for booking %d", bookingID)
	}
	if booking.Status.IsTerminal() {
		return nil, "", apperr.State("booking %d is %s", bookingID, booking.Status)
	}
	if booking.PaymentState != domain.BookingUnpaid {
		return nil, "", apperr.State("booking %d is already %s", bookingID, booking.PaymentState)
	}

	if existing, err := s.settlementRepo.GetByBookingID(ctx, bookingID); err == nil {
		if existing.PaymentStatus != domain.PaymentFailed {
			return nil, "", apperr.Conflict("payment for booking %d already created", bookingID)
		}
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, "", err
	}

	intent, err := s.gw.CreateIntent(ctx, booking.TotalAmountCents, s.currency, map[string]string{
		"booking_id": fmt.Sprintf("%d", bookingID),
	})
	if err != nil {
		return nil, "", apperr.Gateway(err, "failed to create payment intent for booking %d", bookingID)
	}

	settlement := &domain.Settlement{
		BookingID:        bookingID,
		OwnerID:          booking.OwnerID,
		RenterID:         booking.RenterID,
		TotalAmountCents: booking.TotalAmountCents,
		PaymentStatus:    domain.PaymentPending,
		PayoutStatus:     domain.PayoutPending,
		PaymentIntentRef: intent.Ref,
	}
	if err := s.settlementRepo.Create(ctx, settlement); err != nil {
		return nil, "", err
	}

	booking.SettlementID = &settlement.ID
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, "", err
	}

	return settlement, intent.ClientToken, nil
}

func (s *paymentService) ConfirmPayment(ctx context.Context, paymentRef string) (*domain.Settlement, error) {
	if paymentRef == "" {
		return nil, apperr.Validation("payment reference is required")
	}
	settlement, err := s.settlementRepo.GetByPaymentIntentRef(ctx, paymentRef)
	if err != nil {
		return nil, err
	}
	if settlement.PaymentStatus == domain.PaymentPaid {
		// Confirm retries are harmless.
		return settlement, nil
	}
	if settlement.PaymentStatus != domain.PaymentPending && settlement.PaymentStatus != domain.PaymentFailed {
		return nil, apperr.State("settlement %d is %s", settlement.ID, settlement.PaymentStatus)
	}

	// A stale intent can outlive its booking: the renter cancels an
	// unpaid booking and then confirms. Capturing would strand the money
	// on a terminal booking that can never trigger a refund.
	booking, err := s.bookingRepo.GetByID(ctx, settlement.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.BookingStatusCancelled {
		return nil, apperr.State("booking %d is cancelled; its payment cannot be confirmed", booking.ID)
	}

	// Snapshot the policy in force right now. Later edits never touch this
	// settlement.
	policy, err := s.policyRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.gw.ConfirmIntent(ctx, paymentRef); err != nil {
		return nil, apperr.Gateway(err, "failed to confirm payment %q", paymentRef)
	}

	commission := CommissionAmount(policy, settlement.TotalAmountCents)
	settlement.CommissionType = policy.Type
	if policy.Type == domain.CommissionFixed {
		settlement.CommissionValue = float64(policy.FixedAmountCents)
	} else {
		settlement.CommissionValue = policy.Percentage
	}
	settlement.CommissionAmountCents = commission
	settlement.OwnerPayoutAmountCents = settlement.TotalAmountCents - commission
	settlement.PaymentStatus = domain.PaymentPaid
	if err := s.settlementRepo.Update(ctx, settlement); err != nil {
		return nil, err
	}

	booking.PaymentState = domain.BookingPaid
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	s.notifySvc.Notify(ctx, booking.OwnerID, "Booking paid",
		fmt.Sprintf("Booking %d was paid. Your share is %d cents after commission.", booking.ID, settlement.OwnerPayoutAmountCents),
		map[string]string{"type": "BOOKING_PAID", "booking_id": fmt.Sprintf("%d", booking.ID)})

	return settlement, nil
}

type commissionService struct {
	policyRepo repository.CommissionPolicyRepository
}

func NewCommissionService(policyRepo repository.CommissionPolicyRepository) CommissionService {
	return &commissionService{policyRepo: policyRepo}
}

func (s *commissionService) GetPolicy(ctx context.Context) (*domain.CommissionPolicy, error) {
	return s.policyRepo.GetCurrent(ctx)
}

func (s *commissionService) UpdatePolicy(ctx context.Context, adminID int32, policy *domain.CommissionPolicy) (*domain.CommissionPolicy, error) {
	switch policy.Type {
	case domain.CommissionFixed:
		if policy.FixedAmountCents < 0 {
			return nil, apperr.Validation("fixed commission amount must be >= 0")
		}
	case domain.CommissionPercentage:
		if policy.Percentage < 0 || policy.Percentage > 100 {
			return nil, apperr.Validation("commission percentage must be between 0 and 100")
		}
	default:
		return nil, apperr.Validation("unknown commission type %q", policy.Type)
	}

	policy.UpdatedBy = adminID
	policy.CreatedOn = time.Now()
	if err := s.policyRepo.Create(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}
