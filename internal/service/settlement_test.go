package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"rentspace-backend/internal/apperr"
	"rentspace-backend/internal/domain"
	"rentspace-backend/internal/gateway"
)

func TestCommissionAmount(t *testing.T) {
	t.Run("Fixed", func(t *testing.T) {
		policy := &domain.CommissionPolicy{Type: domain.CommissionFixed, FixedAmountCents: 500}
		assert.Equal(t, int64(500), CommissionAmount(policy, 10000))
	})

	t.Run("Fixed Capped At Total", func(t *testing.T) {
		policy := &domain.CommissionPolicy{Type: domain.CommissionFixed, FixedAmountCents: 500}
		assert.Equal(t, int64(300), CommissionAmount(policy, 300))
	})

	t.Run("Percentage Rounds To Cents", func(t *testing.T) {
		policy := &domain.CommissionPolicy{Type: domain.CommissionPercentage, Percentage: 12.5}
		// 999 * 12.5% = 124.875 rounds to 125
		assert.Equal(t, int64(125), CommissionAmount(policy, 999))
	})

	t.Run("Split Is Exact", func(t *testing.T) {
		policy := &domain.CommissionPolicy{Type: domain.CommissionPercentage, Percentage: 7.3}
		for _, total := range []int64{1, 99, 1234, 99999} {
			commission := CommissionAmount(policy, total)
			owner := total - commission
			assert.Equal(t, total, commission+owner)
			assert.GreaterOrEqual(t, owner, int64(0))
		}
	})
}

func TestCancellationCharge(t *testing.T) {
	tiers := []domain.CancellationTier{
		{HoursBeforeStart: 72, ChargePercentage: 10},
		{HoursBeforeStart: 24, ChargePercentage: 50},
		{HoursBeforeStart: 2, ChargePercentage: 90},
	}

	t.Run("Far Out Is Free", func(t *testing.T) {
		assert.Equal(t, int64(0), CancellationCharge(tiers, 100, 10000))
	})

	t.Run("Largest Matching Threshold Wins", func(t *testing.T) {
		// 10 hours before start matches the 72h tier first in the
		// descending scan, so the charge is 10%, not 50% or 90%.
		assert.Equal(t, int64(1000), CancellationCharge(tiers, 10, 10000))
	})

	t.Run("One Hour Before Start", func(t *testing.T) {
		assert.Equal(t, int64(1000), CancellationCharge(tiers, 1, 10000))
	})

	t.Run("Exactly On Boundary", func(t *testing.T) {
		assert.Equal(t, int64(1000), CancellationCharge(tiers, 72, 10000))
	})

	t.Run("No Tiers", func(t *testing.T) {
		assert.Equal(t, int64(0), CancellationCharge(nil, 1, 10000))
	})

	t.Run("Unsorted Input", func(t *testing.T) {
		shuffled := []domain.CancellationTier{
			{HoursBeforeStart: 2, ChargePercentage: 90},
			{HoursBeforeStart: 72, ChargePercentage: 10},
			{HoursBeforeStart: 24, ChargePercentage: 50},
		}
		assert.Equal(t, int64(1000), CancellationCharge(shuffled, 10, 10000))
	})
}

func TestPaymentService_CreatePayment(t *testing.T) {
	ctx := context.Background()
	renterID := int32(1)
	bookingID := int32(5)

	booking := &domain.Booking{
		ID:               bookingID,
		RenterID:         renterID,
		OwnerID:          2,
		Status:           domain.BookingStatusPending,
		PaymentState:     domain.BookingUnpaid,
		TotalAmountCents: 3000,
	}

	t.Run("Success", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		bookingRepo := new(MockBookingRepo)
		policyRepo := new(MockPolicyRepo)
		gw := new(MockGateway)
		svc := NewPaymentService(settlementRepo, bookingRepo, policyRepo, gw, &stubNotify{}, "usd")

		b := *booking
		bookingRepo.On("GetByID", ctx, bookingID).Return(&b, nil)
		settlementRepo.On("GetByBookingID", ctx, bookingID).Return(nil, apperr.NotFound("no settlement"))
		gw.On("CreateIntent", ctx, int64(3000), "usd", mock.Anything).
			Return(&gateway.PaymentIntent{Ref: "pi_1", ClientToken: "pi_1_secret"}, nil)
		settlementRepo.On("Create", ctx, mock.AnythingOfType("*domain.Settlement")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*domain.Settlement).ID = 9
			}).Return(nil)
		bookingRepo.On("Update", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)

		settlement, clientToken, err := svc.CreatePayment(ctx, renterID, bookingID)
		assert.NoError(t, err)
		assert.Equal(t, "pi_1_secret", clientToken)
		assert.Equal(t, "pi_1", settlement.PaymentIntentRef)
		assert.Equal(t, domain.PaymentPending, settlement.PaymentStatus)
		assert.Equal(t, domain.PayoutPending, settlement.PayoutStatus)
		assert.Equal(t, int32(9), *b.SettlementID)
	})

	t.Run("Not The Renter", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		bookingRepo := new(MockBookingRepo)
		svc := NewPaymentService(settlementRepo, bookingRepo, new(MockPolicyRepo), new(MockGateway), &stubNotify{}, "usd")

		b := *booking
		bookingRepo.On("GetByID", ctx, bookingID).Return(&b, nil)

		_, _, err := svc.CreatePayment(ctx, int32(99), bookingID)
		assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	})

	t.Run("Duplicate Settlement", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		bookingRepo := new(MockBookingRepo)
		svc := NewPaymentService(settlementRepo, bookingRepo, new(MockPolicyRepo), new(MockGateway), &stubNotify{}, "usd")

		b := *booking
		bookingRepo.On("GetByID", ctx, bookingID).Return(&b, nil)
		settlementRepo.On("GetByBookingID", ctx, bookingID).
			Return(&domain.Settlement{ID: 9, PaymentStatus: domain.PaymentPending}, nil)

		_, _, err := svc.CreatePayment(ctx, renterID, bookingID)
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})

	t.Run("Gateway Failure Leaves No Settlement", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		bookingRepo := new(MockBookingRepo)
		gw := new(MockGateway)
		svc := NewPaymentService(settlementRepo, bookingRepo, new(MockPolicyRepo), gw, &stubNotify{}, "usd")

		b := *booking
		bookingRepo.On("GetByID", ctx, bookingID).Return(&b, nil)
		settlementRepo.On("GetByBookingID", ctx, bookingID).Return(nil, apperr.NotFound("no settlement"))
		gw.On("CreateIntent", ctx, int64(3000), "usd", mock.Anything).
			Return(nil, errors.New("stripe down"))

		_, _, err := svc.CreatePayment(ctx, renterID, bookingID)
		assert.True(t, apperr.Is(err, apperr.KindGateway))
		settlementRepo.AssertNotCalled(t, "Create")
	})
}

func TestPaymentService_ConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("Snapshots Current Policy", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		bookingRepo := new(MockBookingRepo)
		policyRepo := new(MockPolicyRepo)
		gw := new(MockGateway)
		notify := &stubNotify{}
		svc := NewPaymentService(settlementRepo, bookingRepo, policyRepo, gw, notify, "usd")

		settlement := &domain.Settlement{
			ID: 9, BookingID: 5, OwnerID: 2, RenterID: 1,
			TotalAmountCents: 3000,
			PaymentStatus:    domain.PaymentPending,
			PayoutStatus:     domain.PayoutPending,
			PaymentIntentRef: "pi_1",
		}
		booking := &domain.Booking{ID: 5, OwnerID: 2, RenterID: 1, PaymentState: domain.BookingUnpaid}

		settlementRepo.On("GetByPaymentIntentRef", ctx, "pi_1").Return(settlement, nil)
		policyRepo.On("GetCurrent", ctx).
			Return(&domain.CommissionPolicy{Version: 3, Type: domain.CommissionPercentage, Percentage: 10}, nil)
		gw.On("ConfirmIntent", ctx, "pi_1").Return(nil)
		settlementRepo.On("Update", ctx, settlement).Return(nil)
		bookingRepo.On("GetByID", ctx, int32(5)).Return(booking, nil)
		bookingRepo.On("Update", ctx, booking).Return(nil)

		res, err := svc.ConfirmPayment(ctx, "pi_1")
		assert.NoError(t, err)
		assert.Equal(t, domain.PaymentPaid, res.PaymentStatus)
		assert.Equal(t, domain.CommissionPercentage, res.CommissionType)
		assert.Equal(t, int64(300), res.CommissionAmountCents)
		assert.Equal(t, int64(2700), res.OwnerPayoutAmountCents)
		assert.Equal(t, domain.BookingPaid, booking.PaymentState)
		assert.Equal(t, []int32{2}, notify.recipients)
	})

	t.Run("Already Paid Is A No-Op", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		gw := new(MockGateway)
		svc := NewPaymentService(settlementRepo, new(MockBookingRepo), new(MockPolicyRepo), gw, &stubNotify{}, "usd")

		settlement := &domain.Settlement{ID: 9, PaymentStatus: domain.PaymentPaid, PaymentIntentRef: "pi_1"}
		settlementRepo.On("GetByPaymentIntentRef", ctx, "pi_1").Return(settlement, nil)

		res, err := svc.ConfirmPayment(ctx, "pi_1")
		assert.NoError(t, err)
		assert.Equal(t, settlement, res)
		gw.AssertNotCalled(t, "ConfirmIntent")
	})

	t.Run("Gateway Failure Leaves Settlement Pending", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		bookingRepo := new(MockBookingRepo)
		policyRepo := new(MockPolicyRepo)
		gw := new(MockGateway)
		svc := NewPaymentService(settlementRepo, bookingRepo, policyRepo, gw, &stubNotify{}, "usd")

		settlement := &domain.Settlement{ID: 9, BookingID: 5, PaymentStatus: domain.PaymentPending, PaymentIntentRef: "pi_1"}
		settlementRepo.On("GetByPaymentIntentRef", ctx, "pi_1").Return(settlement, nil)
		bookingRepo.On("GetByID", ctx, int32(5)).
			Return(&domain.Booking{ID: 5, Status: domain.BookingStatusPending, PaymentState: domain.BookingUnpaid}, nil)
		policyRepo.On("GetCurrent", ctx).
			Return(&domain.CommissionPolicy{Type: domain.CommissionPercentage, Percentage: 10}, nil)
		gw.On("ConfirmIntent", ctx, "pi_1").Return(errors.New("declined"))

		_, err := svc.ConfirmPayment(ctx, "pi_1")
		assert.True(t, apperr.Is(err, apperr.KindGateway))
		assert.Equal(t, domain.PaymentPending, settlement.PaymentStatus)
		settlementRepo.AssertNotCalled(t, "Update")
	})

	t.Run("Cancelled Booking Cannot Be Confirmed", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		bookingRepo := new(MockBookingRepo)
		gw := new(MockGateway)
		svc := NewPaymentService(settlementRepo, bookingRepo, new(MockPolicyRepo), gw, &stubNotify{}, "usd")

		// The renter cancelled before paying, then replayed the old intent.
		settlement := &domain.Settlement{ID: 9, BookingID: 5, PaymentStatus: domain.PaymentPending, PaymentIntentRef: "pi_1"}
		settlementRepo.On("GetByPaymentIntentRef", ctx, "pi_1").Return(settlement, nil)
		bookingRepo.On("GetByID", ctx, int32(5)).
			Return(&domain.Booking{ID: 5, Status: domain.BookingStatusCancelled, PaymentState: domain.BookingUnpaid}, nil)

		_, err := svc.ConfirmPayment(ctx, "pi_1")
		assert.True(t, apperr.Is(err, apperr.KindState))
		assert.Equal(t, domain.PaymentPending, settlement.PaymentStatus)
		gw.AssertNotCalled(t, "ConfirmIntent")
		settlementRepo.AssertNotCalled(t, "Update")
	})
}

func TestCommissionService_UpdatePolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid Percentage", func(t *testing.T) {
		policyRepo := new(MockPolicyRepo)
		svc := NewCommissionService(policyRepo)

		policyRepo.On("Create", ctx, mock.AnythingOfType("*domain.CommissionPolicy")).Return(nil)

		res, err := svc.UpdatePolicy(ctx, 42, &domain.CommissionPolicy{Type: domain.CommissionPercentage, Percentage: 15})
		assert.NoError(t, err)
		assert.Equal(t, int32(42), res.UpdatedBy)
	})

	t.Run("Percentage Out Of Range", func(t *testing.T) {
		svc := NewCommissionService(new(MockPolicyRepo))
		_, err := svc.UpdatePolicy(ctx, 42, &domain.CommissionPolicy{Type: domain.CommissionPercentage, Percentage: 120})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("Unknown Type", func(t *testing.T) {
		svc := NewCommissionService(new(MockPolicyRepo))
		_, err := svc.UpdatePolicy(ctx, 42, &domain.CommissionPolicy{Type: "WEIRD"})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}
