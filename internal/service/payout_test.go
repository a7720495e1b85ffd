package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"rentspace-backend/internal/apperr"
	"rentspace-backend/internal/domain"
	"rentspace-backend/internal/gateway"
)

func TestPayoutService_RunBatch(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 9, 6, 6, 0, 0, 0, time.UTC)

	t.Run("Groups Per Owner And Skips Unverified", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		bookingRepo := new(MockBookingRepo)
		accountRepo := new(MockPayoutAccountRepo)
		gw := gateway.NewFakeGateway()
		notify := &stubNotify{}
		svc := NewPayoutService(settlementRepo, bookingRepo, accountRepo, gw, notify, "usd")

		due := []domain.Settlement{
			{ID: 1, OwnerID: 10, OwnerPayoutAmountCents: 2700, PaymentStatus: domain.PaymentPaid, PayoutStatus: domain.PayoutScheduled},
			{ID: 2, OwnerID: 10, OwnerPayoutAmountCents: 1300, PaymentStatus: domain.PaymentPaid, PayoutStatus: domain.PayoutScheduled},
			{ID: 3, OwnerID: 20, OwnerPayoutAmountCents: 5000, PaymentStatus: domain.PaymentPaid, PayoutStatus: domain.PayoutScheduled},
		}
		settlementRepo.On("ListDueScheduled", ctx, now).Return(due, nil)

		accountRepo.On("GetByOwner", ctx, int32(10)).
			Return(&domain.PayoutAccount{OwnerID: 10, AccountRef: "acct_x", Verified: true}, nil)
		accountRepo.On("GetByOwner", ctx, int32(20)).
			Return(&domain.PayoutAccount{OwnerID: 20, AccountRef: "acct_y", Verified: false}, nil)

		settlementRepo.On("CASPayoutStatus", ctx, int32(1), domain.PayoutScheduled, domain.PayoutProcessing).Return(true, nil)
		settlementRepo.On("CASPayoutStatus", ctx, int32(2), domain.PayoutScheduled, domain.PayoutProcessing).Return(true, nil)
		settlementRepo.On("MarkPaidOut", ctx, []int32{1, 2}, mock.AnythingOfType("string"), now).Return(nil)

		report, err := svc.RunBatch(ctx, now)
		assert.NoError(t, err)
		assert.Equal(t, int32(3), report.Total)
		assert.Equal(t, int32(2), report.Successful)
		assert.Equal(t, int32(1), report.Skipped)
		assert.Equal(t, int32(0), report.Failed)

		// One aggregated transfer for owner 10, nothing for owner 20.
		transfers := gw.Transfers()
		assert.Len(t, transfers, 1)
		assert.Equal(t, "acct_x", transfers[0].Destination)
		assert.Equal(t, int64(4000), transfers[0].AmountCents)

		settlementRepo.AssertNotCalled(t, "CASPayoutStatus", ctx, int32(3), mock.Anything, mock.Anything)
	})

	t.Run("Transfer Failure Marks Group Failed", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		accountRepo := new(MockPayoutAccountRepo)
		gw := gateway.NewFakeGateway()
		gw.FailTransfer = true
		svc := NewPayoutService(settlementRepo, new(MockBookingRepo), accountRepo, gw, &stubNotify{}, "usd")

		due := []domain.Settlement{
			{ID: 1, OwnerID: 10, OwnerPayoutAmountCents: 2700, PaymentStatus: domain.PaymentPaid, PayoutStatus: domain.PayoutScheduled},
		}
		settlementRepo.On("ListDueScheduled", ctx, now).Return(due, nil)
		accountRepo.On("GetByOwner", ctx, int32(10)).
			Return(&domain.PayoutAccount{OwnerID: 10, AccountRef: "acct_x", Verified: true}, nil)
		settlementRepo.On("CASPayoutStatus", ctx, int32(1), domain.PayoutScheduled, domain.PayoutProcessing).Return(true, nil)
		settlementRepo.On("MarkPayoutFailed", ctx, []int32{1}, mock.AnythingOfType("string")).Return(nil)

		report, err := svc.RunBatch(ctx, now)
		assert.NoError(t, err)
		assert.Equal(t, int32(1), report.Failed)
		assert.Equal(t, int32(0), report.Successful)
		settlementRepo.AssertNotCalled(t, "MarkPaidOut")
	})

	t.Run("Lost Claim Is Reported As Conflict", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		accountRepo := new(MockPayoutAccountRepo)
		gw := gateway.NewFakeGateway()
		svc := NewPayoutService(settlementRepo, new(MockBookingRepo), accountRepo, gw, &stubNotify{}, "usd")

		due := []domain.Settlement{
			{ID: 1, OwnerID: 10, OwnerPayoutAmountCents: 2700, PaymentStatus: domain.PaymentPaid, PayoutStatus: domain.PayoutScheduled},
		}
		settlementRepo.On("ListDueScheduled", ctx, now).Return(due, nil)
		accountRepo.On("GetByOwner", ctx, int32(10)).
			Return(&domain.PayoutAccount{OwnerID: 10, AccountRef: "acct_x", Verified: true}, nil)
		settlementRepo.On("CASPayoutStatus", ctx, int32(1), domain.PayoutScheduled, domain.PayoutProcessing).Return(false, nil)

		report, err := svc.RunBatch(ctx, now)
		assert.NoError(t, err)
		assert.Equal(t, int32(1), report.Skipped)
		assert.Equal(t, "conflict", report.Details[0].Status)
		assert.Empty(t, gw.Transfers())
	})

	t.Run("Refunded After Scheduling Is Not Paid", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		accountRepo := new(MockPayoutAccountRepo)
		gw := gateway.NewFakeGateway()
		svc := NewPayoutService(settlementRepo, new(MockBookingRepo), accountRepo, gw, &stubNotify{}, "usd")

		// The settlement was scheduled while paid, then the booking was
		// cancelled and the renter refunded.
		due := []domain.Settlement{
			{ID: 1, OwnerID: 10, OwnerPayoutAmountCents: 2700, PaymentStatus: domain.PaymentRefunded, PayoutStatus: domain.PayoutScheduled},
		}
		settlementRepo.On("ListDueScheduled", ctx, now).Return(due, nil)
		accountRepo.On("GetByOwner", ctx, int32(10)).
			Return(&domain.PayoutAccount{OwnerID: 10, AccountRef: "acct_x", Verified: true}, nil)

		report, err := svc.RunBatch(ctx, now)
		assert.NoError(t, err)
		assert.Equal(t, int32(1), report.Skipped)
		assert.Equal(t, int32(0), report.Successful)
		assert.Equal(t, "skipped", report.Details[0].Status)
		assert.Empty(t, gw.Transfers())
		settlementRepo.AssertNotCalled(t, "CASPayoutStatus")
		settlementRepo.AssertNotCalled(t, "MarkPaidOut")
	})

	t.Run("Missing Account Skips Group", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		accountRepo := new(MockPayoutAccountRepo)
		svc := NewPayoutService(settlementRepo, new(MockBookingRepo), accountRepo, gateway.NewFakeGateway(), &stubNotify{}, "usd")

		due := []domain.Settlement{
			{ID: 1, OwnerID: 10, OwnerPayoutAmountCents: 2700, PaymentStatus: domain.PaymentPaid, PayoutStatus: domain.PayoutScheduled},
		}
		settlementRepo.On("ListDueScheduled", ctx, now).Return(due, nil)
		accountRepo.On("GetByOwner", ctx, int32(10)).Return(nil, apperr.NotFound("no account"))

		report, err := svc.RunBatch(ctx, now)
		assert.NoError(t, err)
		assert.Equal(t, int32(1), report.Skipped)
		settlementRepo.AssertNotCalled(t, "CASPayoutStatus")
	})

	t.Run("Empty Batch", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		svc := NewPayoutService(settlementRepo, new(MockBookingRepo), new(MockPayoutAccountRepo), gateway.NewFakeGateway(), &stubNotify{}, "usd")

		settlementRepo.On("ListDueScheduled", ctx, now).Return([]domain.Settlement{}, nil)

		report, err := svc.RunBatch(ctx, now)
		assert.NoError(t, err)
		assert.Equal(t, int32(0), report.Total)
	})
}

func TestPayoutService_PayoutSettlement(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		bookingRepo := new(MockBookingRepo)
		accountRepo := new(MockPayoutAccountRepo)
		gw := gateway.NewFakeGateway()
		svc := NewPayoutService(settlementRepo, bookingRepo, accountRepo, gw, &stubNotify{}, "usd")

		settlement := &domain.Settlement{
			ID: 1, BookingID: 5, OwnerID: 10, OwnerPayoutAmountCents: 2700,
			PaymentStatus: domain.PaymentPaid, PayoutStatus: domain.PayoutScheduled,
		}
		settlementRepo.On("GetByID", ctx, int32(1)).Return(settlement, nil)
		bookingRepo.On("GetByID", ctx, int32(5)).
			Return(&domain.Booking{ID: 5, AllReturnPhotosVerified: true}, nil)
		accountRepo.On("GetByOwner", ctx, int32(10)).
			Return(&domain.PayoutAccount{OwnerID: 10, AccountRef: "acct_x", Verified: true}, nil)
		settlementRepo.On("CASPayoutStatus", ctx, int32(1), domain.PayoutScheduled, domain.PayoutProcessing).Return(true, nil)
		settlementRepo.On("MarkPaidOut", ctx, []int32{1}, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

		detail, err := svc.PayoutSettlement(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, "paid", detail.Status)
		assert.Equal(t, int64(2700), detail.AmountCents)
		assert.Len(t, gw.Transfers(), 1)
	})

	t.Run("Unverified Photos Block Payout", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		bookingRepo := new(MockBookingRepo)
		svc := NewPayoutService(settlementRepo, bookingRepo, new(MockPayoutAccountRepo), gateway.NewFakeGateway(), &stubNotify{}, "usd")

		settlement := &domain.Settlement{
			ID: 1, BookingID: 5, OwnerID: 10,
			PaymentStatus: domain.PaymentPaid, PayoutStatus: domain.PayoutScheduled,
		}
		settlementRepo.On("GetByID", ctx, int32(1)).Return(settlement, nil)
		bookingRepo.On("GetByID", ctx, int32(5)).
			Return(&domain.Booking{ID: 5, AllReturnPhotosVerified: false}, nil)

		_, err := svc.PayoutSettlement(ctx, 1)
		assert.True(t, apperr.Is(err, apperr.KindState))
	})

	t.Run("Not Scheduled", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		svc := NewPayoutService(settlementRepo, new(MockBookingRepo), new(MockPayoutAccountRepo), gateway.NewFakeGateway(), &stubNotify{}, "usd")

		settlementRepo.On("GetByID", ctx, int32(1)).
			Return(&domain.Settlement{ID: 1, PayoutStatus: domain.PayoutPaid}, nil)

		_, err := svc.PayoutSettlement(ctx, 1)
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})
}

func TestPayoutService_RequeueSettlement(t *testing.T) {
	ctx := context.Background()

	t.Run("Failed Back To Scheduled", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		svc := NewPayoutService(settlementRepo, new(MockBookingRepo), new(MockPayoutAccountRepo), gateway.NewFakeGateway(), &stubNotify{}, "usd")

		settlementRepo.On("CASPayoutStatus", ctx, int32(1), domain.PayoutFailed, domain.PayoutScheduled).Return(true, nil)
		settlementRepo.On("GetByID", ctx, int32(1)).
			Return(&domain.Settlement{ID: 1, PayoutStatus: domain.PayoutScheduled}, nil)

		res, err := svc.RequeueSettlement(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, domain.PayoutScheduled, res.PayoutStatus)
	})

	t.Run("Only Failed Can Requeue", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepo)
		svc := NewPayoutService(settlementRepo, new(MockBookingRepo), new(MockPayoutAccountRepo), gateway.NewFakeGateway(), &stubNotify{}, "usd")

		settlementRepo.On("CASPayoutStatus", ctx, int32(1), domain.PayoutFailed, domain.PayoutScheduled).Return(false, nil)
		settlementRepo.On("GetByID", ctx, int32(1)).
			Return(&domain.Settlement{ID: 1, PayoutStatus: domain.PayoutPaid}, nil)

		_, err := svc.RequeueSettlement(ctx, 1)
		assert.True(t, apperr.Is(err, apperr.KindState))
	})
}
