package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rentspace-backend/internal/apperr"
	"rentspace-backend/internal/domain"
	"rentspace-backend/internal/gateway"
	"rentspace-backend/internal/logger"
	"rentspace-backend/internal/repository"
)

type payoutService struct {
	settlementRepo repository.SettlementRepository
	bookingRepo    repository.BookingRepository
	accountRepo    repository.PayoutAccountRepository
	gw             gateway.PaymentGateway
	notifySvc      NotifyService
	currency       string
}

func NewPayoutService(
	settlementRepo repository.SettlementRepository,
	bookingRepo repository.BookingRepository,
	accountRepo repository.PayoutAccountRepository,
	gw gateway.PaymentGateway,
	notifySvc NotifyService,
	currency string,
) PayoutService {
	return &payoutService{
		settlementRepo: settlementRepo,
		bookingRepo:    bookingRepo,
		accountRepo:    accountRepo,
		gw:             gw,
		notifySvc:      notifySvc,
		currency:       currency,
	}
}

func (s *payoutService) RunBatch(ctx context.Context, now time.Time) (*domain.PayoutBatchReport, error) {
	due, err := s.settlementRepo.ListDueScheduled(ctx, now)
	if err != nil {
		return nil, err
	}

	report := &domain.PayoutBatchReport{Total: int32(len(due))}
	if len(due) == 0 {
		return report, nil
	}

	// Group per owner, preserving the query's owner_id ordering.
	groups := make(map[int32][]domain.Settlement)
	var owners []int32
	for _, settlement := range due {
		if _, seen := groups[settlement.OwnerID]; !seen {
			owners = append(owners, settlement.OwnerID)
		}
		groups[settlement.OwnerID] = append(groups[settlement.OwnerID], settlement)
	}

	for _, ownerID := range owners {
		// One owner's failure never aborts the remaining groups.
		s.processOwnerGroup(ctx, ownerID, groups[ownerID], now, report)
	}
	return report, nil
}

func (s *payoutService) processOwnerGroup(ctx context.Context, ownerID int32, group []domain.Settlement, now time.Time, report *domain.PayoutBatchReport) {
	account, err := s.accountRepo.GetByOwner(ctx, ownerID)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		logger.Error("Failed to load payout account", "owner_id", ownerID, "error", err)
		err = nil
		account = nil
	}
	if account == nil || !account.Verified {
		// Leave the whole group scheduled and tell the owner once.
		for _, settlement := range group {
			report.Skipped++
			report.Details = append(report.Details, domain.PayoutDetail{
				SettlementID: settlement.ID,
				OwnerID:      ownerID,
				AmountCents:  settlement.OwnerPayoutAmountCents,
				Status:       "skipped",
				Error:        "no verified payout destination",
			})
		}
		s.notifySvc.Notify(ctx, ownerID, "Payout skipped",
			fmt.Sprintf("%d settlement(s) are awaiting a verified payout destination.", len(group)),
			map[string]string{"type": "PAYOUT_SKIPPED"})
		logger.Warn("Skipped payout group, no verified destination", "owner_id", ownerID, "settlements", len(group))
		return
	}

	// Claim each settlement; a concurrent run or a manual payout may have
	// taken some already.
	var claimed []domain.Settlement
	var claimedIDs []int32
	var totalCents int64
	for _, settlement := range group {
		// A refund can land between the due query and this claim; money
		// the renter got back never goes to the owner.
		if settlement.PaymentStatus != domain.PaymentPaid {
			report.Skipped++
			report.Details = append(report.Details, domain.PayoutDetail{
				SettlementID: settlement.ID, OwnerID: ownerID,
				AmountCents: settlement.OwnerPayoutAmountCents,
				Status:      "skipped", Error: fmt.Sprintf("payment is %s, not paid", settlement.PaymentStatus),
			})
			continue
		}
		ok, err := s.settlementRepo.CASPayoutStatus(ctx, settlement.ID, domain.PayoutScheduled, domain.PayoutProcessing)
		if err != nil {
			logger.Error("Failed to claim settlement for payout", "settlement_id", settlement.ID, "error", err)
			report.Failed++
			report.Details = append(report.Details, domain.PayoutDetail{
				SettlementID: settlement.ID, OwnerID: ownerID,
				AmountCents: settlement.OwnerPayoutAmountCents,
				Status:      "failed", Error: err.Error(),
			})
			continue
		}
		if !ok {
			report.Skipped++
			report.Details = append(report.Details, domain.PayoutDetail{
				SettlementID: settlement.ID, OwnerID: ownerID,
				AmountCents: settlement.OwnerPayoutAmountCents,
				Status:      "conflict", Error: "claimed by another payout path",
			})
			continue
		}
		claimed = append(claimed, settlement)
		claimedIDs = append(claimedIDs, settlement.ID)
		totalCents += settlement.OwnerPayoutAmountCents
	}
	if len(claimed) == 0 {
		return
	}

	groupRef := "payout_" + uuid.NewString()
	transferRef, err := s.gw.CreateTransfer(ctx, account.AccountRef, totalCents, s.currency, groupRef)
	if err != nil {
		if markErr := s.settlementRepo.MarkPayoutFailed(ctx, claimedIDs, err.Error()); markErr != nil {
			logger.Error("Failed to record payout failure", "owner_id", ownerID, "error", markErr)
		}
		for _, settlement := range claimed {
			report.Failed++
			report.Details = append(report.Details, domain.PayoutDetail{
				SettlementID: settlement.ID, OwnerID: ownerID,
				AmountCents: settlement.OwnerPayoutAmountCents,
				Status:      "failed", Error: err.Error(),
			})
		}
		s.notifySvc.Notify(ctx, ownerID, "Payout failed",
			fmt.Sprintf("Transfer of %d cents failed and will be retried after review.", totalCents),
			map[string]string{"type": "PAYOUT_FAILED"})
		logger.Error("Payout transfer failed", "owner_id", ownerID, "amount_cents", totalCents, "error", err)
		return
	}

	if err := s.settlementRepo.MarkPaidOut(ctx, claimedIDs, transferRef, now); err != nil {
		// The transfer went out; the records must not silently stay in
		// PROCESSING without a trace.
		logger.Error("Transfer succeeded but settlements could not be marked paid",
			"owner_id", ownerID, "transfer_ref", transferRef, "error", err)
		for _, settlement := range claimed {
			report.Failed++
			report.Details = append(report.Details, domain.PayoutDetail{
				SettlementID: settlement.ID, OwnerID: ownerID,
				AmountCents: settlement.OwnerPayoutAmountCents,
				Status:      "failed", TransferRef: transferRef, Error: err.Error(),
			})
		}
		return
	}

	for _, settlement := range claimed {
		report.Successful++
		report.Details = append(report.Details, domain.PayoutDetail{
			SettlementID: settlement.ID, OwnerID: ownerID,
			AmountCents: settlement.OwnerPayoutAmountCents,
			Status:      "paid", TransferRef: transferRef,
		})
	}
	s.notifySvc.Notify(ctx, ownerID, "Payout sent",
		fmt.Sprintf("%d settlement(s) totaling %d cents were transferred.", len(claimed), totalCents),
		map[string]string{"type": "PAYOUT_PAID", "transfer_ref": transferRef})
	logger.Info("Payout group transferred", "owner_id", ownerID, "settlements", len(claimed), "amount_cents", totalCents, "transfer_ref", transferRef)
}

func (s *payoutService) PayoutSettlement(ctx context.Context, settlementID int32) (*domain.PayoutDetail, error) {
	settlement, err := s.settlementRepo.GetByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if settlement.PayoutStatus != domain.PayoutScheduled {
		return nil, apperr.Conflict("settlement %d is %s, not scheduled", settlementID, settlement.PayoutStatus)
	}
	if settlement.PaymentStatus != domain.PaymentPaid {
		return nil, apperr.State("settlement %d is not paid", settlementID)
	}

	booking, err := s.bookingRepo.GetByID(ctx, settlement.BookingID)
	if err != nil {
		return nil, err
	}
	if !booking.AllReturnPhotosVerified {
		return nil, apperr.State("booking %d return photos are not verified", booking.ID)
	}

	account, err := s.accountRepo.GetByOwner(ctx, settlement.OwnerID)
	if err != nil {
		return nil, err
	}
	if !account.Verified {
		return nil, apperr.State("owner %d has no verified payout destination", settlement.OwnerID)
	}

	ok, err := s.settlementRepo.CASPayoutStatus(ctx, settlementID, domain.PayoutScheduled, domain.PayoutProcessing)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflict("settlement %d was claimed by another payout path", settlementID)
	}

	now := time.Now()
	groupRef := "payout_" + uuid.NewString()
	transferRef, err := s.gw.CreateTransfer(ctx, account.AccountRef, settlement.OwnerPayoutAmountCents, s.currency, groupRef)
	if err != nil {
		if markErr := s.settlementRepo.MarkPayoutFailed(ctx, []int32{settlementID}, err.Error()); markErr != nil {
			logger.Error("Failed to record payout failure", "settlement_id", settlementID, "error", markErr)
		}
		return nil, apperr.Gateway(err, "transfer for settlement %d failed", settlementID)
	}
	if err := s.settlementRepo.MarkPaidOut(ctx, []int32{settlementID}, transferRef, now); err != nil {
		logger.Error("Transfer succeeded but settlement could not be marked paid",
			"settlement_id", settlementID, "transfer_ref", transferRef, "error", err)
		return nil, err
	}

	s.notifySvc.Notify(ctx, settlement.OwnerID, "Payout sent",
		fmt.Sprintf("Settlement %d was transferred (%d cents).", settlementID, settlement.OwnerPayoutAmountCents),
		map[string]string{"type": "PAYOUT_PAID", "transfer_ref": transferRef})

	return &domain.PayoutDetail{
		SettlementID: settlementID,
		OwnerID:      settlement.OwnerID,
		AmountCents:  settlement.OwnerPayoutAmountCents,
		Status:       "paid",
		TransferRef:  transferRef,
	}, nil
}

func (s *payoutService) RequeueSettlement(ctx context.Context, settlementID int32) (*domain.Settlement, error) {
	ok, err := s.settlementRepo.CASPayoutStatus(ctx, settlementID, domain.PayoutFailed, domain.PayoutScheduled)
	if err != nil {
		return nil, err
	}
	if !ok {
		settlement, getErr := s.settlementRepo.GetByID(ctx, settlementID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, apperr.State("settlement %d is %s, only failed payouts can be requeued", settlementID, settlement.PayoutStatus)
	}
	return s.settlementRepo.GetByID(ctx, settlementID)
}
