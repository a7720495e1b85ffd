package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"rentspace-backend/internal/apperr"
	"rentspace-backend/internal/domain"
	"rentspace-backend/internal/repository"
)

type settlementRepository struct {
	db *sql.DB
}

func NewSettlementRepository(db *sql.DB) repository.SettlementRepository {
	return &settlementRepository{db: db}
}

const settlementColumns = `id, booking_id, owner_id, renter_id, total_amount_cents, commission_type, commission_value,
	commission_amount_cents, owner_payout_amount_cents, payment_status, payout_status, scheduled_payout_date,
	cancellation_charge_cents, refund_amount_cents, payment_intent_ref, transfer_ref, paid_out_on, payout_error,
	created_on, updated_on`

const qualifiedSettlementColumns = `s.id, s.booking_id, s.owner_id, s.renter_id, s.total_amount_cents, s.commission_type, s.commission_value,
	s.commission_amount_cents, s.owner_payout_amount_cents, s.payment_status, s.payout_status, s.scheduled_payout_date,
	s.cancellation_charge_cents, s.refund_amount_cents, s.payment_intent_ref, s.transfer_ref, s.paid_out_on, s.payout_error,
	s.created_on, s.updated_on`

func (r *settlementRepository) scanRow(row interface{ Scan(...any) error }, s *domain.Settlement) error {
	return row.Scan(
		&s.ID, &s.BookingID, &s.OwnerID, &s.RenterID, &s.TotalAmountCents, &s.CommissionType, &s.CommissionValue,
		&s.CommissionAmountCents, &s.OwnerPayoutAmountCents, &s.PaymentStatus, &s.PayoutStatus, &s.ScheduledPayoutDate,
		&s.CancellationChargeCents, &s.RefundAmountCents, &s.PaymentIntentRef, &s.TransferRef, &s.PaidOutOn, &s.PayoutError,
		&s.CreatedOn, &s.UpdatedOn)
}

func (r *settlementRepository) Create(ctx context.Context, s *domain.Settlement) error {
	query := `INSERT INTO settlements (booking_id, owner_id, renter_id, total_amount_cents, commission_type, commission_value,
	          commission_amount_cents, owner_payout_amount_cents, payment_status, payout_status, payment_intent_ref, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	now := time.Now()
	return r.db.QueryRowContext(ctx, query,
		s.BookingID, s.OwnerID, s.RenterID, s.TotalAmountCents, s.CommissionType, s.CommissionValue,
		s.CommissionAmountCents, s.OwnerPayoutAmountCents, s.PaymentStatus, s.PayoutStatus, s.PaymentIntentRef, now, now,
	).Scan(&s.ID)
}

func (r *settlementRepository) GetByID(ctx context.Context, id int32) (*domain.Settlement, error) {
	s := &domain.Settlement{}
	err := r.scanRow(r.db.QueryRowContext(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE id = $1`, id), s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("settlement %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *settlementRepository) GetByBookingID(ctx context.Context, bookingID int32) (*domain.Settlement, error) {
	s := &domain.Settlement{}
	err := r.scanRow(r.db.QueryRowContext(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE booking_id = $1`, bookingID), s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("settlement for booking %d not found", bookingID)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *settlementRepository) GetByPaymentIntentRef(ctx context.Context, ref string) (*domain.Settlement, error) {
	s := &domain.Settlement{}
	err := r.scanRow(r.db.QueryRowContext(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE payment_intent_ref = $1`, ref), s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("settlement for payment %q not found", ref)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Update deliberately leaves payout_status and scheduled_payout_date alone.
// Those columns only move through the guarded statements below, so a struct
// loaded before a concurrent payout claim cannot revert the claim.
func (r *settlementRepository) Update(ctx context.Context, s *domain.Settlement) error {
	query := `UPDATE settlements SET commission_type=$1, commission_value=$2, commission_amount_cents=$3,
	          owner_payout_amount_cents=$4, payment_status=$5, cancellation_charge_cents=$6,
	          refund_amount_cents=$7, updated_on=$8 WHERE id=$9`
	_, err := r.db.ExecContext(ctx, query,
		s.CommissionType, s.CommissionValue, s.CommissionAmountCents,
		s.OwnerPayoutAmountCents, s.PaymentStatus,
		s.CancellationChargeCents, s.RefundAmountCents, time.Now(), s.ID)
	return err
}

func (r *settlementRepository) CASPayoutStatus(ctx context.Context, id int32, expected, next domain.PayoutStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE settlements SET payout_status=$1, updated_on=$2 WHERE id=$3 AND payout_status=$4`,
		next, time.Now(), id, expected)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *settlementRepository) SchedulePayout(ctx context.Context, id int32, payoutDate time.Time) error {
	// Only a pending settlement becomes scheduled; re-triggering the
	// verification event must not move an already paid settlement back.
	result, err := r.db.ExecContext(ctx,
		`UPDATE settlements SET payout_status=$1, scheduled_payout_date=$2, updated_on=$3
		 WHERE id=$4 AND payout_status=$5 AND payment_status=$6`,
		domain.PayoutScheduled, payoutDate, time.Now(), id, domain.PayoutPending, domain.PaymentPaid)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.State("settlement %d is not eligible for payout scheduling", id)
	}
	return nil
}

// ListDueScheduled re-checks the payout preconditions at read time. A refund
// or a fresh return photo can land after a settlement was scheduled, so being
// on the queue is not enough on its own.
func (r *settlementRepository) ListDueScheduled(ctx context.Context, now time.Time) ([]domain.Settlement, error) {
	query := `SELECT ` + qualifiedSettlementColumns + ` FROM settlements s JOIN bookings b ON b.id = s.booking_id
	          WHERE s.payout_status = $1 AND s.payment_status = $2 AND b.all_return_photos_verified = true
	          AND s.scheduled_payout_date IS NOT NULL AND s.scheduled_payout_date <= $3
	          ORDER BY s.owner_id, s.id`
	rows, err := r.db.QueryContext(ctx, query, domain.PayoutScheduled, domain.PaymentPaid, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settlements []domain.Settlement
	for rows.Next() {
		var s domain.Settlement
		if err := r.scanRow(rows, &s); err != nil {
			return nil, err
		}
		settlements = append(settlements, s)
	}
	return settlements, rows.Err()
}

func (r *settlementRepository) UnschedulePayout(ctx context.Context, id int32) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE settlements SET payout_status=$1, scheduled_payout_date=NULL, updated_on=$2
		 WHERE id=$3 AND payout_status=$4`,
		domain.PayoutPending, time.Now(), id, domain.PayoutScheduled)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *settlementRepository) MarkPaidOut(ctx context.Context, ids []int32, transferRef string, paidOn time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE settlements SET payout_status=$1, transfer_ref=$2, paid_out_on=$3, payout_error='', updated_on=$4
		 WHERE id = ANY($5)`,
		domain.PayoutPaid, transferRef, paidOn, time.Now(), pq.Array(ids))
	return err
}

func (r *settlementRepository) MarkPayoutFailed(ctx context.Context, ids []int32, payoutErr string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE settlements SET payout_status=$1, payout_error=$2, updated_on=$3 WHERE id = ANY($4)`,
		domain.PayoutFailed, payoutErr, time.Now(), pq.Array(ids))
	return err
}
