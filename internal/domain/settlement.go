package domain

import "time"

type CommissionType string

const (
	CommissionFixed      CommissionType = "FIXED"
	CommissionPercentage CommissionType = "PERCENTAGE"
)

type SettlementPaymentStatus string

const (
	PaymentPending           SettlementPaymentStatus = "PENDING"
	PaymentPaid              SettlementPaymentStatus = "PAID"
	PaymentRefunded          SettlementPaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded SettlementPaymentStatus = "PARTIALLY_REFUNDED"
	PaymentFailed            SettlementPaymentStatus = "FAILED"
)

type PayoutStatus string

const (
	PayoutPending PayoutStatus = "PENDING"
	// PayoutScheduled settlements are picked up by the batch once their
	// scheduled payout date is due.
	PayoutScheduled  PayoutStatus = "SCHEDULED"
	PayoutProcessing PayoutStatus = "PROCESSING"
	PayoutPaid       PayoutStatus = "PAID"
	PayoutFailed     PayoutStatus = "FAILED"
)

// Settlement is the financial record of one booking payment. The commission
// fields are a snapshot of the policy in force at confirmation time and are
// never recomputed. Invariant: OwnerPayoutAmountCents + CommissionAmountCents
// == TotalAmountCents.
type Settlement struct {
	ID                      int32                   `json:"id"`
	BookingID               int32                   `json:"booking_id"`
	OwnerID                 int32                   `json:"owner_id"`
	RenterID                int32                   `json:"renter_id"`
	TotalAmountCents        int64                   `json:"total_amount_cents"`
	CommissionType          CommissionType          `json:"commission_type"`
	CommissionValue         float64                 `json:"commission_value"`
	CommissionAmountCents   int64                   `json:"commission_amount_cents"`
	OwnerPayoutAmountCents  int64                   `json:"owner_payout_amount_cents"`
	PaymentStatus           SettlementPaymentStatus `json:"payment_status"`
	PayoutStatus            PayoutStatus            `json:"payout_status"`
	ScheduledPayoutDate     *time.Time              `json:"scheduled_payout_date,omitempty"`
	CancellationChargeCents int64                   `json:"cancellation_charge_cents"`
	RefundAmountCents       int64                   `json:"refund_amount_cents"`
	PaymentIntentRef        string                  `json:"payment_intent_ref,omitempty"`
	TransferRef             string                  `json:"transfer_ref,omitempty"`
	PaidOutOn               *time.Time              `json:"paid_out_on,omitempty"`
	PayoutError             string                  `json:"payout_error,omitempty"`
	CreatedOn               time.Time               `json:"created_on"`
	UpdatedOn               time.Time               `json:"updated_on"`
}

// PayoutBatchReport summarizes one payout batch run.
type PayoutBatchReport struct {
	Total      int32          `json:"total"`
	Successful int32          `json:"successful"`
	Failed     int32          `json:"failed"`
	Skipped    int32          `json:"skipped"`
	Details    []PayoutDetail `json:"details"`
}

type PayoutDetail struct {
	SettlementID int32  `json:"settlement_id"`
	OwnerID      int32  `json:"owner_id"`
	AmountCents  int64  `json:"amount_cents"`
	Status       string `json:"status"` // "paid", "failed", "skipped", "conflict"
	TransferRef  string `json:"transfer_ref,omitempty"`
	Error        string `json:"error,omitempty"`
}
