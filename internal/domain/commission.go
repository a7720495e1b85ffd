package domain

import "time"

// CommissionPolicy is the process-wide commission configuration. Policies are
// versioned: an update inserts a new version, and each settlement snapshots
// the version current at its confirmation. Old settlements are never touched
// by later edits.
type CommissionPolicy struct {
	Version int32          `json:"version"`
	Type    CommissionType `json:"type"`
	// FixedAmountCents applies when Type is FIXED.
	FixedAmountCents int64 `json:"fixed_amount_cents"`
	// Percentage applies when Type is PERCENTAGE, in percent of the total.
	Percentage float64   `json:"percentage"`
	UpdatedBy  int32     `json:"updated_by"`
	CreatedOn  time.Time `json:"created_on"`
}
