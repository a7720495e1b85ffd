package domain

import "time"

// PayoutAccount is an owner's registered payout destination. The batch skips
// every settlement of an owner without a verified account.
type PayoutAccount struct {
	ID         int32     `json:"id"`
	OwnerID    int32     `json:"owner_id"`
	Provider   string    `json:"provider"`
	AccountRef string    `json:"account_ref"`
	Verified   bool      `json:"verified"`
	CreatedOn  time.Time `json:"created_on"`
	UpdatedOn  time.Time `json:"updated_on"`
}
