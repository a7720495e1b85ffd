package domain

import "time"

type Product struct {
	ID      int32  `json:"id"`
	OwnerID int32  `json:"owner_id"`
	Name    string `json:"name"`
	// TotalStockUnits is the number of interchangeable physical units.
	// Zero means the product can never be booked.
	TotalStockUnits int32 `json:"total_stock_units"`
	DailyPriceCents int64 `json:"daily_price_cents"`
	// PublishableDays restricts bookable calendar days (yyyy-mm-dd keys).
	// Empty means every day is bookable.
	PublishableDays   []string           `json:"publishable_days,omitempty"`
	CancellationTiers []CancellationTier `json:"cancellation_tiers,omitempty"`
	Deleted           bool               `json:"deleted"`
	CreatedOn         time.Time          `json:"created_on"`
	UpdatedOn         time.Time          `json:"updated_on"`
}

// CancellationTier is one penalty rule: cancelling when the remaining time
// until the booking start is at most HoursBeforeStart hours charges
// ChargePercentage of the paid total.
type CancellationTier struct {
	HoursBeforeStart int32   `json:"hours_before_start"`
	ChargePercentage float64 `json:"charge_percentage"`
}

// AllowsDay reports whether the product can be booked on the given day key.
func (p *Product) AllowsDay(day string) bool {
	if len(p.PublishableDays) == 0 {
		return true
	}
	for _, d := range p.PublishableDays {
		if d == day {
			return true
		}
	}
	return false
}
