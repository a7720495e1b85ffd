package domain

// Reason codes for an unavailable result.
const (
	ReasonOutOfStock     = "out_of_stock"
	ReasonDayUnavailable = "day_unavailable"
	ReasonFullyBooked    = "fully_booked"
)

// DayAvailability is the per-day breakdown of an availability check.
type DayAvailability struct {
	Day       string `json:"day"`
	Booked    int32  `json:"booked"`
	Available int32  `json:"available"`
	Total     int32  `json:"total"`
}

type AvailabilityResult struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
	PerDay    []DayAvailability `json:"per_day"`
}
