package utils

import (
	"fmt"
	"sort"
	"time"
)

// DayKeyLayout is the timezone-independent calendar-day key format.
const DayKeyLayout = "2006-01-02"

// NormalizeDay converts a yyyy-mm-dd string into a canonical day key.
// Parsing is done in UTC so the key is independent of the caller's zone.
func NormalizeDay(dayStr string) (string, error) {
	t, err := time.ParseInLocation(DayKeyLayout, dayStr, time.UTC)
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected yyyy-mm-dd", dayStr)
	}
	return t.Format(DayKeyLayout), nil
}

// NormalizeDays normalizes, deduplicates, and sorts a set of day strings.
func NormalizeDays(dayStrs []string) ([]string, error) {
	seen := make(map[string]bool, len(dayStrs))
	days := make([]string, 0, len(dayStrs))
	for _, s := range dayStrs {
		day, err := NormalizeDay(s)
		if err != nil {
			return nil, err
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	sort.Strings(days)
	return days, nil
}

// DayStart returns the UTC midnight instant of a day key.
func DayStart(day string) (time.Time, error) {
	return time.ParseInLocation(DayKeyLayout, day, time.UTC)
}

// HoursUntil returns the signed number of hours from now until the start of
// the given day. Negative once the day has begun.
func HoursUntil(day string, now time.Time) (float64, error) {
	start, err := DayStart(day)
	if err != nil {
		return 0, err
	}
	return start.Sub(now).Hours(), nil
}
