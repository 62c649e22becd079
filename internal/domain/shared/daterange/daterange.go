package daterange

import (
	"errors"
	"time"
)

// ErrInvalidInterval is returned for malformed or past-dated ranges.
var ErrInvalidInterval = errors.New("daterange: check-out must be after check-in")

// DateRange is a half-open interval [CheckIn, CheckOut) in whole days.
// Times are normalized to midnight UTC so two ranges built from different
// wall-clock moments of the same day compare equal.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// New builds a DateRange, truncating both bounds to day precision.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if !dr.CheckOut.After(dr.CheckIn) {
		return DateRange{}, ErrInvalidInterval
	}
	return dr, nil
}

// Day truncates a time to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Nights returns the number of whole days covered by the range.
func (dr DateRange) Nights() int {
	return int(dr.CheckOut.Sub(dr.CheckIn) / (24 * time.Hour))
}

// Overlaps reports whether two half-open ranges share at least one night.
// Abutting ranges (one's check-out equals the other's check-in) do not overlap.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

// Contains reports whether the given day falls inside the range.
func (dr DateRange) Contains(day time.Time) bool {
	day = Day(day)
	return !day.Before(dr.CheckIn) && day.Before(dr.CheckOut)
}

// Days yields every night of the stay, check-in inclusive, check-out exclusive.
func (dr DateRange) Days() []time.Time {
	days := make([]time.Time, 0, dr.Nights())
	for d := dr.CheckIn; d.Before(dr.CheckOut); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DaysUntil returns the number of whole days from now until check-in, rounded
// up so any fraction of a day still counts. Never negative.
func (dr DateRange) DaysUntil(now time.Time) int {
	diff := dr.CheckIn.Sub(now.UTC())
	if diff <= 0 {
		return 0
	}
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// Started reports whether the stay's check-in date has passed.
func (dr DateRange) Started(now time.Time) bool {
	return !Day(now).Before(dr.CheckIn)
}

// Ended reports whether the stay's check-out date has passed.
func (dr DateRange) Ended(now time.Time) bool {
	return !Day(now).Before(dr.CheckOut)
}
