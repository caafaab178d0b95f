// Package interval decides whether whole-day date ranges conflict.
package interval

import (
	"time"

	"github.com/erazemk/izposoja/internal/model"
)

// Day normalizes a time to midnight UTC so that time-of-day never
// affects range comparisons.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether the inclusive whole-day ranges [s1, e1] and
// [s2, e2] share at least one day.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	s1, e1 = Day(s1), Day(e1)
	s2, e2 = Day(s2), Day(e2)
	return !(e1.Before(s2) || s1.After(e2))
}

// Available reports whether an item with the given bookings can accept a
// booking for the candidate range [start, end].
func Available(bookings []model.BookingRef, start, end time.Time) bool {
	for _, b := range bookings {
		if Overlaps(b.StartDate, b.EndDate, start, end) {
			return false
		}
	}
	return true
}
