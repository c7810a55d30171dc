// Package workhours computes chargeable leave hours under a fixed weekly
// calendar: Monday to Friday, 08:00-12:00 and 13:00-17:00.
//
// The walk advances in whole-hour steps from start, so the result is a
// coarse integer approximation; partial hours are not modeled and no
// holiday calendar is consulted.
package workhours

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("workhours: end must be after start")

const (
	morningStart   = 8
	lunchStart     = 12
	afternoonStart = 13
	dayEnd         = 17

	// DayStartHour and DayEndHour bound a full working day.
	DayStartHour = morningStart
	DayEndHour   = dayEnd
)

// Compute returns the number of working hours between start and end.
func Compute(start, end time.Time) (int, error) {
	if !start.Before(end) {
		return 0, ErrInvalidRange
	}

	hours := 0
	for t := start; t.Before(end); t = t.Add(time.Hour) {
		if IsWorkingHour(t) {
			hours++
		}
	}
	return hours, nil
}

// IsWorkingHour reports whether the hour starting at t is chargeable.
func IsWorkingHour(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	h := t.Hour()
	return (h >= morningStart && h < lunchStart) || (h >= afternoonStart && h < dayEnd)
}

// FullDay returns the working-day bounds of the calendar date of day.
func FullDay(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	loc := day.Location()
	return time.Date(y, m, d, DayStartHour, 0, 0, 0, loc),
		time.Date(y, m, d, DayEndHour, 0, 0, 0, loc)
}
