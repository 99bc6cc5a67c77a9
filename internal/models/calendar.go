package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrMonthOutOfRange is returned for months outside 0..11.
var ErrMonthOutOfRange = errors.New("month out of range 0..11")

// ReferenceYear is the leap year used to place day indices on a calendar.
// Index 59 is Feb 29 and index 365 is Dec 31.
const ReferenceYear = 2024

var yearStart = time.Date(ReferenceYear, time.January, 1, 0, 0, 0, 0, time.UTC)

// DayDate returns the reference date of a day index.
func DayDate(day int) time.Time {
	return yearStart.AddDate(0, 0, day)
}

// DayIndex returns the index of month (0..11) and day-of-month (1-based).
func DayIndex(month, dom int) int {
	return time.Date(ReferenceYear, time.Month(month+1), dom, 0, 0, 0, 0, time.UTC).YearDay() - 1
}

// DaysInMonth returns the length of month (0..11) in the reference year.
func DaysInMonth(month int) int {
	return time.Date(ReferenceYear, time.Month(month+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRange returns the first and last day index of month (0..11).
func MonthRange(month int) (int, int, error) {
	if month < 0 || month > 11 {
		return 0, 0, fmt.Errorf("%w: %d", ErrMonthOutOfRange, month)
	}
	first := DayIndex(month, 1)
	return first, first + DaysInMonth(month) - 1, nil
}

// DayLabel formats a day index for display, e.g. "15 Mar".
func DayLabel(day int) string {
	return DayDate(day).Format("2 Jan")
}
