package domain

import "time"

// DateOnly truncates t to a pure calendar date at UTC midnight. All membership
// date math goes through this so time-of-day and timezone never influence a
// result.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths returns the calendar date months after d, preserving the
// day-of-month when the target month has it and otherwise clamping to the last
// valid day (Jan 31 + 1 month = Feb 28, or Feb 29 in a leap year).
//
// Zero months returns the same date. months must be non-negative.
func AddMonths(d time.Time, months int) time.Time {
	d = DateOnly(d)
	if months == 0 {
		return d
	}
	y, m, day := d.Date()
	// Normalize the target month first with day 1, then clamp. Go's AddDate
	// would roll Feb 30 into March, which is exactly the overflow we avoid.
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := lastDayOfMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func lastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
