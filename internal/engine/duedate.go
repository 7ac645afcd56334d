package engine

import (
	"time"

	"github.com/theirongolddev/obligo/internal/model"
)

// DefaultWindowDays is how far ahead an obligation or account must fall to need attention.
const DefaultWindowDays = 15

// Today returns t's calendar date, which is how callers should pin "today" before
// aggregating.
func Today(t time.Time) model.Date {
	return model.DateOf(t)
}

// DaysRemaining counts calendar days from today to target. Negative means target has
// passed, zero means it is today. ok is false when target is absent.
func DaysRemaining(target model.Date, today time.Time) (days int, ok bool) {
	if target.IsZero() {
		return 0, false
	}
	return daysBetween(Today(today), target), true
}

// daysBetween works on UTC midnights, so every day is exactly 24h long.
func daysBetween(from, to model.Date) int {
	return int(to.Time().Sub(from.Time()).Hours() / 24)
}
