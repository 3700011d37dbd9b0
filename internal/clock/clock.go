// Package clock provides the time source and the day arithmetic used to
// decide how close an item is to its expiry date.
package clock

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the calendar date layout used for expiry dates.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// Real returns the actual system time.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

// Fixed always returns T.
type Fixed struct {
	T time.Time
}

func (c Fixed) Now() time.Time {
	return c.T
}

// DaysUntil returns the ceiling of (target - reference) in whole days.
// The result is negative when target is in the past.
func DaysUntil(reference, target time.Time) int {
	days := math.Ceil(target.Sub(reference).Hours() / day.Hours())
	if days == 0 {
		// avoid -0 leaking into formatted output
		return 0
	}
	return int(days)
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// DaysLeft returns the days remaining from reference until the expiry date.
// ok is false when the expiry date cannot be parsed.
func DaysLeft(reference time.Time, expiry string) (days int, ok bool) {
	target, err := ParseDate(expiry)
	if err != nil {
		return 0, false
	}
	return DaysUntil(reference, target), true
}
