package timeparse

import (
	"fmt"
	"strings"
	"time"
)

// Kind discriminates the Spec variants.
type Kind int

const (
	Once Kind = iota
	Weekly
	Monthly
)

func (k Kind) String() string {
	switch k {
	case Once:
		return "once"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	default:
		return "unknown"
	}
}

// Spec is a resolved, unambiguous description of when a reminder should fire.
// Exactly one variant is populated, selected by Kind:
//
//   - Once: At holds the absolute fire time.
//   - Weekly: Weekday holds the recurring weekday (Sunday=0).
//   - Monthly: Day holds the recurring day of month (1..31).
//
// The recurring variants carry no time of day; the schedule engine anchors
// them to the wall-clock time of registration.
type Spec struct {
	Kind    Kind
	At      time.Time
	Weekday time.Weekday
	Day     int

	// Label is a human-readable rendering for confirmation replies,
	// e.g. "every Monday" or "9/15 (Tuesday) 15:04".
	Label string
}

// Recurring reports whether the spec describes a weekly or monthly rule.
func (s Spec) Recurring() bool { return s.Kind == Weekly || s.Kind == Monthly }

var weekdayNames = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// WeekdayName returns the canonical name for a weekday index.
func WeekdayName(d time.Weekday) string { return weekdayNames[int(d)%7] }

// WeekdayIndex maps a canonical weekday name (any case) to its index.
func WeekdayIndex(name string) (time.Weekday, bool) {
	for i, n := range weekdayNames {
		if strings.EqualFold(n, name) {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// ordinal renders 1 -> "1st", 2 -> "2nd", 11 -> "11th", ...
func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
		// 11th, 12th, 13th
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
