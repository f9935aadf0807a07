package timeparse

import (
	"regexp"
	"strconv"
	"time"
)

// RecurrenceMatch is a recognized recurring rule.
// Kind is Weekly or Monthly; the matching variant field is populated.
type RecurrenceMatch struct {
	Kind    Kind
	Weekday time.Weekday // Weekly: Sunday=0 .. Saturday=6
	Day     int          // Monthly: 1..31
}

var (
	reEveryWeekday = regexp.MustCompile(`(?i)\bevery\s+(?:week\s+|wk\s+)?(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)

	reEveryMonthDay = regexp.MustCompile(`(?i)\bevery\s+month\s+(?:on\s+the\s+)?(\d{1,2})\s*(?:st|nd|rd|th|day)?\b`)
)

// DetectRecurrence pattern-matches phrases denoting a recurring weekday or
// day-of-month rule. It is independent of Normalize and has priority over it:
// any phrase it matches never reaches the generic parse path.
//
// A day of month outside 1..31 is treated as no match; the phrase then falls
// through to generic resolution (which will likely also fail, and that is
// fine).
func DetectRecurrence(phrase string) (RecurrenceMatch, bool) {
	if m := reEveryWeekday.FindStringSubmatch(phrase); m != nil {
		wd, ok := WeekdayIndex(m[1])
		if ok {
			return RecurrenceMatch{Kind: Weekly, Weekday: wd}, true
		}
	}

	if m := reEveryMonthDay.FindStringSubmatch(phrase); m != nil {
		day, err := strconv.Atoi(m[1])
		if err == nil && day >= 1 && day <= 31 {
			return RecurrenceMatch{Kind: Monthly, Day: day}, true
		}
	}

	return RecurrenceMatch{}, false
}
