package timeparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The normalizer rewrites phrase vocabulary into the canonical form the
// generic date parser understands. It runs a fixed, ordered chain of passes
// over three buffers: tokens recognized at the front of the phrase are
// hoisted into a prefix (or, for AM/PM markers, a suffix), everything else is
// rewritten in place in the remainder.
//
// Pass order matters and each pass runs at most once: a weekday may consume
// text before the date pass ever sees it, and an AM/PM marker anywhere in the
// remainder is hoisted to a trailing AM/PM token so the delegate's clock rule
// reads it as part of the time. Do not reorder.

var (
	reDayMarker = regexp.MustCompile(`(?i)^(today|tomorrow|yesterday)\b`)

	reWeekdayPhrase = regexp.MustCompile(`(?i)^(?:(next|last)\s+)?(?:week\s+)?(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)

	reMeridiem = regexp.MustCompile(`(?i)\b(morning|afternoon|evening|tonight|night)\b`)

	reFullDate  = regexp.MustCompile(`\b(\d{4})/(\d{1,2})/(\d{1,2})\b`)
	reShortDate = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})\b`)

	reDayOffset = regexp.MustCompile(`(?i)\b(\d+)\s+days?\s+from\s+now\b`)

	reDigitClock = regexp.MustCompile(`(?i)\b(\d{1,2})\s*o'?clock(?:\s+(\d{1,2})(?:\s*minutes?)?)?\b`)

	reWordClock = regexp.MustCompile(`(?i)\b(?:(half)\s+past\s+)?(one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen)(\s+o'?clock)?\b`)
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var meridiemFor = map[string]string{
	"morning":   "AM",
	"afternoon": "PM",
	"evening":   "PM",
	"tonight":   "PM",
	"night":     "PM",
}

// Normalize rewrites a time phrase into the canonical form understood by the
// generic date parser delegate. It is a pure function of phrase and ref; ref
// only supplies the assumed year for short dates.
func Normalize(phrase string, ref time.Time) string {
	remainder := strings.TrimSpace(phrase)
	var prefix, suffix string

	// 1. Relative day marker at the start of the phrase.
	if m := reDayMarker.FindString(remainder); m != "" {
		prefix = strings.ToLower(m)
		remainder = strings.TrimSpace(remainder[len(m):])
	}

	// 2. Weekday phrase with optional next/last modifier.
	if m := reWeekdayPhrase.FindStringSubmatch(remainder); m != nil {
		if mod := strings.ToLower(m[1]); mod != "" {
			prefix += " " + mod
		}
		if wd, ok := WeekdayIndex(m[2]); ok {
			prefix += " " + WeekdayName(wd)
		}
		remainder = strings.TrimSpace(remainder[len(m[0]):])
	}

	// 3. AM/PM marker anywhere in the remainder becomes a trailing token.
	//    Dates like "9/15 afternoon 3 o'clock" carry it mid-phrase.
	if loc := reMeridiem.FindStringIndex(remainder); loc != nil {
		suffix = meridiemFor[strings.ToLower(remainder[loc[0]:loc[1]])]
		remainder = strings.Join(strings.Fields(remainder[:loc[0]]+" "+remainder[loc[1]:]), " ")
	}

	// 4. Calendar dates: 2026/9/15 -> 2026-9-15, then 9/15 -> <refYear>-9-15.
	remainder = reFullDate.ReplaceAllString(remainder, "$1-$2-$3")
	remainder = reShortDate.ReplaceAllString(remainder, fmt.Sprintf("%d-$1-$2", ref.Year()))

	// 5. Relative offsets: "3 days from now" -> "in 3 days".
	remainder = reDayOffset.ReplaceAllString(remainder, "in $1 days")

	// 6. Digit clock times: "6 o'clock" -> "6:00", "6 o'clock 15" -> "6:15".
	remainder = reDigitClock.ReplaceAllStringFunc(remainder, func(s string) string {
		m := reDigitClock.FindStringSubmatch(s)
		minute := "00"
		if m[2] != "" {
			minute = m[2]
			if len(minute) == 1 {
				minute = "0" + minute
			}
		}
		return m[1] + ":" + minute
	})

	// 7. Number-word clock times: "nine o'clock" -> "9:00",
	//    "half past nine" -> "9:30". A bare number word is left alone.
	remainder = reWordClock.ReplaceAllStringFunc(remainder, func(s string) string {
		m := reWordClock.FindStringSubmatch(s)
		half, word, oclock := m[1], strings.ToLower(m[2]), m[3]
		if half == "" && oclock == "" {
			return s
		}
		minute := "00"
		if half != "" {
			minute = "30"
		}
		return strconv.Itoa(numberWords[word]) + ":" + minute
	})

	out := prefix + " " + remainder + " " + suffix
	return strings.Join(strings.Fields(out), " ")
}
