package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/en"
)

// WhenDelegate is the production Delegate, built on the when library's
// English rules.
//
// The plain YYYY-M-D form the normalizer emits for calendar dates is claimed
// here, before when ever sees the text: when's English hour-minute rule
// accepts "-" as a separator, so it would read the "9-15" inside "2026-9-15"
// as the clock time 9:15 and override the real time token.
type WhenDelegate struct {
	p *when.Parser
}

func NewWhenDelegate() *WhenDelegate {
	p := when.New(nil)
	p.Add(en.All...)
	return &WhenDelegate{p: p}
}

func (d *WhenDelegate) Parse(text string, ref time.Time) (time.Time, bool) {
	year, month, day, rest, found := splitCalendarDate(text)
	if !found {
		r, err := d.p.Parse(text, ref)
		if err != nil || r == nil {
			return time.Time{}, false
		}
		return r.Time, true
	}

	// Anchor the remainder parse at the claimed date; a date with no time
	// token keeps ref's wall clock, matching the relative-day phrases.
	anchor := time.Date(year, time.Month(month), day,
		ref.Hour(), ref.Minute(), ref.Second(), 0, ref.Location())
	if rest == "" {
		return anchor, true
	}
	r, err := d.p.Parse(rest, anchor)
	if err != nil || r == nil {
		return anchor, true
	}
	return r.Time, true
}

var reCalendarDate = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)

// splitCalendarDate extracts a YYYY-M-D token and returns the surrounding
// text with the token removed.
func splitCalendarDate(text string) (year, month, day int, rest string, found bool) {
	m := reCalendarDate.FindStringSubmatchIndex(text)
	if m == nil {
		return 0, 0, 0, "", false
	}
	year, _ = strconv.Atoi(text[m[2]:m[3]])
	month, _ = strconv.Atoi(text[m[4]:m[5]])
	day, _ = strconv.Atoi(text[m[6]:m[7]])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, 0, "", false
	}
	rest = strings.Join(strings.Fields(text[:m[0]]+" "+text[m[1]:]), " ")
	return year, month, day, rest, true
}
