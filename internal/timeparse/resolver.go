package timeparse

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnparsable is returned when neither the recurrence detector nor the
// generic delegate can make sense of a phrase.
var ErrUnparsable = errors.New("unparsable time phrase")

// Delegate is the generic natural-language date parser the resolver falls
// back to for non-recurring phrases. It receives normalized text.
type Delegate interface {
	Parse(text string, ref time.Time) (time.Time, bool)
}

// Resolver turns free-text time phrases into Specs. It is pure orchestration:
// recurrence detection first, then normalization + delegate parse. Every
// caller that needs a Spec goes through here.
type Resolver struct {
	delegate Delegate
}

func NewResolver(d Delegate) *Resolver {
	return &Resolver{delegate: d}
}

// Resolve parses phrase relative to ref.
func (r *Resolver) Resolve(phrase string, ref time.Time) (Spec, error) {
	if m, ok := DetectRecurrence(phrase); ok {
		switch m.Kind {
		case Weekly:
			return Spec{
				Kind:    Weekly,
				Weekday: m.Weekday,
				Label:   "every " + WeekdayName(m.Weekday),
			}, nil
		case Monthly:
			return Spec{
				Kind:  Monthly,
				Day:   m.Day,
				Label: "every month on the " + ordinal(m.Day),
			}, nil
		}
	}

	if r.delegate == nil {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnparsable, phrase)
	}

	at, ok := r.delegate.Parse(Normalize(phrase, ref), ref)
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnparsable, phrase)
	}

	return Spec{Kind: Once, At: at, Label: formatOnce(at, ref)}, nil
}

// formatOnce renders an absolute fire time for confirmation replies:
// month/day (year only when it differs from ref's), weekday name, and
// 24-hour clock with zero-padded minutes. E.g. "9/15 (Tuesday) 15:04".
func formatOnce(at, ref time.Time) string {
	date := fmt.Sprintf("%d/%d", int(at.Month()), at.Day())
	if at.Year() != ref.Year() {
		date = fmt.Sprintf("%d/%s", at.Year(), date)
	}
	return fmt.Sprintf("%s (%s) %d:%02d", date, WeekdayName(at.Weekday()), at.Hour(), at.Minute())
}
