package timeparse

import (
	"testing"
	"time"
)

// Exercises the production when-backed delegate against the canonical forms
// the normalizer emits. The YYYY-M-D cases matter most: when's hour-minute
// rule accepts "-" as a separator, and an unclaimed "2026-9-15" would parse
// as the clock time 9:15.
func TestWhenDelegateParse(t *testing.T) {
	t.Parallel()
	d := NewWhenDelegate()
	ref := time.Date(2026, 5, 20, 10, 0, 0, 0, time.Local)

	tests := []struct {
		name string
		text string
		want time.Time
	}{
		{name: "date only keeps ref wall clock", text: "2026-9-15", want: time.Date(2026, 9, 15, 10, 0, 0, 0, time.Local)},
		{name: "date with clock time", text: "2026-9-15 8:00", want: time.Date(2026, 9, 15, 8, 0, 0, 0, time.Local)},
		{name: "date with pm clock time", text: "2026-9-15 3:00 PM", want: time.Date(2026, 9, 15, 15, 0, 0, 0, time.Local)},
		{name: "date in another year", text: "2027-1-2 8:05", want: time.Date(2027, 1, 2, 8, 5, 0, 0, time.Local)},
		{name: "relative day with clock time", text: "tomorrow 9:00", want: time.Date(2026, 5, 21, 9, 0, 0, 0, time.Local)},
		{name: "day offset", text: "in 3 days", want: time.Date(2026, 5, 23, 10, 0, 0, 0, time.Local)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := d.Parse(tt.text, ref)
			if !ok {
				t.Fatalf("Parse(%q) not ok", tt.text)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("Parse(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestWhenDelegateRejectsNonsense(t *testing.T) {
	t.Parallel()
	d := NewWhenDelegate()
	ref := time.Date(2026, 5, 20, 10, 0, 0, 0, time.Local)

	if got, ok := d.Parse("qwerty asdf", ref); ok {
		t.Fatalf("Parse accepted nonsense, got %v", got)
	}
}

// Full pipeline through the resolver with the production delegate, covering
// the command examples the bot advertises in its help text.
func TestResolveDatePhrasesWithWhenDelegate(t *testing.T) {
	t.Parallel()
	r := NewResolver(NewWhenDelegate())
	ref := time.Date(2026, 5, 20, 10, 0, 0, 0, time.Local)

	tests := []struct {
		name   string
		phrase string
		want   time.Time
	}{
		{name: "short date with morning clock", phrase: "9/15 8 o'clock", want: time.Date(2026, 9, 15, 8, 0, 0, 0, time.Local)},
		{name: "short date with afternoon clock", phrase: "9/15 afternoon 3 o'clock", want: time.Date(2026, 9, 15, 15, 0, 0, 0, time.Local)},
		{name: "full date with morning clock", phrase: "2026/9/15 8 o'clock", want: time.Date(2026, 9, 15, 8, 0, 0, 0, time.Local)},
		{name: "relative day control", phrase: "tomorrow 9:00", want: time.Date(2026, 5, 21, 9, 0, 0, 0, time.Local)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			spec, err := r.Resolve(tt.phrase, ref)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.phrase, err)
			}
			if spec.Kind != Once {
				t.Fatalf("Resolve(%q) kind = %v, want Once", tt.phrase, spec.Kind)
			}
			if !spec.At.Equal(tt.want) {
				t.Fatalf("Resolve(%q) = %v, want %v", tt.phrase, spec.At, tt.want)
			}
		})
	}
}
