package timeparse

import (
	"errors"
	"testing"
	"time"
)

type fakeDelegate struct {
	calls    int
	lastText string
	at       time.Time
	ok       bool
}

func (f *fakeDelegate) Parse(text string, ref time.Time) (time.Time, bool) {
	f.calls++
	f.lastText = text
	return f.at, f.ok
}

func TestResolveRecurringSkipsDelegate(t *testing.T) {
	t.Parallel()
	d := &fakeDelegate{ok: true, at: time.Now()}
	r := NewResolver(d)
	ref := time.Date(2026, 5, 20, 10, 0, 0, 0, time.Local)

	phrases := []string{"every Monday", "every week Tuesday", "every month on the 5th"}
	for _, p := range phrases {
		spec, err := r.Resolve(p, ref)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", p, err)
		}
		if !spec.Recurring() {
			t.Fatalf("Resolve(%q) kind = %v, want recurring", p, spec.Kind)
		}
	}
	if d.calls != 0 {
		t.Fatalf("delegate invoked %d times for recurring phrases, want 0", d.calls)
	}
}

func TestResolveRecurringSpecs(t *testing.T) {
	t.Parallel()
	r := NewResolver(&fakeDelegate{})
	ref := time.Date(2026, 5, 20, 10, 0, 0, 0, time.Local)

	spec, err := r.Resolve("every Monday", ref)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if spec.Kind != Weekly || spec.Weekday != time.Monday {
		t.Fatalf("unexpected weekly spec: %+v", spec)
	}
	if spec.Label != "every Monday" {
		t.Fatalf("Label = %q, want %q", spec.Label, "every Monday")
	}

	spec, err = r.Resolve("every month on the 1st", ref)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if spec.Kind != Monthly || spec.Day != 1 {
		t.Fatalf("unexpected monthly spec: %+v", spec)
	}
	if spec.Label != "every month on the 1st" {
		t.Fatalf("Label = %q, want %q", spec.Label, "every month on the 1st")
	}
}

func TestResolveOnce(t *testing.T) {
	t.Parallel()
	ref := time.Date(2026, 5, 20, 10, 0, 0, 0, time.Local)
	at := time.Date(2026, 9, 15, 15, 4, 0, 0, time.Local)
	d := &fakeDelegate{at: at, ok: true}
	r := NewResolver(d)

	spec, err := r.Resolve("tomorrow nine o'clock", ref)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if spec.Kind != Once || !spec.At.Equal(at) {
		t.Fatalf("unexpected once spec: %+v", spec)
	}
	// The delegate must see normalized text, never the raw phrase.
	if d.lastText != "tomorrow 9:00" {
		t.Fatalf("delegate text = %q, want %q", d.lastText, "tomorrow 9:00")
	}
	if spec.Label != "9/15 (Tuesday) 15:04" {
		t.Fatalf("Label = %q, want %q", spec.Label, "9/15 (Tuesday) 15:04")
	}
}

func TestResolveOnceLabelIncludesOtherYear(t *testing.T) {
	t.Parallel()
	ref := time.Date(2026, 5, 20, 10, 0, 0, 0, time.Local)
	at := time.Date(2027, 1, 2, 8, 5, 0, 0, time.Local)
	r := NewResolver(&fakeDelegate{at: at, ok: true})

	spec, err := r.Resolve("2027/1/2 8 o'clock 5", ref)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if spec.Label != "2027/1/2 (Saturday) 8:05" {
		t.Fatalf("Label = %q, want %q", spec.Label, "2027/1/2 (Saturday) 8:05")
	}
}

func TestResolveUnparsable(t *testing.T) {
	t.Parallel()
	r := NewResolver(&fakeDelegate{ok: false})
	_, err := r.Resolve("asdf qwerty", time.Now())
	if !errors.Is(err, ErrUnparsable) {
		t.Fatalf("err = %v, want ErrUnparsable", err)
	}
}
