package reminder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"

	"remindbot/internal/timeparse"
	"remindbot/pkg/logx"
)

type storeRec struct {
	dest string
	at   time.Time
	msg  string
}

type memStore struct {
	mu         sync.Mutex
	created    []storeRec
	deleted    []storeRec
	failCreate bool
}

func (s *memStore) Create(_ context.Context, dest string, at time.Time, msg string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return "", errors.New("disk full")
	}
	s.created = append(s.created, storeRec{dest, at, msg})
	return "rec-1", nil
}

func (s *memStore) Delete(_ context.Context, dest string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, storeRec{dest: dest, at: at})
	return nil
}

func (s *memStore) snapshot() (created, deleted []storeRec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storeRec(nil), s.created...), append([]storeRec(nil), s.deleted...)
}

type memNotifier struct {
	mu   sync.Mutex
	sent []string
	ch   chan string
}

func (n *memNotifier) Send(_ context.Context, _ string, text string) error {
	n.mu.Lock()
	n.sent = append(n.sent, text)
	n.mu.Unlock()
	if n.ch != nil {
		n.ch <- text
	}
	return nil
}

func (n *memNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

func waitText(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case text := <-ch:
		return text
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return ""
	}
}

func TestOnceFiresExactlyOnce(t *testing.T) {
	t.Parallel()
	store := &memStore{}
	notifier := &memNotifier{ch: make(chan string, 4)}
	eng := New(store, notifier, logx.Nop())

	at := time.Now().Add(20 * time.Millisecond)
	id, err := eng.Register(context.Background(), "chat:1", "stand up", timeparse.Spec{Kind: timeparse.Once, At: at}, Policy{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if got := waitText(t, notifier.ch); got != "Reminder: stand up" {
		t.Fatalf("delivery = %q", got)
	}
	time.Sleep(50 * time.Millisecond)
	if got := notifier.messages(); len(got) != 1 {
		t.Fatalf("expected a single delivery, got %v", got)
	}

	_, deleted := store.snapshot()
	if len(deleted) != 1 || !deleted[0].at.Equal(at) {
		t.Fatalf("store delete = %+v", deleted)
	}
	info, ok := eng.Job(id)
	if !ok || info.Status != StatusCompleted {
		t.Fatalf("job status = %v, ok=%v", info.Status, ok)
	}
}

func TestOnceCancelSuppressesFire(t *testing.T) {
	t.Parallel()
	store := &memStore{}
	notifier := &memNotifier{}
	eng := New(store, notifier, logx.Nop())

	at := time.Now().Add(time.Hour)
	id, err := eng.Register(context.Background(), "chat:1", "later", timeparse.Spec{Kind: timeparse.Once, At: at}, Policy{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := eng.Cancel(id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if got := notifier.messages(); len(got) != 0 {
		t.Fatalf("expected no deliveries, got %v", got)
	}
	_, deleted := store.snapshot()
	if len(deleted) != 0 {
		t.Fatalf("cancel must not touch the store, got %+v", deleted)
	}
	if err := eng.Cancel(id); !errors.Is(err, ErrNotActive) {
		t.Fatalf("second Cancel = %v, want ErrNotActive", err)
	}
	if info, _ := eng.Job(id); info.Status != StatusCancelled {
		t.Fatalf("status = %v", info.Status)
	}
}

func TestCancelUnknownJob(t *testing.T) {
	t.Parallel()
	eng := New(nil, &memNotifier{}, logx.Nop())
	if err := eng.Cancel("nope"); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("Cancel = %v, want ErrUnknownJob", err)
	}
}

func TestRecurringOccurrenceBound(t *testing.T) {
	t.Parallel()
	store := &memStore{}
	notifier := &memNotifier{}
	eng := New(store, notifier, logx.Nop())
	ref := time.Date(2026, 5, 20, 10, 0, 0, 0, time.Local)
	eng.now = func() time.Time { return ref }

	spec := timeparse.Spec{Kind: timeparse.Weekly, Weekday: time.Monday, Label: "every Monday"}
	id, err := eng.Register(context.Background(), "chat:1", "write report", spec, Policy{MaxOccurrences: 2})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	j := eng.jobs[id]

	eng.fireRecurring(j)
	eng.fireRecurring(j)
	// Retired jobs ignore late triggers.
	eng.fireRecurring(j)

	want := []string{
		"Occurrence 1 of weekly reminder: write report",
		"Occurrence 2 of weekly reminder: write report",
		"Completed 2 occurrences; re-register to continue",
	}
	got := notifier.messages()
	if len(got) != len(want) {
		t.Fatalf("deliveries = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("delivery[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	created, deleted := store.snapshot()
	if len(created) != 1 || !created[0].at.Equal(ref) {
		t.Fatalf("store create = %+v", created)
	}
	if len(deleted) != 1 || !deleted[0].at.Equal(ref) {
		t.Fatalf("store delete = %+v", deleted)
	}
	if info, _ := eng.Job(id); info.Status != StatusCompleted || info.Occurrences != 2 {
		t.Fatalf("job = %+v", info)
	}
}

func TestMonthlyFireMessage(t *testing.T) {
	t.Parallel()
	notifier := &memNotifier{}
	eng := New(nil, notifier, logx.Nop())

	spec := timeparse.Spec{Kind: timeparse.Monthly, Day: 1, Label: "every month on the 1st"}
	id, err := eng.Register(context.Background(), "chat:9", "pay rent", spec, Policy{MaxOccurrences: 1})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	eng.fireRecurring(eng.jobs[id])

	got := notifier.messages()
	if len(got) != 2 || got[0] != "Occurrence 1 of monthly reminder: pay rent" {
		t.Fatalf("deliveries = %v", got)
	}
	if !strings.HasPrefix(got[1], "Completed 1 occurrences") {
		t.Fatalf("completion = %q", got[1])
	}
}

func TestRecurringZeroBoundDegradesToOneOff(t *testing.T) {
	t.Parallel()
	notifier := &memNotifier{ch: make(chan string, 4)}
	eng := New(nil, notifier, logx.Nop())

	spec := timeparse.Spec{Kind: timeparse.Weekly, Weekday: time.Friday}
	id, err := eng.Register(context.Background(), "chat:1", "drink water", spec, Policy{MaxOccurrences: 0})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := waitText(t, notifier.ch); got != "Reminder: drink water" {
		t.Fatalf("delivery = %q", got)
	}
	time.Sleep(50 * time.Millisecond)
	if got := notifier.messages(); len(got) != 1 {
		t.Fatalf("expected one delivery, got %v", got)
	}
	if info, _ := eng.Job(id); info.Status != StatusCompleted {
		t.Fatalf("status = %v", info.Status)
	}
}

func TestRegisterPersistFailureStillSchedules(t *testing.T) {
	t.Parallel()
	store := &memStore{failCreate: true}
	notifier := &memNotifier{ch: make(chan string, 4)}
	eng := New(store, notifier, logx.Nop())

	at := time.Now().Add(10 * time.Millisecond)
	id, err := eng.Register(context.Background(), "chat:1", "ping", timeparse.Spec{Kind: timeparse.Once, At: at}, Policy{})
	if err == nil {
		t.Fatal("expected a persistence error")
	}
	if id == "" {
		t.Fatal("expected a handle despite the persistence error")
	}
	if got := waitText(t, notifier.ch); got != "Reminder: ping" {
		t.Fatalf("delivery = %q", got)
	}
}

func TestRestoreSkipsStoreCreate(t *testing.T) {
	t.Parallel()
	store := &memStore{}
	notifier := &memNotifier{ch: make(chan string, 4)}
	eng := New(store, notifier, logx.Nop())

	at := time.Now().Add(10 * time.Millisecond)
	if _, err := eng.Restore("chat:1", at, "welcome back"); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := waitText(t, notifier.ch); got != "Reminder: welcome back" {
		t.Fatalf("delivery = %q", got)
	}
	created, deleted := store.snapshot()
	if len(created) != 0 {
		t.Fatalf("restore must not create records, got %+v", created)
	}
	if len(deleted) != 1 {
		t.Fatalf("store delete = %+v", deleted)
	}
}

func TestRegisterAfterStop(t *testing.T) {
	t.Parallel()
	eng := New(nil, &memNotifier{}, logx.Nop())
	eng.Stop(context.Background())
	_, err := eng.Register(context.Background(), "chat:1", "x", timeparse.Spec{Kind: timeparse.Once, At: time.Now()}, Policy{})
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("Register = %v, want ErrStopped", err)
	}
}

func TestCronSpecNextFire(t *testing.T) {
	t.Parallel()
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	anchor := time.Date(2026, 5, 20, 10, 0, 0, 0, time.Local) // a Wednesday

	weekly := timeparse.Spec{Kind: timeparse.Weekly, Weekday: time.Monday}
	sched, err := parser.Parse(cronSpec(weekly, anchor))
	if err != nil {
		t.Fatalf("parse weekly spec: %v", err)
	}
	if got, want := sched.Next(anchor), time.Date(2026, 5, 25, 10, 0, 0, 0, time.Local); !got.Equal(want) {
		t.Fatalf("weekly next = %v, want %v", got, want)
	}

	monthly := timeparse.Spec{Kind: timeparse.Monthly, Day: 1}
	sched, err = parser.Parse(cronSpec(monthly, anchor))
	if err != nil {
		t.Fatalf("parse monthly spec: %v", err)
	}
	if got, want := sched.Next(anchor), time.Date(2026, 6, 1, 10, 0, 0, 0, time.Local); !got.Equal(want) {
		t.Fatalf("monthly next = %v, want %v", got, want)
	}
}
