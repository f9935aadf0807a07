package reminder

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"remindbot/internal/timeparse"
	"remindbot/pkg/logx"
)

type job struct {
	id          string
	destination string
	message     string
	spec        timeparse.Spec
	max         int
	// anchor is the persisted key time: the trigger time for one-off jobs,
	// the registration time for recurring ones.
	anchor time.Time

	mu          sync.Mutex
	status      Status
	occurrences int
	timer       *time.Timer
	entryID     cron.EntryID
}

// Engine schedules reminder jobs and drives their delivery.
type Engine struct {
	log      logx.Logger
	store    Store
	notifier Notifier
	cron     *cron.Cron

	mu      sync.Mutex
	jobs    map[string]*job
	stopped bool

	now func() time.Time
}

// New builds an engine. The notifier is required; a nil store disables
// persistence and the engine runs in memory only.
func New(store Store, notifier Notifier, log logx.Logger) *Engine {
	if log.IsZero() {
		log = logx.Nop()
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &Engine{
		log:      log,
		store:    store,
		notifier: notifier,
		cron:     cron.New(cron.WithParser(parser), cron.WithLocation(time.Local)),
		jobs:     make(map[string]*job),
		now:      time.Now,
	}
}

// Start begins running recurring schedules. One-off timers arm on Register
// and do not need Start.
func (e *Engine) Start() {
	e.cron.Start()
	e.log.Debug("reminder engine started")
}

// Stop suppresses all future fires and waits for in-flight ones, up to the
// context deadline.
func (e *Engine) Stop(ctx context.Context) {
	e.mu.Lock()
	e.stopped = true
	jobs := make([]*job, 0, len(e.jobs))
	for _, j := range e.jobs {
		jobs = append(jobs, j)
	}
	e.mu.Unlock()

	for _, j := range jobs {
		j.mu.Lock()
		if j.status == StatusActive && j.timer != nil {
			j.timer.Stop()
		}
		j.mu.Unlock()
	}

	done := e.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		e.log.Warn("reminder engine stop timed out", logx.Err(ctx.Err()))
	}
	e.log.Debug("reminder engine stopped")
}

// Register persists a reminder record and schedules the job. The handle is
// returned even when persistence fails, together with the wrapped store
// error; the job still runs in memory so the reminder is not silently lost.
func (e *Engine) Register(ctx context.Context, destination, message string, spec timeparse.Spec, policy Policy) (string, error) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return "", ErrStopped
	}
	e.mu.Unlock()

	now := e.now()
	recurring := spec.Recurring() && policy.MaxOccurrences > 0

	anchor := spec.At
	if spec.Recurring() {
		// Recurring jobs key their store record, and their time of day, on
		// the registration timestamp.
		anchor = now
	}

	j := &job{
		id:          uuid.NewString(),
		destination: destination,
		message:     message,
		spec:        spec,
		max:         policy.MaxOccurrences,
		anchor:      anchor,
		status:      StatusActive,
	}

	var persistErr error
	if e.store != nil {
		if _, err := e.store.Create(ctx, destination, anchor, message); err != nil {
			persistErr = fmt.Errorf("persist reminder: %w", err)
			e.log.Error("reminder record create failed, scheduling in memory only",
				logx.String("job", j.id), logx.Err(err))
		}
	}

	if recurring {
		entryID, err := e.cron.AddFunc(cronSpec(spec, anchor), func() { e.fireRecurring(j) })
		if err != nil {
			return "", fmt.Errorf("schedule %s reminder: %w", j.spec.Kind, err)
		}
		j.entryID = entryID
	} else {
		e.armOnce(j, now)
	}

	e.mu.Lock()
	e.jobs[j.id] = j
	e.mu.Unlock()

	e.log.Debug("reminder registered",
		logx.String("job", j.id),
		logx.String("kind", j.spec.Kind.String()),
		logx.String("destination", destination))
	return j.id, persistErr
}

// Restore schedules a previously persisted one-off reminder without writing
// a new store record. Used when replaying the store on startup.
func (e *Engine) Restore(destination string, at time.Time, message string) (string, error) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return "", ErrStopped
	}
	e.mu.Unlock()

	j := &job{
		id:          uuid.NewString(),
		destination: destination,
		message:     message,
		spec:        timeparse.Spec{Kind: timeparse.Once, At: at},
		anchor:      at,
		status:      StatusActive,
	}
	e.armOnce(j, e.now())

	e.mu.Lock()
	e.jobs[j.id] = j
	e.mu.Unlock()

	e.log.Debug("reminder restored", logx.String("job", j.id), logx.Time("at", at))
	return j.id, nil
}

// Cancel retires an active job without notifying or touching the store.
// The caller owns any store cleanup for cancelled reminders.
func (e *Engine) Cancel(id string) error {
	e.mu.Lock()
	j, ok := e.jobs[id]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusActive {
		return fmt.Errorf("%w: %s is %s", ErrNotActive, id, j.status)
	}
	if j.timer != nil {
		j.timer.Stop()
	}
	if j.entryID != 0 {
		e.cron.Remove(j.entryID)
	}
	j.status = StatusCancelled
	e.log.Debug("reminder cancelled", logx.String("job", id))
	return nil
}

// Job returns a snapshot of a registered job.
func (e *Engine) Job(id string) (JobInfo, bool) {
	e.mu.Lock()
	j, ok := e.jobs[id]
	e.mu.Unlock()
	if !ok {
		return JobInfo{}, false
	}
	return e.snapshot(j), true
}

// Jobs returns snapshots of every registered job, ordered by handle.
func (e *Engine) Jobs() []JobInfo {
	e.mu.Lock()
	jobs := make([]*job, 0, len(e.jobs))
	for _, j := range e.jobs {
		jobs = append(jobs, j)
	}
	e.mu.Unlock()

	out := make([]JobInfo, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, e.snapshot(j))
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

func (e *Engine) snapshot(j *job) JobInfo {
	j.mu.Lock()
	defer j.mu.Unlock()
	info := JobInfo{
		ID:          j.id,
		Destination: j.destination,
		Message:     j.message,
		Spec:        j.spec,
		Occurrences: j.occurrences,
		Status:      j.status,
	}
	if j.status == StatusActive {
		if j.entryID != 0 {
			info.NextRun = e.cron.Entry(j.entryID).Next
		} else {
			info.NextRun = j.anchor
		}
	}
	return info
}

func (e *Engine) armOnce(j *job, now time.Time) {
	delay := j.anchor.Sub(now)
	if delay < 0 {
		delay = 0
	}
	j.timer = time.AfterFunc(delay, func() { e.fireOnce(j) })
}

func (e *Engine) fireOnce(j *job) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusActive {
		return
	}
	ctx := context.Background()
	e.deliver(ctx, j, "Reminder: "+j.message)
	e.retire(ctx, j)
}

func (e *Engine) fireRecurring(j *job) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusActive {
		return
	}
	ctx := context.Background()
	j.occurrences++
	e.deliver(ctx, j, fmt.Sprintf("Occurrence %d of %s reminder: %s", j.occurrences, j.spec.Kind, j.message))
	if j.occurrences < j.max {
		return
	}
	e.deliver(ctx, j, fmt.Sprintf("Completed %d occurrences; re-register to continue", j.max))
	e.cron.Remove(j.entryID)
	e.retire(ctx, j)
}

// deliver sends one notification. Failures are logged, never retried here:
// occurrence counting must not stall on a flaky transport.
func (e *Engine) deliver(ctx context.Context, j *job, text string) {
	if err := e.notifier.Send(ctx, j.destination, text); err != nil {
		e.log.Error("reminder delivery failed",
			logx.String("job", j.id),
			logx.String("destination", j.destination),
			logx.Err(err))
	}
}

// retire marks the job completed and drops its store record. Callers hold
// the job mutex.
func (e *Engine) retire(ctx context.Context, j *job) {
	if e.store != nil {
		if err := e.store.Delete(ctx, j.destination, j.anchor); err != nil {
			e.log.Error("reminder record delete failed",
				logx.String("job", j.id), logx.Err(err))
		}
	}
	j.status = StatusCompleted
}

// cronSpec renders a seconds-resolution cron expression with the time of day
// taken from the anchor wall clock.
func cronSpec(spec timeparse.Spec, anchor time.Time) string {
	switch spec.Kind {
	case timeparse.Monthly:
		return fmt.Sprintf("%d %d %d %d * *", anchor.Second(), anchor.Minute(), anchor.Hour(), spec.Day)
	default:
		return fmt.Sprintf("%d %d %d * * %d", anchor.Second(), anchor.Minute(), anchor.Hour(), int(spec.Weekday))
	}
}
