package reminder

import (
	"context"
	"errors"
	"time"

	"remindbot/internal/timeparse"
)

// DefaultMaxOccurrences bounds a recurring reminder when the caller does not
// pick a limit.
const DefaultMaxOccurrences = 12

var (
	// ErrUnknownJob reports a handle that is not in the registry.
	ErrUnknownJob = errors.New("unknown reminder job")
	// ErrNotActive reports an operation on a job that already retired.
	ErrNotActive = errors.New("reminder job is not active")
	// ErrStopped reports a registration after engine shutdown.
	ErrStopped = errors.New("reminder engine stopped")
)

// Notifier delivers reminder text to a destination. Implementations decide
// what a destination string means (chat id, chat id plus thread, ...).
type Notifier interface {
	Send(ctx context.Context, destination, text string) error
}

// Store mirrors live reminder jobs. Records are keyed by destination plus
// trigger time, matching the journal the engine replays on startup.
type Store interface {
	Create(ctx context.Context, destination string, at time.Time, message string) (string, error)
	Delete(ctx context.Context, destination string, at time.Time) error
}

// Status is the lifecycle state of a reminder job.
type Status int

const (
	StatusActive Status = iota
	StatusCompleted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Policy bounds a recurring reminder. It is ignored for one-off specs.
// A non-positive MaxOccurrences degrades the job to a single immediate fire.
type Policy struct {
	MaxOccurrences int
}

// JobInfo is a point-in-time snapshot of a registered job.
type JobInfo struct {
	ID          string
	Destination string
	Message     string
	Spec        timeparse.Spec
	Occurrences int
	Status      Status
	NextRun     time.Time
}
