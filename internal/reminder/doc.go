// Package reminder implements the reminder schedule engine.
//
// # Overview
//
// The engine owns a registry of reminder jobs. A job is created from a
// resolved time spec plus a message: one-off jobs fire a single deferred
// trigger, recurring (weekly/monthly) jobs fire on a cron entry until they
// reach their occurrence bound and retire. Each job mirrors a record in the
// reminder store: created on registration, deleted on retirement.
//
// # Concurrency
//
// Every job owns its own mutex, counter, and status; triggers for different
// jobs fire concurrently. Within one job, fires are strictly ordered and
// non-overlapping: the job mutex is held for the whole fire, including
// terminal cleanup. Cancellation is best-effort with respect to an in-flight
// fire; it only suppresses future fires.
//
// # Delivery semantics
//
// Delivery is at-most-once per occurrence: a failed notifier call is logged
// and counting proceeds, so a missed delivery never stalls or repeats the
// schedule.
package reminder
