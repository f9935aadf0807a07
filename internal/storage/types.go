package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (jsonl journal + snapshot)
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Reminder is a persisted reminder record.
// Keep it compact and schema-stable.
type Reminder struct {
	ID          string    `json:"id"`
	Destination string    `json:"destination"`
	At          time.Time `json:"at"`
	Message     string    `json:"message"`
}
