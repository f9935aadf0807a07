package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "remindbot/pkg/logx"
)

// Store is the reminder persistence API.
//
// Delete is idempotent on absence: deleting a record that does not exist is
// not an error.
type Store interface {
	Create(ctx context.Context, destination string, at time.Time, message string) (string, error)
	Delete(ctx context.Context, destination string, at time.Time) error
	List(ctx context.Context) ([]Reminder, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
