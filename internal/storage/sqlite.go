//go:build sqlite
// +build sqlite

package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	logx "remindbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Create(ctx context.Context, destination string, at time.Time, message string) (string, error) {
	if s == nil || s.db == nil {
		return "", ErrDisabled
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders(id, destination, at, message) VALUES(?,?,?,?)`,
		id, destination, at.Format(time.RFC3339Nano), message,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *sqliteStore) Delete(ctx context.Context, destination string, at time.Time) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	// Absent rows are not an error.
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE destination = ? AND at = ?`,
		destination, at.Format(time.RFC3339Nano),
	)
	return err
}

func (s *sqliteStore) List(ctx context.Context) ([]Reminder, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, destination, at, message FROM reminders ORDER BY at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		var r Reminder
		var at string
		if err := rows.Scan(&r.ID, &r.Destination, &at, &r.Message); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			s.log.Warn("skipping reminder row with bad timestamp", logx.String("id", r.ID), logx.String("at", at))
			continue
		}
		r.At = t
		out = append(out, r)
	}
	return out, rows.Err()
}
