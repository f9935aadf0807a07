package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	logx "remindbot/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.reminders.snapshot.json (periodic snapshot of live records)
//   - <prefix>.reminders.journal.jsonl (append-only journal of add/del ops)
//
// The journal is periodically compacted into the snapshot.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	snapshotPath string
	journalFile  *os.File

	reminders map[string]Reminder // by id

	writes int
}

type journalRecord struct {
	Op       string   `json:"op"` // "add" | "del"
	Reminder Reminder `json:"reminder"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	snapPath := prefix + ".reminders.snapshot.json"
	journalPath := prefix + ".reminders.journal.jsonl"

	// Load state from snapshot + journal.
	reminders := map[string]Reminder{}
	_ = loadSnapshot(snapPath, reminders)
	_ = replayJournal(journalPath, reminders)

	jf, err := os.OpenFile(journalPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}

	return &fileStore{
		log:          log,
		snapshotPath: snapPath,
		journalFile:  jf,
		reminders:    reminders,
	}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journalFile == nil {
		return nil
	}
	err := s.journalFile.Close()
	s.journalFile = nil
	return err
}

func (s *fileStore) Create(ctx context.Context, destination string, at time.Time, message string) (string, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journalFile == nil {
		return "", errors.New("reminder journal closed")
	}

	r := Reminder{ID: uuid.NewString(), Destination: destination, At: at, Message: message}
	if err := s.appendLocked(journalRecord{Op: "add", Reminder: r}); err != nil {
		return "", err
	}
	s.reminders[r.ID] = r
	return r.ID, nil
}

func (s *fileStore) Delete(ctx context.Context, destination string, at time.Time) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journalFile == nil {
		return errors.New("reminder journal closed")
	}

	for id, r := range s.reminders {
		if r.Destination == destination && r.At.Equal(at) {
			if err := s.appendLocked(journalRecord{Op: "del", Reminder: r}); err != nil {
				return err
			}
			delete(s.reminders, id)
		}
	}
	// Absent records are not an error.
	return nil
}

func (s *fileStore) List(ctx context.Context) ([]Reminder, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

func (s *fileStore) appendLocked(rec journalRecord) error {
	enc := json.NewEncoder(s.journalFile)
	if err := enc.Encode(rec); err != nil {
		return err
	}
	s.writes++
	if s.writes%256 == 0 {
		// Best-effort compact.
		if err := s.compactLocked(); err != nil {
			s.log.Debug("reminder compact failed", logx.Any("err", err))
		}
	}
	return nil
}

func (s *fileStore) compactLocked() error {
	tmp := s.snapshotPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(s.reminders); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.snapshotPath); err != nil {
		return err
	}
	// Truncate journal.
	if err := s.journalFile.Truncate(0); err != nil {
		return err
	}
	_, err = s.journalFile.Seek(0, 2)
	return err
}

func loadSnapshot(path string, out map[string]Reminder) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var m map[string]Reminder
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return err
	}
	for k, v := range m {
		out[k] = v
	}
	return nil
}

func replayJournal(path string, out map[string]Reminder) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec journalRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			continue
		}
		if rec.Reminder.ID == "" {
			continue
		}
		switch rec.Op {
		case "add":
			out[rec.Reminder.ID] = rec.Reminder
		case "del":
			delete(out, rec.Reminder.ID)
		}
	}
	return sc.Err()
}
