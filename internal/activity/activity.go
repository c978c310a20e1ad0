package activity

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
)

// Actions recorded in the audit trail.
const (
	ActionCreate  = "create"
	ActionEdit    = "edit"
	ActionImport  = "import"
	ActionBackup  = "backup"
	ActionRestore = "restore"
	ActionVerify  = "verify"
)

const timestampLayout = time.RFC3339

// Entry is one line of the append-only activity log.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Action    string         `json:"action"`
	Source    string         `json:"source"`
	ISBN      string         `json:"isbn,omitempty"`
	Title     string         `json:"title,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Time parses the entry timestamp, returning the zero time when malformed.
func (e Entry) Time() time.Time {
	ts, err := time.Parse(timestampLayout, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Log appends JSON lines to a shared file, serialized across processes via
// a sidecar lock so concurrent writers never interleave partial lines.
type Log struct {
	path string
	lock *flock.Flock
	now  func() time.Time
}

// New returns a log writing to path. The file is created on first append.
func New(path string) *Log {
	return &Log{
		path: path,
		lock: flock.New(path + ".lock"),
		now:  time.Now,
	}
}

// Path reports the backing file location.
func (l *Log) Path() string {
	return l.path
}

// Append records an entry. The timestamp is stamped here; callers supply
// the action, source, and subject fields.
func (l *Log) Append(entry Entry) error {
	entry.Timestamp = l.now().UTC().Format(timestampLayout)
	if entry.Action == "" {
		return errors.New("activity entry requires an action")
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode activity entry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create activity log directory: %w", err)
	}
	if err := l.lock.Lock(); err != nil {
		return fmt.Errorf("acquire activity lock: %w", err)
	}
	defer func() {
		_ = l.lock.Unlock()
	}()

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open activity log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write activity entry: %w", err)
	}
	return nil
}

// ReadRecent returns up to limit entries, newest first. Corrupt lines are
// skipped rather than failing the read. A limit of zero or less returns
// every entry.
func (l *Log) ReadRecent(limit int) ([]Entry, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open activity log: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read activity log: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time().After(entries[j].Time())
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
