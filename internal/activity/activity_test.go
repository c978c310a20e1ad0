package activity

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "activity.log"))
}

func TestAppendAndReadRecent(t *testing.T) {
	log := newTestLog(t)

	base := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.UTC)
	clock := base
	log.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	for _, isbn := range []string{"1", "2", "3"} {
		err := log.Append(Entry{Action: ActionEdit, Source: "test", ISBN: isbn})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	entries, err := log.ReadRecent(2)
	if err != nil {
		t.Fatalf("ReadRecent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ISBN != "3" || entries[1].ISBN != "2" {
		t.Fatalf("expected newest first, got %q then %q", entries[0].ISBN, entries[1].ISBN)
	}
	if entries[0].Time().IsZero() {
		t.Fatal("expected parseable timestamp")
	}
}

func TestAppendRequiresAction(t *testing.T) {
	log := newTestLog(t)
	if err := log.Append(Entry{Source: "test"}); err == nil {
		t.Fatal("expected error for entry without action")
	}
}

func TestReadRecentMissingFile(t *testing.T) {
	log := newTestLog(t)
	entries, err := log.ReadRecent(10)
	if err != nil {
		t.Fatalf("ReadRecent failed: %v", err)
	}
	if entries != nil {
		t.Fatalf("expected no entries, got %v", entries)
	}
}

func TestReadRecentSkipsCorruptLines(t *testing.T) {
	log := newTestLog(t)
	if err := log.Append(Entry{Action: ActionCreate, Source: "test", ISBN: "9780060125639"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	file, err := os.OpenFile(log.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	if _, err := file.WriteString("{not json\n"); err != nil {
		t.Fatalf("write corrupt line: %v", err)
	}
	file.Close()

	entries, err := log.ReadRecent(0)
	if err != nil {
		t.Fatalf("ReadRecent failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ISBN != "9780060125639" {
		t.Fatalf("expected corrupt line skipped, got %v", entries)
	}
}

func TestConcurrentAppendsStayLineAtomic(t *testing.T) {
	log := newTestLog(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry := Entry{
				Action:  ActionVerify,
				Source:  "test",
				Details: map[string]any{"fields_updated": []string{"title", "authors"}},
			}
			if err := log.Append(entry); err != nil {
				t.Errorf("Append failed: %v", err)
			}
		}()
	}
	wg.Wait()

	entries, err := log.ReadRecent(0)
	if err != nil {
		t.Fatalf("ReadRecent failed: %v", err)
	}
	if len(entries) != 8 {
		t.Fatalf("expected 8 intact entries, got %d", len(entries))
	}
}
