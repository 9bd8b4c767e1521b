package logbook

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestTailReturnsRecentLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journey.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	t.Cleanup(func() { _ = book.Close() })
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines := book.Tail(3)
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestLevelsAndFieldsAreWritten(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "logs", "journey.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	t.Cleanup(func() { _ = book.Close() })
	book.Warn("lookup slow")
	book.LogError("dupcheck", "lookup", "BSF1--", errors.New("store offline"))
	lines := book.Tail(10)
	if len(lines) != 2 {
		t.Fatalf("lines = %v", lines)
	}
	if !strings.Contains(lines[0], "level=warning") || !strings.Contains(lines[0], "lookup slow") {
		t.Fatalf("warn line = %q", lines[0])
	}
	for _, want := range []string{"level=error", "component=dupcheck", "op=lookup", "store offline"} {
		if !strings.Contains(lines[1], want) {
			t.Fatalf("error line %q missing %q", lines[1], want)
		}
	}
}

func TestNilLogbookIsSafe(t *testing.T) {
	var book *Logbook
	book.Info("ignored")
	if book.Tail(5) != nil || book.Path() != "" {
		t.Fatalf("nil logbook should be inert")
	}
	if err := book.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
