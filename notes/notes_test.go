package notes

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAppendFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "class_notes.txt")
	l := NewLog(path)

	at := time.Date(2024, 3, 14, 9, 26, 53, 0, time.Local)
	if err := l.Append("Summary: hello", at); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "\n--- Summary from 2024-03-14 09:26:53 ---\nSummary: hello\n"
	if string(data) != want {
		t.Errorf("file contents = %q, want %q", data, want)
	}
}

func TestAppendPreservesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "class_notes.txt")
	prior := "old notes that must survive\n"
	if err := os.WriteFile(path, []byte(prior), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLog(path)
	if err := l.Append("first", time.Now()); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Append("second", time.Now()); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, prior) {
		t.Error("existing notes were not preserved at the top of the file")
	}
	first := strings.Index(content, "first")
	second := strings.Index(content, "second")
	if first == -1 || second == -1 || second < first {
		t.Errorf("entries missing or out of order:\n%s", content)
	}
	if got := strings.Count(content, "--- Summary from "); got != 2 {
		t.Errorf("found %d dividers, want 2", got)
	}
}

func TestAppendCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "class_notes.txt")
	l := NewLog(path)

	if err := l.Append("text", time.Now()); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("notes file not created: %v", err)
	}
}

func TestAppendWriteError(t *testing.T) {
	// Parent path is a file, so opening <file>/notes.txt must fail.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLog(filepath.Join(blocker, "class_notes.txt"))
	err := l.Append("text", time.Now())

	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("Append = %v, want *WriteError", err)
	}
	if werr.Unwrap() == nil {
		t.Error("WriteError should wrap the underlying error")
	}
}
