// Package notes maintains the running class-notes file. Summaries are
// only ever appended, each under a timestamped divider, so earlier notes
// are never rewritten.
package notes

import (
	"fmt"
	"os"
	"time"
)

const entryTimeFormat = "2006-01-02 15:04:05"

// WriteError wraps any filesystem failure while appending to the notes
// file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string { return fmt.Sprintf("append to %s: %v", e.Path, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// Log appends summary entries to a single notes file.
type Log struct {
	path string
}

func NewLog(path string) *Log {
	return &Log{path: path}
}

func (l *Log) Path() string { return l.path }

// Append writes one summary block:
//
//	\n--- Summary from <timestamp> ---\n<text>\n
//
// The file is created on first use and opened in append mode, so an
// interrupted run can never truncate earlier entries.
func (l *Log) Append(text string, at time.Time) error {
	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &WriteError{Path: l.path, Err: err}
	}

	entry := fmt.Sprintf("\n--- Summary from %s ---\n%s\n", at.Format(entryTimeFormat), text)
	if _, err := file.WriteString(entry); err != nil {
		file.Close()
		return &WriteError{Path: l.path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &WriteError{Path: l.path, Err: err}
	}
	return nil
}
