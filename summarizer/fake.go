package summarizer

import (
	"context"
	"sync"
	"time"
)

// Fake returns a canned summary (or error) and records the transcripts it
// was asked to summarize.
type Fake struct {
	Text string
	Err  error

	mu    sync.Mutex
	calls []string
}

func NewFake(text string, err error) *Fake {
	return &Fake{Text: text, Err: err}
}

func (f *Fake) Summarize(_ context.Context, text string) (*Summary, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	return &Summary{Text: f.Text, Model: "fake", CreatedAt: time.Now()}, nil
}

func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
