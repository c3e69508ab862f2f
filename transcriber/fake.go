package transcriber

import (
	"context"
	"sync"
)

// Fake returns a canned transcript (or error) and records the paths it
// was asked to transcribe.
type Fake struct {
	Text string
	Err  error

	mu    sync.Mutex
	calls []string
}

func NewFake(text string, err error) *Fake {
	return &Fake{Text: text, Err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Transcribe(_ context.Context, path string) (*Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	return &Result{Text: f.Text}, nil
}

func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
