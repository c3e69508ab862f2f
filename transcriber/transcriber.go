// Package transcriber sends recorded audio files to a speech-to-text API
// and returns the transcript. A failed or empty transcription yields no
// text; deciding what that means is left to the caller.
package transcriber

import (
	"context"

	"lectern/traced"
)

type Result struct {
	Text      string
	Duration  float64 // seconds of audio, as reported by the API
	RateLimit string  // "remaining/limit" or empty
	Metrics   *traced.Metrics
}

type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, path string) (*Result, error)
}
