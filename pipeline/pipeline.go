// Package pipeline chains the post-recording steps: transcribe the saved
// file, summarize the transcript, append the summary to the notes log.
// Each step runs only if the previous one produced something; a failed
// transcription ends the run without touching the API or the notes file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lectern/log"
	"lectern/summarizer"
	"lectern/traced"
	"lectern/transcriber"
	"lectern/wav"
)

// ErrNoTranscript means the recording produced no usable text, either
// because the transcription call failed or because it came back empty.
var ErrNoTranscript = errors.New("no transcript produced")

type Summarizer interface {
	Summarize(ctx context.Context, text string) (*summarizer.Summary, error)
}

type NotesLog interface {
	Append(text string, at time.Time) error
}

type Result struct {
	Recording  *wav.RecordedFile
	Transcript string
	Summary    *summarizer.Summary
}

type Pipeline struct {
	transcriber transcriber.Transcriber
	summarizer  Summarizer
	notes       NotesLog
}

func New(t transcriber.Transcriber, s Summarizer, n NotesLog) *Pipeline {
	return &Pipeline{transcriber: t, summarizer: s, notes: n}
}

// Run processes one recording end to end. The returned error preserves
// the failing step's type, so callers can distinguish a rejected API key
// from a full disk.
func (p *Pipeline) Run(ctx context.Context, rec *wav.RecordedFile) (*Result, error) {
	start := time.Now()

	tr, err := p.transcriber.Transcribe(ctx, rec.Path)
	if err != nil {
		log.Errorf("transcription failed for %s: %v", rec.Path, err)
		return nil, fmt.Errorf("%w: %v", ErrNoTranscript, err)
	}
	transcribeDone := time.Now()

	text := strings.TrimSpace(tr.Text)
	if text == "" {
		log.Warnf("empty transcript for %s", rec.Path)
		return nil, ErrNoTranscript
	}
	log.TranscriptText(text)
	if tr.Metrics != nil {
		log.Request("transcribe", requestTiming(tr.Metrics, 200))
	}

	sum, err := p.summarizer.Summarize(ctx, text)
	if err != nil {
		log.Errorf("summarization failed: %v", err)
		return nil, fmt.Errorf("summarize: %w", err)
	}
	summarizeDone := time.Now()
	if sum.Metrics != nil {
		log.Request("summarize", requestTiming(sum.Metrics, 200))
	}

	at := sum.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	if err := p.notes.Append(sum.Text, at); err != nil {
		log.Errorf("saving summary failed: %v", err)
		return nil, fmt.Errorf("save summary: %w", err)
	}
	notesDone := time.Now()

	log.Pipeline(p.transcriber.Name(), log.PipelineMetrics{
		AudioSeconds:    rec.Duration().Seconds(),
		TranscribeMs:    ms(transcribeDone.Sub(start)),
		SummarizeMs:     ms(summarizeDone.Sub(transcribeDone)),
		NotesMs:         ms(notesDone.Sub(summarizeDone)),
		TotalMs:         ms(notesDone.Sub(start)),
		TranscriptChars: len(text),
		SummaryChars:    len(sum.Text),
	})

	return &Result{Recording: rec, Transcript: text, Summary: sum}, nil
}

// RunFile processes an existing WAV file from disk.
func (p *Pipeline) RunFile(ctx context.Context, path string) (*Result, error) {
	info, err := wav.Info(path)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, info)
}

func ms(d time.Duration) float64 { return d.Seconds() * 1000 }

func requestTiming(m *traced.Metrics, status int) log.RequestTiming {
	return log.RequestTiming{
		DNSMs:      ms(m.DNS),
		ConnectMs:  ms(m.TCP),
		TLSMs:      ms(m.TLS),
		TTFBMs:     ms(m.TTFB),
		TotalMs:    ms(m.Total),
		ConnReused: m.ConnReused,
		TLSProto:   m.TLSProtocol,
		Status:     status,
	}
}
