// Package recorder turns a capture device into a single-use recording
// session with a guarded state machine. A session goes Idle -> Recording
// -> Stopped; Stopped is terminal and a new session is created for each
// recording.
package recorder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"lectern/audio"
)

type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrAlreadyRecording = errors.New("recording already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
	ErrSessionFinished  = errors.New("session already finished")
)

// CaptureError wraps a device failure during Start. The session stays
// Idle so the caller may retry.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string { return fmt.Sprintf("capture: %v", e.Err) }
func (e *CaptureError) Unwrap() error { return e.Err }

type Session struct {
	ctx    audio.Context
	device *audio.DeviceInfo
	config audio.CaptureConfig

	mu        sync.Mutex
	state     State
	capture   audio.CaptureDevice
	startedAt time.Time
	stoppedAt time.Time

	// bufMu serializes the device callback against Stop. stopped flips
	// after the producer join, so late chunks are dropped rather than
	// appended to a buffer the caller already owns.
	bufMu   sync.Mutex
	buf     *audio.Buffer
	stopped bool

	meter levelMeter
}

func NewSession(ctx audio.Context, device *audio.DeviceInfo, config audio.CaptureConfig) *Session {
	return &Session{ctx: ctx, device: device, config: config}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start opens the capture device and begins accumulating chunks. It
// returns ErrAlreadyRecording while Recording, ErrSessionFinished once
// Stopped, and *CaptureError when the device cannot be opened or
// started; after a CaptureError the session remains Idle.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateRecording:
		return ErrAlreadyRecording
	case StateStopped:
		return ErrSessionFinished
	}

	capture, err := s.ctx.NewCapture(s.device, s.config)
	if err != nil {
		return &CaptureError{Err: err}
	}

	s.bufMu.Lock()
	s.buf = audio.NewBuffer(s.config.SampleRate, s.config.Channels)
	s.stopped = false
	s.bufMu.Unlock()

	capture.SetCallback(s.onChunk)
	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		return &CaptureError{Err: err}
	}

	s.capture = capture
	s.state = StateRecording
	s.startedAt = time.Now()
	return nil
}

func (s *Session) onChunk(samples []float32) {
	s.meter.add(samples)

	s.bufMu.Lock()
	if !s.stopped && s.buf != nil {
		s.buf.Append(samples)
	}
	s.bufMu.Unlock()
}

// Level reports the RMS loudness of the most recent chunk.
func (s *Session) Level() float64 { return s.meter.Level() }

// SpeechTick reports whether speech-level audio arrived since the
// previous call. Poll it at a fixed interval to drive silence warnings.
func (s *Session) SpeechTick() bool { return s.meter.SpeechTick() }

// Stop halts capture and returns the accumulated buffer. It blocks until
// the device producer has exited, so the buffer cannot grow after Stop
// returns. Calling Stop in any state other than Recording returns
// ErrNotRecording.
func (s *Session) Stop() (*audio.Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return nil, ErrNotRecording
	}

	s.capture.Stop()
	s.capture.ClearCallback()
	s.capture.Close()

	s.bufMu.Lock()
	s.stopped = true
	buf := s.buf
	s.bufMu.Unlock()

	s.capture = nil
	s.state = StateStopped
	s.stoppedAt = time.Now()
	return buf, nil
}

// StartedAt reports when recording began; zero until Start succeeds.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// Elapsed reports how long the session has been recording, frozen once
// Stopped.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateRecording:
		return time.Since(s.startedAt)
	case StateStopped:
		return s.stoppedAt.Sub(s.startedAt)
	default:
		return 0
	}
}

// DeviceName reports the active capture device while Recording.
func (s *Session) DeviceName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capture == nil {
		return ""
	}
	return s.capture.DeviceName()
}
