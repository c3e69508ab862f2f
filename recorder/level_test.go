package recorder

import (
	"math"
	"testing"

	"lectern/audio"
)

func loudChunk(n int, amp float32) []float32 {
	chunk := make([]float32, n)
	for i := range chunk {
		chunk[i] = amp
	}
	return chunk
}

func TestLevelMeterRMS(t *testing.T) {
	var m levelMeter
	m.add(loudChunk(512, 0.1))

	if got := m.Level(); math.Abs(got-0.1) > 1e-6 {
		t.Errorf("Level() = %v, want 0.1", got)
	}

	m.add(make([]float32, 512))
	if got := m.Level(); got != 0 {
		t.Errorf("Level() after silent chunk = %v, want 0", got)
	}
}

func TestLevelMeterIgnoresEmptyChunk(t *testing.T) {
	var m levelMeter
	m.add(loudChunk(512, 0.1))
	m.add(nil)

	if got := m.Level(); math.Abs(got-0.1) > 1e-6 {
		t.Errorf("Level() = %v, want 0.1", got)
	}
}

func TestSpeechTick(t *testing.T) {
	var m levelMeter

	// No chunks yet
	if m.SpeechTick() {
		t.Error("SpeechTick() with no chunks = true, want false")
	}

	// All loud
	for i := 0; i < 10; i++ {
		m.add(loudChunk(512, 0.05))
	}
	if !m.SpeechTick() {
		t.Error("SpeechTick() after loud chunks = false, want true")
	}

	// Nothing since last poll
	if m.SpeechTick() {
		t.Error("SpeechTick() with no new chunks = true, want false")
	}

	// All silent
	for i := 0; i < 10; i++ {
		m.add(make([]float32, 512))
	}
	if m.SpeechTick() {
		t.Error("SpeechTick() after silent chunks = true, want false")
	}

	// One loud chunk in ten meets the ratio
	m.add(loudChunk(512, 0.05))
	for i := 0; i < 9; i++ {
		m.add(make([]float32, 512))
	}
	if !m.SpeechTick() {
		t.Error("SpeechTick() at exactly the ratio = false, want true")
	}
}

func TestSessionLevelFromCapture(t *testing.T) {
	ctx := &audio.FakeContext{
		Script: [][]float32{loudChunk(512, 0.2)},
	}
	sess := NewSession(ctx, nil, audio.CaptureConfig{SampleRate: 44100, Channels: 1})
	if err := sess.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	<-ctx.Last.Fed()

	if got := sess.Level(); math.Abs(got-0.2) > 1e-6 {
		t.Errorf("Level() = %v, want 0.2", got)
	}
	if !sess.SpeechTick() {
		t.Error("SpeechTick() = false, want true")
	}

	if _, err := sess.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
}
