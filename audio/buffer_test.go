package audio

import (
	"testing"
	"time"
)

func TestBufferAppendCopies(t *testing.T) {
	b := NewBuffer(44100, 1)
	src := []float32{0.1, 0.2, 0.3}
	b.Append(src)
	src[0] = 9

	if got := b.Chunk(0)[0]; got != 0.1 {
		t.Errorf("chunk aliased caller slice: got %v, want 0.1", got)
	}
}

func TestBufferCounts(t *testing.T) {
	b := NewBuffer(44100, 1)
	b.Append(make([]float32, 1024))
	b.Append(make([]float32, 512))
	b.Append(make([]float32, 100))

	if got := b.ChunkCount(); got != 3 {
		t.Errorf("ChunkCount = %d, want 3", got)
	}
	if got := b.SampleCount(); got != 1636 {
		t.Errorf("SampleCount = %d, want 1636", got)
	}
	if got := b.FrameCount(); got != 1636 {
		t.Errorf("FrameCount = %d, want 1636", got)
	}
}

func TestBufferStereoFrames(t *testing.T) {
	b := NewBuffer(48000, 2)
	b.Append(make([]float32, 4))

	if got := b.FrameCount(); got != 2 {
		t.Errorf("FrameCount = %d, want 2", got)
	}
}

func TestBufferEmpty(t *testing.T) {
	b := NewBuffer(44100, 1)

	if got := b.SampleCount(); got != 0 {
		t.Errorf("SampleCount = %d, want 0", got)
	}
	if got := b.Duration(); got != 0 {
		t.Errorf("Duration = %v, want 0", got)
	}
	if got := len(b.Samples()); got != 0 {
		t.Errorf("len(Samples) = %d, want 0", got)
	}
}

func TestBufferIgnoresEmptyChunks(t *testing.T) {
	b := NewBuffer(44100, 1)
	b.Append(nil)
	b.Append([]float32{})

	if got := b.ChunkCount(); got != 0 {
		t.Errorf("ChunkCount = %d, want 0", got)
	}
}

func TestBufferDuration(t *testing.T) {
	b := NewBuffer(44100, 1)
	b.Append(make([]float32, 44100))

	if got := b.Duration(); got != time.Second {
		t.Errorf("Duration = %v, want 1s", got)
	}

	b.Append(make([]float32, 22050))
	if got := b.Duration(); got != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", got)
	}
}

func TestBufferSamplesOrder(t *testing.T) {
	b := NewBuffer(44100, 1)
	b.Append([]float32{1, 2})
	b.Append([]float32{3})

	got := b.Samples()
	want := []float32{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("len(Samples) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Samples[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
