package audio

import "time"

// Buffer accumulates captured chunks in arrival order. It is not
// goroutine-safe; the recorder serializes access between the device
// callback and the caller.
type Buffer struct {
	sampleRate int
	channels   int
	chunks     [][]float32
	samples    int
}

func NewBuffer(sampleRate, channels int) *Buffer {
	return &Buffer{sampleRate: sampleRate, channels: channels}
}

// Append copies the chunk into the buffer. The callback's slice may be
// backed by driver memory that is reused after the callback returns.
func (b *Buffer) Append(samples []float32) {
	if len(samples) == 0 {
		return
	}
	chunk := make([]float32, len(samples))
	copy(chunk, samples)
	b.chunks = append(b.chunks, chunk)
	b.samples += len(chunk)
}

func (b *Buffer) SampleRate() int { return b.sampleRate }
func (b *Buffer) Channels() int   { return b.channels }

// SampleCount is the total number of samples across all chunks.
func (b *Buffer) SampleCount() int { return b.samples }

// FrameCount is SampleCount divided by the channel count.
func (b *Buffer) FrameCount() int {
	if b.channels == 0 {
		return 0
	}
	return b.samples / b.channels
}

func (b *Buffer) ChunkCount() int { return len(b.chunks) }

// Chunk returns the i-th captured chunk. The returned slice is owned by
// the buffer and must not be modified.
func (b *Buffer) Chunk(i int) []float32 { return b.chunks[i] }

func (b *Buffer) Duration() time.Duration {
	if b.sampleRate == 0 {
		return 0
	}
	return time.Duration(b.FrameCount()) * time.Second / time.Duration(b.sampleRate)
}

// Samples flattens all chunks into one contiguous slice.
func (b *Buffer) Samples() []float32 {
	out := make([]float32, 0, b.samples)
	for _, c := range b.chunks {
		out = append(out, c...)
	}
	return out
}
