package recorder

import (
	"math"
	"sync"
)

// speechRMS is the RMS level above which a chunk counts as speech,
// about -40 dBFS.
const speechRMS = 0.01

// speechTickRatio is the fraction of chunks since the last poll that
// must be above speechRMS for the interval to count as speaking.
const speechTickRatio = 0.1

// levelMeter tracks capture loudness from the audio callback.
type levelMeter struct {
	mu         sync.Mutex
	level      float64 // RMS of the most recent chunk
	chunks     int
	loudChunks int
	lastChunks int
	lastLoud   int
}

func (m *levelMeter) add(samples []float32) {
	if len(samples) == 0 {
		return
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))

	m.mu.Lock()
	m.level = rms
	m.chunks++
	if rms >= speechRMS {
		m.loudChunks++
	}
	m.mu.Unlock()
}

// Level reports the RMS of the most recent chunk.
func (m *levelMeter) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// SpeechTick reports whether enough of the chunks delivered since the
// previous call were above the speech threshold.
func (m *levelMeter) SpeechTick() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	chunks := m.chunks - m.lastChunks
	loud := m.loudChunks - m.lastLoud
	m.lastChunks, m.lastLoud = m.chunks, m.loudChunks
	if chunks == 0 {
		return false
	}
	return float64(loud)/float64(chunks) >= speechTickRatio
}
