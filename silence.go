package main

import "time"

const (
	tickInterval     = 100 * time.Millisecond
	silenceWarnAfter = 8 * time.Second
	speechMinRatio   = 0.10
	speechClearRatio = 0.25 // higher threshold to clear warning (hysteresis)
)

type SilenceEvent int

const (
	SilenceNone      SilenceEvent = iota
	SilenceWarn                   // no voice detected
	SilenceWarnClear              // speech resumed after warning
)

// silenceMonitor watches per-tick speech flags during a recording and
// raises a warning when the microphone looks dead. Lectures have long
// quiet stretches, so it only warns; it never stops the recording.
type silenceMonitor struct {
	windowSz int
	window   []bool
	ticks    int
	warned   bool
}

func newSilenceMonitor() *silenceMonitor {
	windowSz := int(silenceWarnAfter / tickInterval)
	return &silenceMonitor{
		windowSz: windowSz,
		window:   make([]bool, windowSz),
	}
}

func (m *silenceMonitor) ratio() float64 {
	n := m.ticks
	if n > m.windowSz {
		n = m.windowSz
	}
	if n == 0 {
		return 1.0
	}
	count := 0
	for i := 0; i < n; i++ {
		if m.window[i] {
			count++
		}
	}
	return float64(count) / float64(n)
}

func (m *silenceMonitor) Tick(hasSpeech bool) SilenceEvent {
	m.window[m.ticks%m.windowSz] = hasSpeech
	m.ticks++

	r := m.ratio()

	// Warn: 8s window below threshold
	if !m.warned && m.ticks >= m.windowSz && r < speechMinRatio {
		m.warned = true
		return SilenceWarn
	}
	// Clear: speech ratio above clear threshold
	if m.warned && r >= speechClearRatio {
		m.warned = false
		return SilenceWarnClear
	}

	return SilenceNone
}
