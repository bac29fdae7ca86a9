package game

import (
	"math"
	"sync"

	"github.com/faiface/beep"
)

// visualTap passes audio through to the speaker and keeps the most recent
// samples in a ring so the render loop can measure the soundtrack level.
// Stream runs on the speaker goroutine, everything else on the game loop.
type visualTap struct {
	Source    beep.Streamer
	buffer    [][2]float64
	nextIndex int
	mu        sync.RWMutex
}

func newVisualTap(src beep.Streamer, ringSize int) *visualTap {
	return &visualTap{
		Source: src,
		buffer: make([][2]float64, ringSize),
	}
}

func (t *visualTap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.Source.Stream(samples)
	if n == 0 {
		return n, ok
	}
	t.mu.Lock()
	for _, s := range samples[:n] {
		t.buffer[t.nextIndex] = s
		t.nextIndex = (t.nextIndex + 1) % len(t.buffer)
	}
	t.mu.Unlock()
	return n, ok
}

func (t *visualTap) Err() error { return t.Source.Err() }

// snapshot copies up to the last n samples, oldest first.
func (t *visualTap) snapshot(n int) [][2]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n = min(n, len(t.buffer))
	out := make([][2]float64, n)
	start := t.nextIndex - n
	if start < 0 {
		start += len(t.buffer)
	}
	for i := range out {
		out[i] = t.buffer[(start+i)%len(t.buffer)]
	}
	return out
}

// level is the compressed mono RMS of the last n samples, roughly in [0,1].
func (t *visualTap) level(n int) float64 {
	return compressedRMS(t.snapshot(n))
}

func compressedRMS(samples [][2]float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSquares float64
	for _, s := range samples {
		mono := (s[0] + s[1]) * 0.5
		sumSquares += mono * mono
	}
	rms := math.Sqrt(sumSquares / float64(len(samples)))
	return math.Pow(rms, 0.3)
}
