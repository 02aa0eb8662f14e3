package session

import (
	"sync"
	"time"
)

// DefaultFPSWindow is how often the frame rate estimate is refreshed.
const DefaultFPSWindow = time.Second

// FPSMonitor counts frames and publishes a frame rate once per window.
type FPSMonitor struct {
	mu     sync.Mutex
	now    func() time.Time
	window time.Duration
	start  time.Time
	count  uint64
	fps    float64
}

// NewFPSMonitor creates a monitor. A nil clock means time.Now.
func NewFPSMonitor(window time.Duration, now func() time.Time) *FPSMonitor {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = DefaultFPSWindow
	}
	return &FPSMonitor{
		now:    now,
		window: window,
		start:  now(),
	}
}

// RecordFrame counts one completed frame
func (m *FPSMonitor) RecordFrame() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.count++
	m.roll(m.now())
}

// FPS returns the rate measured over the last complete window
func (m *FPSMonitor) FPS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roll(m.now())
	return m.fps
}

func (m *FPSMonitor) roll(now time.Time) {
	elapsed := now.Sub(m.start)
	if elapsed < m.window {
		return
	}
	m.fps = float64(m.count) / elapsed.Seconds()
	m.count = 0
	m.start = now
}
