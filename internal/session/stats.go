package session

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"frame-transform/internal/core"
	"frame-transform/internal/engine"
	"frame-transform/internal/marshal"
)

// Stats is a point-in-time snapshot of a session's counters.
type Stats struct {
	SessionID          string
	Mode               core.Mode
	CreatedAt          time.Time
	FramesProcessed    uint64
	FramesDropped      uint64
	EmptyInputs        uint64
	KernelFailures     uint64
	AllocationFailures uint64
	SizeMismatches     uint64
	LastError          string
	LastFrameDuration  time.Duration
	FPS                float64
}

// DropRate returns dropped frames as a fraction of all submitted frames
func (s Stats) DropRate() float64 {
	total := s.FramesProcessed + s.FramesDropped
	if total == 0 {
		return 0
	}
	return float64(s.FramesDropped) / float64(total)
}

type statsRecorder struct {
	processed    atomic.Uint64
	dropped      atomic.Uint64
	emptyInputs  atomic.Uint64
	kernelFails  atomic.Uint64
	allocFails   atomic.Uint64
	sizeMismatch atomic.Uint64
	lastError    atomic.String
	lastDuration atomic.Duration
	fps          *FPSMonitor
}

func newStatsRecorder(now func() time.Time) *statsRecorder {
	return &statsRecorder{fps: NewFPSMonitor(DefaultFPSWindow, now)}
}

func (r *statsRecorder) recordFrame(d time.Duration) {
	r.processed.Inc()
	r.lastDuration.Store(d)
	r.fps.RecordFrame()
}

func (r *statsRecorder) recordDrop(err error) {
	r.dropped.Inc()
	r.lastError.Store(err.Error())

	switch {
	case errors.Is(err, engine.ErrEmptyInput):
		r.emptyInputs.Inc()
	case errors.Is(err, engine.ErrKernelFailure):
		r.kernelFails.Inc()
	case errors.Is(err, marshal.ErrAllocation):
		r.allocFails.Inc()
	case errors.Is(err, ErrSizeMismatch):
		r.sizeMismatch.Inc()
	}
}

func (r *statsRecorder) snapshot() Stats {
	return Stats{
		FramesProcessed:    r.processed.Load(),
		FramesDropped:      r.dropped.Load(),
		EmptyInputs:        r.emptyInputs.Load(),
		KernelFailures:     r.kernelFails.Load(),
		AllocationFailures: r.allocFails.Load(),
		SizeMismatches:     r.sizeMismatch.Load(),
		LastError:          r.lastError.Load(),
		LastFrameDuration:  r.lastDuration.Load(),
		FPS:                r.fps.FPS(),
	}
}
