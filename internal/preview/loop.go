// Package preview drives a live capture source through a host session and
// hands displayable frames to a sink.
package preview

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"frame-transform/internal/io"
	"frame-transform/internal/marshal"
	"frame-transform/internal/session"
)

// ErrSourceClosed is returned by Run when the source stops producing frames.
var ErrSourceClosed = errors.New("capture source closed")

// Source yields raw BGR, BGRA or gray frames. *gocv.VideoCapture satisfies it.
type Source interface {
	Read(m *gocv.Mat) bool
}

// Sink receives each processed frame with the session's statistics.
type Sink func(frame image.Image, stats session.Stats)

// Loop pulls frames from a source one at a time, so a session never has
// more than one frame in flight.
type Loop struct {
	registry      *session.Registry
	handle        session.Handle
	source        Source
	logger        logrus.FieldLogger
	statsInterval time.Duration
}

func NewLoop(registry *session.Registry, handle session.Handle, source Source, logger logrus.FieldLogger, statsInterval time.Duration) *Loop {
	return &Loop{
		registry:      registry,
		handle:        handle,
		source:        source,
		logger:        logger,
		statsInterval: statsInterval,
	}
}

// Run processes frames until ctx is cancelled or the source closes. Dropped
// frames are logged and skipped.
func (l *Loop) Run(ctx context.Context, sink Sink) error {
	frame := gocv.NewMat()
	defer frame.Close()

	lastReport := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !l.source.Read(&frame) {
			return ErrSourceClosed
		}
		if frame.Empty() {
			continue
		}

		img, err := l.Step(frame)
		if err != nil {
			if errors.Is(err, session.ErrNullHandle) {
				return err
			}
			l.logger.WithError(err).Warn("Dropped frame")
			continue
		}

		stats, err := l.registry.Stats(l.handle)
		if err != nil {
			return err
		}
		sink(img, stats)

		if l.statsInterval > 0 && time.Since(lastReport) >= l.statsInterval {
			lastReport = time.Now()
			l.logger.WithFields(logrus.Fields{
				"mode":             stats.Mode,
				"fps":              stats.FPS,
				"frames_processed": stats.FramesProcessed,
				"frames_dropped":   stats.FramesDropped,
				"drop_rate":        stats.DropRate(),
			}).Info("Session statistics")
		}
	}
}

// Step runs one captured frame through the session
func (l *Loop) Step(frame gocv.Mat) (image.Image, error) {
	bgra, err := io.FrameFromMat(frame)
	if err != nil {
		return nil, err
	}

	pixels, err := marshal.Unwrap(bgra)
	if err != nil {
		return nil, err
	}

	out, err := l.registry.ProcessFrame(l.handle, pixels, bgra.Width, bgra.Height)
	if err != nil {
		return nil, err
	}

	view := marshal.Wrap(marshal.SliceBuffer(out), bgra.Width, bgra.Height)
	defer view.Release()
	return io.ToImage(view.Image)
}
