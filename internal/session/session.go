// Package session is the host boundary: a table of opaque handles, each
// owning one frame engine, with the four-call lifecycle create, set mode,
// process frame and destroy.
//
// Handles are plain integers so they can cross any foreign call mechanism.
// Zero is the null handle. Every failure is returned as an error together
// with a nil buffer; nothing here panics on malformed per-frame input.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"frame-transform/internal/engine"
	"frame-transform/internal/marshal"
)

var (
	ErrNullHandle   = errors.New("null or destroyed session handle")
	ErrInvalidMode  = errors.New("invalid processing mode")
	ErrSizeMismatch = errors.New("pixel buffer length does not match frame size")
	ErrNullBuffer   = errors.New("null pixel buffer")
)

// Handle identifies a session across the host boundary.
type Handle uintptr

// Session is one engine plus its bookkeeping. Frames on a session are
// serialized so that destroy never races an in-flight frame.
type Session struct {
	id        uuid.UUID
	handle    Handle
	createdAt time.Time
	engine    *engine.Engine
	stats     *statsRecorder
	logger    logrus.FieldLogger

	mu     sync.Mutex
	closed bool
}

func (s *Session) process(view *marshal.View) ([]uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrNullHandle
	}

	start := time.Now()
	output, err := s.engine.Process(view.Image)
	if err != nil {
		s.stats.recordDrop(err)
		return nil, err
	}

	pixels, err := marshal.Unwrap(output)
	if err != nil {
		s.stats.recordDrop(err)
		s.logger.WithFields(logrus.Fields{
			"width":  output.Width,
			"height": output.Height,
			"error":  err,
		}).Error("Failed to create result buffer")
		return nil, err
	}

	s.stats.recordFrame(time.Since(start))
	return pixels, nil
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if err := s.engine.Close(); err != nil {
		s.logger.WithError(err).Warn("Error releasing engine resources")
	}
}

func (s *Session) snapshot() Stats {
	st := s.stats.snapshot()
	st.SessionID = s.id.String()
	st.Mode = s.engine.Mode()
	st.CreatedAt = s.createdAt
	return st
}
