package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"frame-transform/internal/core"
	"frame-transform/internal/engine"
	"frame-transform/internal/marshal"
)

// Registry is a goroutine-safe handle table
type Registry struct {
	mu       sync.RWMutex
	sessions map[Handle]*Session
	nextID   Handle
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewRegistry creates an empty handle table. A nil logger means the logrus
// standard logger.
func NewRegistry(logger logrus.FieldLogger) *Registry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Registry{
		sessions: make(map[Handle]*Session),
		nextID:   1,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateSession allocates an engine and returns its handle. Options are
// applied after the session's own logger so callers may override it.
func (r *Registry) CreateSession(opts ...engine.Option) Handle {
	id := uuid.New()

	r.mu.Lock()
	handle := r.nextID
	r.nextID++
	r.mu.Unlock()

	logger := r.logger.WithFields(logrus.Fields{
		"session_id": id.String(),
		"handle":     uint64(handle),
	})

	s := &Session{
		id:        id,
		handle:    handle,
		createdAt: r.now(),
		engine:    engine.New(append([]engine.Option{engine.WithLogger(logger)}, opts...)...),
		stats:     newStatsRecorder(r.now),
		logger:    logger,
	}

	r.mu.Lock()
	r.sessions[handle] = s
	r.mu.Unlock()

	logger.Info("Session created")
	return handle
}

// DestroySession releases the session. Null, unknown and already destroyed
// handles are ignored.
func (r *Registry) DestroySession(h Handle) {
	r.mu.Lock()
	s, ok := r.sessions[h]
	delete(r.sessions, h)
	r.mu.Unlock()

	if !ok {
		return
	}

	s.close()
	s.logger.WithFields(logrus.Fields{
		"frames_processed": s.stats.processed.Load(),
		"frames_dropped":   s.stats.dropped.Load(),
	}).Info("Session destroyed")
}

// SetMode switches the session's filter. Values outside 0..3 leave the mode
// unchanged, are logged and return ErrInvalidMode.
func (r *Registry) SetMode(h Handle, value int) error {
	s, ok := r.lookup(h)
	if !ok {
		r.logger.WithField("handle", uint64(h)).Error("SetMode on null session")
		return ErrNullHandle
	}

	mode, err := core.ModeFromInt(value)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"value":        value,
			"current_mode": s.engine.Mode(),
		}).Warn("Ignoring invalid processing mode")
		return errors.Wrapf(ErrInvalidMode, "value %d", value)
	}

	s.engine.SetMode(mode)
	return nil
}

// Mode returns the session's current mode
func (r *Registry) Mode(h Handle) (core.Mode, error) {
	s, ok := r.lookup(h)
	if !ok {
		return core.DefaultMode, ErrNullHandle
	}
	return s.engine.Mode(), nil
}

// ProcessFrame filters one frame of width*height packed pixels and returns a
// newly allocated buffer, or nil and an error.
func (r *Registry) ProcessFrame(h Handle, pixels []uint32, width, height int) ([]uint32, error) {
	return r.ProcessBuffer(h, marshal.SliceBuffer(pixels), width, height)
}

// ProcessBuffer is ProcessFrame for host-managed memory. buf is released
// before returning on every path.
func (r *Registry) ProcessBuffer(h Handle, buf marshal.HostBuffer, width, height int) ([]uint32, error) {
	view := marshal.Wrap(buf, width, height)
	defer view.Release()

	s, ok := r.lookup(h)
	if !ok {
		r.logger.WithField("handle", uint64(h)).Error("Processor is null")
		return nil, ErrNullHandle
	}

	if buf == nil {
		s.stats.recordDrop(ErrNullBuffer)
		s.logger.Error("Failed to get input buffer")
		return nil, ErrNullBuffer
	}

	if n := len(buf.Pixels()); !view.Image.Empty() && n != width*height {
		err := errors.Wrapf(ErrSizeMismatch, "got %d pixels for %dx%d", n, width, height)
		s.stats.recordDrop(err)
		s.logger.WithError(err).Warn("Rejecting frame")
		return nil, err
	}

	return s.process(view)
}

// Stats returns a snapshot of the session's counters
func (r *Registry) Stats(h Handle) (Stats, error) {
	s, ok := r.lookup(h)
	if !ok {
		return Stats{}, ErrNullHandle
	}
	return s.snapshot(), nil
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close destroys every live session
func (r *Registry) Close() {
	r.mu.RLock()
	handles := make([]Handle, 0, len(r.sessions))
	for h := range r.sessions {
		handles = append(handles, h)
	}
	r.mu.RUnlock()

	for _, h := range handles {
		r.DestroySession(h)
	}
}

func (r *Registry) lookup(h Handle) (*Session, bool) {
	if h == 0 {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[h]
	return s, ok
}
