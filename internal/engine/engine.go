// Package engine dispatches frames to the filter kernel selected by the
// current processing mode.
//
// An Engine is not safe for concurrent Process calls: the edge detector's
// scratch buffers are shared between frames without locking. SetMode may be
// called from any goroutine.
package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"frame-transform/internal/core"
	"frame-transform/internal/kernels"
)

// Engine owns the current mode and the kernels of one session
type Engine struct {
	mode    atomic.Int32
	closed  atomic.Bool
	kernels *kernels.Registry
	logger  logrus.FieldLogger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger; the logrus standard logger is used otherwise.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMode sets the initial mode
func WithMode(mode core.Mode) Option {
	return func(e *Engine) {
		e.mode.Store(int32(mode))
	}
}

// New creates an engine in grayscale mode
func New(opts ...Option) *Engine {
	e := &Engine{
		kernels: kernels.NewRegistry(),
		logger:  logrus.StandardLogger(),
	}
	e.mode.Store(int32(core.DefaultMode))

	for _, opt := range opts {
		opt(e)
	}

	e.logger.WithField("mode", e.Mode()).Info("Frame engine created")
	return e
}

// SetMode replaces the current mode. It takes effect on the next Process call.
func (e *Engine) SetMode(mode core.Mode) {
	old := core.Mode(e.mode.Swap(int32(mode)))
	e.logger.WithFields(logrus.Fields{
		"old_mode": old,
		"new_mode": mode,
	}).Info("Processing mode changed")
}

// Mode returns the current mode
func (e *Engine) Mode() core.Mode {
	return core.Mode(e.mode.Load())
}

// Process filters one frame. The result always has the input's width and
// height and four channels. Input pixels are never modified.
func (e *Engine) Process(input core.Image) (core.Image, error) {
	if input.Empty() {
		e.logger.WithFields(logrus.Fields{
			"width":  input.Width,
			"height": input.Height,
		}).Warn("Rejecting empty frame")
		return core.Image{}, ErrEmptyInput
	}

	if e.closed.Load() {
		return core.Image{}, ErrClosed
	}

	mode := e.Mode()
	kernel := e.kernels.Get(mode)

	output, err := e.apply(kernel, mode, input)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"mode":     mode,
			"kernel":   kernel.Name(),
			"width":    input.Width,
			"height":   input.Height,
			"channels": input.Channels,
			"error":    err,
		}).Error("Frame processing failed")
		return core.Image{}, err
	}

	e.logger.WithFields(logrus.Fields{
		"mode":   mode,
		"width":  output.Width,
		"height": output.Height,
	}).Debug("Frame processed")

	return output, nil
}

// apply is the only place kernel failures, including panics raised inside
// OpenCV bindings, are turned into a *KernelError.
func (e *Engine) apply(kernel kernels.Kernel, mode core.Mode, input core.Image) (result core.Image, err error) {
	fail := func(cause error) *KernelError {
		return &KernelError{Mode: mode, Kernel: kernel.Name(), Err: cause}
	}

	defer func() {
		if r := recover(); r != nil {
			result = core.Image{}
			err = fail(fmt.Errorf("panic: %v", r))
		}
	}()

	view, err := input.Mat()
	if err != nil {
		return core.Image{}, fail(err)
	}
	defer view.Close()

	output, err := kernel.Apply(view)
	if err != nil {
		output.Close()
		return core.Image{}, fail(err)
	}
	defer output.Close()

	if output.Rows() != input.Height || output.Cols() != input.Width {
		return core.Image{}, fail(fmt.Errorf("kernel produced %dx%d for %dx%d input",
			output.Cols(), output.Rows(), input.Width, input.Height))
	}

	if output.Channels() == 4 {
		return core.FromMat(output), nil
	}

	expanded, err := kernels.ExpandBGRA(output)
	if err != nil {
		return core.Image{}, fail(err)
	}
	defer expanded.Close()

	return core.FromMat(expanded), nil
}

// Close releases the scratch buffers. Further Process calls fail with ErrClosed.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.logger.Info("Frame engine destroyed")
	return e.kernels.Close()
}
