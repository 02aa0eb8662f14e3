package engine

import (
	"fmt"

	"github.com/pkg/errors"

	"frame-transform/internal/core"
)

var (
	// ErrEmptyInput is returned for zero-area frames; no kernel runs.
	ErrEmptyInput = errors.New("empty input image")
	// ErrKernelFailure matches every *KernelError.
	ErrKernelFailure = errors.New("kernel failure")
	// ErrClosed is returned by Process after Close.
	ErrClosed = errors.New("engine closed")
)

// KernelError carries the diagnostic of a failed filter operation
type KernelError struct {
	Mode   core.Mode
	Kernel string
	Err    error
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("%s kernel failed: %v", e.Kernel, e.Err)
}

func (e *KernelError) Unwrap() error {
	return e.Err
}

func (e *KernelError) Is(target error) bool {
	return target == ErrKernelFailure
}
