// Per-frame filter kernels backed by OpenCV
package kernels

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"frame-transform/internal/core"
)

// Kernel is a single filter. Apply never takes ownership of input; the
// returned Mat belongs to the caller.
type Kernel interface {
	Apply(input gocv.Mat) (gocv.Mat, error)
	Name() string
	Close() error
}

// Registry maps each mode to its kernel. A registry owns the scratch
// buffers of its kernels, so it must not be shared between engines.
type Registry struct {
	kernels map[core.Mode]Kernel
}

// NewRegistry builds the four standard kernels
func NewRegistry() *Registry {
	r := &Registry{kernels: make(map[core.Mode]Kernel)}
	r.Register(core.ModeGrayscale, NewGrayscale())
	r.Register(core.ModeEdgeDetect, NewEdgeDetect())
	r.Register(core.ModeBlur, NewBlur())
	r.Register(core.ModePassthrough, NewPassthrough())
	return r
}

func (r *Registry) Register(mode core.Mode, kernel Kernel) {
	r.kernels[mode] = kernel
}

// Get returns the kernel for mode. Unknown modes get the grayscale kernel.
func (r *Registry) Get(mode core.Mode) Kernel {
	if kernel, ok := r.kernels[mode]; ok {
		return kernel
	}
	return r.kernels[core.ModeGrayscale]
}

// Close releases every kernel's resources
func (r *Registry) Close() error {
	var first error
	for mode, kernel := range r.kernels {
		if err := kernel.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "close %s kernel", mode)
		}
	}
	return first
}

// ExpandBGRA converts a 1-, 3- or 4-channel Mat into a new 4-channel Mat
func ExpandBGRA(input gocv.Mat) (gocv.Mat, error) {
	var code gocv.ColorConversionCode
	switch input.Channels() {
	case 4:
		return input.Clone(), nil
	case 3:
		code = gocv.ColorBGRToBGRA
	case 1:
		code = gocv.ColorGrayToBGRA
	default:
		return gocv.NewMat(), errors.Errorf("cannot expand %d channels to BGRA", input.Channels())
	}

	output := gocv.NewMat()
	if err := gocv.CvtColor(input, &output, code); err != nil {
		output.Close()
		return gocv.NewMat(), errors.Wrap(err, "expand to BGRA")
	}
	return output, nil
}

// toGray writes the single-channel luminance of input into dst.
// Inputs with neither 3 nor 4 channels are copied unchanged.
func toGray(input gocv.Mat, dst *gocv.Mat) error {
	switch input.Channels() {
	case 4:
		return errors.Wrap(gocv.CvtColor(input, dst, gocv.ColorBGRAToGray), "BGRA to gray")
	case 3:
		return errors.Wrap(gocv.CvtColor(input, dst, gocv.ColorBGRToGray), "BGR to gray")
	default:
		return errors.Wrap(input.CopyTo(dst), "copy gray")
	}
}
