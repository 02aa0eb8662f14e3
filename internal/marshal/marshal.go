// Package marshal converts between host pixel buffers and core images.
//
// Host buffers are flat arrays of packed 32-bit pixels. Each pixel is read
// in native byte order, so on little-endian hosts an ARGB integer is laid
// out as B, G, R, A bytes, which is the 4-channel layout the kernels expect.
package marshal

import (
	"fmt"
	"unsafe"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"frame-transform/internal/core"
)

// ErrAllocation is returned when an output buffer cannot be produced.
var ErrAllocation = errors.New("output buffer allocation failed")

// BytesPerPixel is the size of one packed host pixel.
const BytesPerPixel = 4

// HostBuffer is pixel memory owned by the host. Release hands the memory back;
// the pixels must not be touched afterwards.
type HostBuffer interface {
	Pixels() []uint32
	Release()
}

// SliceBuffer adapts a plain slice. Release is a no-op.
type SliceBuffer []uint32

func (b SliceBuffer) Pixels() []uint32 { return b }
func (b SliceBuffer) Release()         {}

// View is a 4-channel image aliasing a host buffer. It is only valid until
// Release is called.
type View struct {
	Image    core.Image
	buf      HostBuffer
	released atomic.Bool
}

// Wrap exposes buf as a width x height BGRA image without copying. The caller
// guarantees buf holds at least width*height pixels. A nil buf yields an
// empty view.
func Wrap(buf HostBuffer, width, height int) *View {
	img := core.Image{Width: width, Height: height, Channels: BytesPerPixel}
	if buf == nil {
		return &View{Image: core.Image{Channels: BytesPerPixel}}
	}
	if pixels := buf.Pixels(); len(pixels) > 0 && !img.Empty() {
		img.Pix = unsafe.Slice((*byte)(unsafe.Pointer(&pixels[0])), len(pixels)*BytesPerPixel)
	}
	return &View{Image: img, buf: buf}
}

// Release returns the buffer to the host. Only the first call has an effect.
func (v *View) Release() {
	if !v.released.CompareAndSwap(false, true) {
		return
	}
	v.Image.Pix = nil
	if v.buf != nil {
		v.buf.Release()
	}
}

// Released reports whether Release has been called
func (v *View) Released() bool {
	return v.released.Load()
}

// Unwrap copies a 4-channel image into a newly allocated host buffer of
// Width*Height pixels. Either the whole frame is copied or nil is returned.
func Unwrap(img core.Image) (pixels []uint32, err error) {
	defer func() {
		if r := recover(); r != nil {
			pixels = nil
			err = errors.Wrap(ErrAllocation, fmt.Sprint(r))
		}
	}()

	if img.Channels != BytesPerPixel {
		return nil, errors.Wrapf(ErrAllocation, "expected %d channels, got %d", BytesPerPixel, img.Channels)
	}

	total := img.Width * img.Height
	if img.Empty() || total <= 0 {
		return nil, errors.Wrapf(ErrAllocation, "invalid size %dx%d", img.Width, img.Height)
	}

	size := total * BytesPerPixel
	if len(img.Pix) < size {
		return nil, errors.Wrapf(ErrAllocation, "image holds %d bytes, need %d", len(img.Pix), size)
	}

	out := make([]uint32, total)
	dst := unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), size)
	copy(dst, img.Pix[:size])
	return out, nil
}
