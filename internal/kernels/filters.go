package kernels

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Fixed filter constants. Output is reproducible only while these hold.
const (
	EdgeBlurSize      = 5
	EdgeBlurSigma     = 1.4
	EdgeLowThreshold  = 50
	EdgeHighThreshold = 150
	BlurSize          = 15
	// BlurSigma of zero lets OpenCV derive sigma from BlurSize.
	BlurSigma = 0.0
)

// Grayscale desaturates to luminance and replicates it back into four channels
type Grayscale struct{}

func NewGrayscale() *Grayscale {
	return &Grayscale{}
}

func (g *Grayscale) Apply(input gocv.Mat) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), errors.New("input image is empty")
	}

	if ch := input.Channels(); ch != 3 && ch != 4 {
		return input.Clone(), nil
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if err := toGray(input, &gray); err != nil {
		return gocv.NewMat(), err
	}

	output := gocv.NewMat()
	if err := gocv.CvtColor(gray, &output, gocv.ColorGrayToBGRA); err != nil {
		output.Close()
		return gocv.NewMat(), errors.Wrap(err, "gray to BGRA")
	}
	return output, nil
}

func (g *Grayscale) Name() string {
	return "Grayscale"
}

func (g *Grayscale) Close() error {
	return nil
}

// EdgeDetect runs luminance, Gaussian smoothing and Canny hysteresis.
// The two scratch Mats are reused between frames to avoid reallocation;
// their contents mean nothing once Apply returns.
type EdgeDetect struct {
	scratch1 gocv.Mat
	scratch2 gocv.Mat
}

func NewEdgeDetect() *EdgeDetect {
	return &EdgeDetect{
		scratch1: gocv.NewMat(),
		scratch2: gocv.NewMat(),
	}
}

func (e *EdgeDetect) Apply(input gocv.Mat) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), errors.New("input image is empty")
	}

	if err := toGray(input, &e.scratch1); err != nil {
		return gocv.NewMat(), err
	}

	ksize := image.Point{X: EdgeBlurSize, Y: EdgeBlurSize}
	err := gocv.GaussianBlur(e.scratch1, &e.scratch2, ksize, EdgeBlurSigma, EdgeBlurSigma, gocv.BorderDefault)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "gaussian blur")
	}

	if err := gocv.Canny(e.scratch2, &e.scratch1, EdgeLowThreshold, EdgeHighThreshold); err != nil {
		return gocv.NewMat(), errors.Wrap(err, "canny")
	}

	output := gocv.NewMat()
	if err := gocv.CvtColor(e.scratch1, &output, gocv.ColorGrayToBGRA); err != nil {
		output.Close()
		return gocv.NewMat(), errors.Wrap(err, "edges to BGRA")
	}
	return output, nil
}

func (e *EdgeDetect) Name() string {
	return "EdgeDetect"
}

func (e *EdgeDetect) Close() error {
	if err := e.scratch1.Close(); err != nil {
		return err
	}
	return e.scratch2.Close()
}

// Blur applies a 15x15 Gaussian on the native channel count
type Blur struct{}

func NewBlur() *Blur {
	return &Blur{}
}

func (b *Blur) Apply(input gocv.Mat) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), errors.New("input image is empty")
	}

	output := gocv.NewMat()
	ksize := image.Point{X: BlurSize, Y: BlurSize}
	if err := gocv.GaussianBlur(input, &output, ksize, BlurSigma, BlurSigma, gocv.BorderDefault); err != nil {
		output.Close()
		return gocv.NewMat(), errors.Wrap(err, "gaussian blur")
	}
	return output, nil
}

func (b *Blur) Name() string {
	return "Blur"
}

func (b *Blur) Close() error {
	return nil
}

// Passthrough returns an exact copy
type Passthrough struct{}

func NewPassthrough() *Passthrough {
	return &Passthrough{}
}

func (p *Passthrough) Apply(input gocv.Mat) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), errors.New("input image is empty")
	}
	return input.Clone(), nil
}

func (p *Passthrough) Name() string {
	return "Passthrough"
}

func (p *Passthrough) Close() error {
	return nil
}
