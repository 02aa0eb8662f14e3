// Core image data structure shared by the marshaling layer and the engine
package core

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// Image is a row-major 8-bit pixel buffer. Pix holds at least
// Width*Height*Channels bytes. An Image with zero area is the empty sentinel.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// ImageMetadata describes an image without its pixels, for logging
type ImageMetadata struct {
	Width    int
	Height   int
	Channels int
	Type     gocv.MatType
}

// NewImage allocates a zeroed image
func NewImage(width, height, channels int) Image {
	return Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]byte, width*height*channels),
	}
}

// Empty reports whether the image is the zero-area sentinel
func (img Image) Empty() bool {
	return img.Width <= 0 || img.Height <= 0
}

// Len returns the number of valid pixel bytes
func (img Image) Len() int {
	if img.Empty() {
		return 0
	}
	return img.Width * img.Height * img.Channels
}

// Metadata returns width, height, channels and the matching Mat type
func (img Image) Metadata() ImageMetadata {
	mt, _ := matType(img.Channels)
	return ImageMetadata{
		Width:    img.Width,
		Height:   img.Height,
		Channels: img.Channels,
		Type:     mt,
	}
}

// Clone returns a deep copy
func (img Image) Clone() Image {
	out := img
	out.Pix = append([]byte(nil), img.Pix[:img.Len()]...)
	return out
}

// Mat returns a Mat that aliases Pix. The Mat must be closed by the caller
// and must not outlive Pix.
func (img Image) Mat() (gocv.Mat, error) {
	if err := ValidateImage(img); err != nil {
		return gocv.NewMat(), err
	}

	mt, _ := matType(img.Channels)
	mat, err := gocv.NewMatFromBytes(img.Height, img.Width, mt, img.Pix[:img.Len()])
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to create mat view: %w", err)
	}
	return mat, nil
}

// FromMat copies the pixels of mat into a new Image
func FromMat(mat gocv.Mat) Image {
	if mat.Empty() {
		return Image{}
	}
	return Image{
		Width:    mat.Cols(),
		Height:   mat.Rows(),
		Channels: mat.Channels(),
		Pix:      mat.ToBytes(),
	}
}

// ValidateImage checks geometry and buffer length
func ValidateImage(img Image) error {
	if img.Empty() {
		return fmt.Errorf("image is empty")
	}

	if _, ok := matType(img.Channels); !ok {
		return fmt.Errorf("unsupported channel count: %d", img.Channels)
	}

	if img.Width > math.MaxInt/img.Height/img.Channels {
		return fmt.Errorf("image size overflows: %dx%dx%d", img.Width, img.Height, img.Channels)
	}

	if len(img.Pix) < img.Len() {
		return fmt.Errorf("pixel buffer too short: have %d bytes, need %d", len(img.Pix), img.Len())
	}

	return nil
}

func matType(channels int) (gocv.MatType, bool) {
	switch channels {
	case 1:
		return gocv.MatTypeCV8UC1, true
	case 3:
		return gocv.MatTypeCV8UC3, true
	case 4:
		return gocv.MatTypeCV8UC4, true
	}
	return gocv.MatTypeCV8UC1, false
}
