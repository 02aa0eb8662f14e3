// Still image loading and saving for frames fed through the host boundary
package io

import (
	"fmt"
	"image"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"frame-transform/internal/core"
)

// ImageLoader handles image file operations
type ImageLoader struct {
	logger logrus.FieldLogger
}

func NewImageLoader(logger logrus.FieldLogger) *ImageLoader {
	return &ImageLoader{
		logger: logger,
	}
}

// LoadFrame reads an image file as a 4-channel BGRA frame
func (il *ImageLoader) LoadFrame(filepath string) (core.Image, error) {
	il.logger.WithField("filepath", filepath).Debug("Loading image")

	if !il.isSupportedImageFormat(filepath) {
		return core.Image{}, fmt.Errorf("unsupported image format: %s", filepath)
	}

	mat := gocv.IMRead(filepath, gocv.IMReadUnchanged)
	defer mat.Close()
	if mat.Empty() {
		return core.Image{}, fmt.Errorf("failed to load image: %s", filepath)
	}

	frame, err := FrameFromMat(mat)
	if err != nil {
		return core.Image{}, fmt.Errorf("failed to convert %s: %w", filepath, err)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": filepath,
		"width":    frame.Width,
		"height":   frame.Height,
		"channels": mat.Channels(),
	}).Info("Image loaded successfully")

	return frame, nil
}

// SaveFrame writes a frame. Formats without alpha get a BGR copy.
func (il *ImageLoader) SaveFrame(frame core.Image, filepath string) error {
	il.logger.WithField("filepath", filepath).Debug("Saving image")

	if frame.Empty() {
		return fmt.Errorf("cannot save empty image")
	}

	if !il.isSupportedImageFormat(filepath) {
		return fmt.Errorf("unsupported image format: %s", filepath)
	}

	mat, err := frame.Mat()
	if err != nil {
		return err
	}
	defer mat.Close()

	out := mat
	if mat.Channels() == 4 && !supportsAlpha(filepath) {
		bgr := gocv.NewMat()
		defer bgr.Close()
		if err := gocv.CvtColor(mat, &bgr, gocv.ColorBGRAToBGR); err != nil {
			return fmt.Errorf("failed to drop alpha: %w", err)
		}
		out = bgr
	}

	if !gocv.IMWrite(filepath, out) {
		return fmt.Errorf("failed to save image: %s", filepath)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": filepath,
		"width":    frame.Width,
		"height":   frame.Height,
		"channels": out.Channels(),
	}).Info("Image saved successfully")

	return nil
}

// FrameFromMat copies a 1-, 3- or 4-channel 8-bit Mat into a BGRA frame
func FrameFromMat(mat gocv.Mat) (core.Image, error) {
	if mat.Empty() {
		return core.Image{}, fmt.Errorf("image is empty")
	}

	var code gocv.ColorConversionCode
	switch mat.Channels() {
	case 4:
		return core.FromMat(mat), nil
	case 3:
		code = gocv.ColorBGRToBGRA
	case 1:
		code = gocv.ColorGrayToBGRA
	default:
		return core.Image{}, fmt.Errorf("unsupported number of channels: %d", mat.Channels())
	}

	bgra := gocv.NewMat()
	defer bgra.Close()
	if err := gocv.CvtColor(mat, &bgra, code); err != nil {
		return core.Image{}, err
	}
	return core.FromMat(bgra), nil
}

// ToImage converts a frame into a Go image for display
func ToImage(frame core.Image) (image.Image, error) {
	mat, err := frame.Mat()
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	return mat.ToImage()
}

func (il *ImageLoader) isSupportedImageFormat(filepath string) bool {
	ext := strings.ToLower(getFileExtension(filepath))
	supportedFormats := []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}

	return false
}

func supportsAlpha(filepath string) bool {
	switch strings.ToLower(getFileExtension(filepath)) {
	case ".png", ".tiff", ".tif":
		return true
	}
	return false
}

func getFileExtension(filepath string) string {
	for i := len(filepath) - 1; i >= 0; i-- {
		if filepath[i] == '.' {
			return filepath[i:]
		}
		if filepath[i] == '/' || filepath[i] == '\\' {
			break
		}
	}
	return ""
}

func (il *ImageLoader) GetSupportedFormats() []string {
	return []string{"JPEG", "PNG", "TIFF", "BMP"}
}
