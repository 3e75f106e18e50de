// Package imageio moves label buffers in and out of OpenCV images.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/ayusman/mudra/internal/raster"
	"gocv.io/x/gocv"
)

var (
	// ErrEmptyImage is returned when an image file could not be decoded.
	ErrEmptyImage = errors.New("image is empty")
	// ErrNotGray is returned for matrices that are not single channel 8-bit.
	ErrNotGray = errors.New("image is not 8-bit grayscale")
)

// LoadReference reads path as grayscale. When threshold is positive, pixels
// above it become 255 and the rest 0. When w and h are positive the image
// is resized to w x h with nearest neighbor sampling.
func LoadReference(path string, threshold float64, w, h int) (*raster.Buffer, error) {
	img := gocv.IMRead(path, gocv.IMReadGrayScale)
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("load reference %s: %w", path, ErrEmptyImage)
	}

	src := img
	if w > 0 && h > 0 && (img.Cols() != w || img.Rows() != h) {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(src, &resized, image.Pt(w, h), 0, 0, gocv.InterpolationNearestNeighbor)
		src = resized
	}

	if threshold > 0 {
		binary := gocv.NewMat()
		defer binary.Close()
		gocv.Threshold(src, &binary, float32(threshold), 255, gocv.ThresholdBinary)
		src = binary
	}

	return FromMat(src)
}

// FromMat copies a single channel 8-bit matrix into a buffer.
func FromMat(m gocv.Mat) (*raster.Buffer, error) {
	if m.Empty() {
		return nil, ErrEmptyImage
	}
	if m.Type() != gocv.MatTypeCV8UC1 {
		return nil, ErrNotGray
	}
	pix := append([]uint8(nil), m.ToBytes()...)
	return raster.FromPix(m.Cols(), m.Rows(), pix)
}

// ToMat copies b into a new single channel matrix. The caller closes it.
func ToMat(b *raster.Buffer) (gocv.Mat, error) {
	return gocv.NewMatFromBytes(b.Height, b.Width, gocv.MatTypeCV8UC1, append([]uint8(nil), b.Pix...))
}

// Save writes b to path; the format follows the file extension.
func Save(path string, b *raster.Buffer) error {
	m, err := ToMat(b)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	defer m.Close()

	if !gocv.IMWrite(path, m) {
		return fmt.Errorf("save %s: write failed", path)
	}
	return nil
}

// Segment is a line in pixel coordinates.
type Segment struct {
	From, To image.Point
}

// Overlay composes a color diagnostic image: reference foreground in green,
// rendered labels in red, and segments in white. The caller closes it.
func Overlay(rendered, reference *raster.Buffer, segments []Segment) (gocv.Mat, error) {
	if !rendered.SameSize(reference) {
		return gocv.NewMat(), fmt.Errorf("overlay: render %dx%d, reference %dx%d",
			rendered.Width, rendered.Height, reference.Width, reference.Height)
	}

	bgr := make([]uint8, 3*len(rendered.Pix))
	for i, v := range rendered.Pix {
		if reference.Pix[i] != 0 {
			bgr[3*i+1] = 160
		}
		bgr[3*i+2] = v
	}
	m, err := gocv.NewMatFromBytes(rendered.Height, rendered.Width, gocv.MatTypeCV8UC3, bgr)
	if err != nil {
		return gocv.NewMat(), err
	}

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for _, s := range segments {
		gocv.Line(&m, s.From, s.To, white, 1)
	}
	return m, nil
}

// EncodeJPEG encodes m as JPEG bytes.
func EncodeJPEG(m gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(".jpg", m)
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}
