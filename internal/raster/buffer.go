// Package raster holds single channel label images and a software renderer
// that draws skinned geometry into them.
package raster

import "fmt"

// Buffer is a single channel image stored row by row. A zero pixel is
// background; any other value is foreground.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewBuffer allocates an all-background buffer.
func NewBuffer(w, h int) *Buffer {
	return &Buffer{Width: w, Height: h, Pix: make([]uint8, w*h)}
}

// FromPix wraps pix as a w x h buffer.
func FromPix(w, h int, pix []uint8) (*Buffer, error) {
	if len(pix) != w*h {
		return nil, fmt.Errorf("buffer %dx%d needs %d pixels, got %d", w, h, w*h, len(pix))
	}
	return &Buffer{Width: w, Height: h, Pix: pix}, nil
}

// At returns the pixel at (x, y).
func (b *Buffer) At(x, y int) uint8 { return b.Pix[y*b.Width+x] }

// Set stores a pixel value at (x, y).
func (b *Buffer) Set(x, y int, v uint8) { b.Pix[y*b.Width+x] = v }

// Fill sets every pixel in the rectangle [x0,x1) x [y0,y1) to v.
func (b *Buffer) Fill(x0, y0, x1, y1 int, v uint8) {
	for y := max(y0, 0); y < min(y1, b.Height); y++ {
		for x := max(x0, 0); x < min(x1, b.Width); x++ {
			b.Set(x, y, v)
		}
	}
}

// SameSize reports whether b and o have identical dimensions.
func (b *Buffer) SameSize(o *Buffer) bool {
	return b.Width == o.Width && b.Height == o.Height
}

// Foreground counts non-zero pixels.
func (b *Buffer) Foreground() int {
	n := 0
	for _, v := range b.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	return &Buffer{Width: b.Width, Height: b.Height, Pix: append([]uint8(nil), b.Pix...)}
}
