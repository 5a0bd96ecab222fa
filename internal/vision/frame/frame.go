// Package frame holds the grayscale pixel buffer type fed through the
// stabilisation pipeline, plus warp application and synthetic frame
// generation for tests and tools.
package frame

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/steadyframe/stabilise/internal/vision/motion"
	"github.com/steadyframe/stabilise/internal/vision/spatial"
)

// Frame is a single-channel 8-bit frame. Pixel (x, y) lives at
// Pix[y*Width+x]. Frames are moved through the pipeline's delay queue, not
// shared, so methods never retain the receiver's buffer in returned frames.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates a zeroed frame of the given size. Panics on non-positive
// dimensions.
func New(width, height int) *Frame {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("frame: invalid size %dx%d", width, height))
	}
	return &Frame{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// FromPix wraps an existing pixel buffer. Panics if the buffer length does
// not match the dimensions.
func FromPix(width, height int, pix []uint8) *Frame {
	if len(pix) != width*height {
		panic(fmt.Sprintf("frame: buffer length %d does not match %dx%d", len(pix), width, height))
	}
	return &Frame{Width: width, Height: height, Pix: pix}
}

// At returns the pixel at (x, y), or 0 for out-of-range coordinates.
func (f *Frame) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0
	}
	return f.Pix[y*f.Width+x]
}

// Set writes the pixel at (x, y), ignoring out-of-range coordinates.
func (f *Frame) Set(x, y int, v uint8) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return
	}
	f.Pix[y*f.Width+x] = v
}

// Bounds returns the frame extent as a source-coordinate rectangle.
func (f *Frame) Bounds() spatial.Rect {
	return spatial.Rect{W: float64(f.Width), H: float64(f.Height)}
}

// SameSize reports whether o has identical dimensions.
func (f *Frame) SameSize(o *Frame) bool {
	return o != nil && f.Width == o.Width && f.Height == o.Height
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := New(f.Width, f.Height)
	copy(out.Pix, f.Pix)
	return out
}

// Gray returns the frame as an image.Gray sharing the pixel buffer.
func (f *Frame) Gray() *image.Gray {
	return &image.Gray{Pix: f.Pix, Stride: f.Width, Rect: image.Rect(0, 0, f.Width, f.Height)}
}

// FromGray copies an image.Gray into a new frame.
func FromGray(img *image.Gray) *Frame {
	b := img.Bounds()
	out := New(b.Dx(), b.Dy())
	for y := 0; y < out.Height; y++ {
		copy(out.Pix[y*out.Width:(y+1)*out.Width], img.Pix[y*img.Stride:y*img.Stride+out.Width])
	}
	return out
}

// Warp resamples the frame through t into a new frame of the same size,
// using bilinear interpolation. Regions mapped from outside the source are
// left black.
func (f *Frame) Warp(t motion.Transform) *Frame {
	src := f.Gray()
	dst := image.NewGray(src.Rect)
	draw.BiLinear.Transform(dst, t.Matrix(), src, src.Rect, draw.Src, nil)
	return FromPix(f.Width, f.Height, dst.Pix)
}
