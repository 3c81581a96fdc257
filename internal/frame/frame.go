// Package frame holds the in-memory raster snapshot handed to recognition
// backends. A Frame is owned by the scanner session for the duration of one
// recognition attempt and discarded afterwards; nothing here is persisted.
package frame

import (
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
)

// Frame is a grayscale raster snapshot of a camera feed at one instant.
type Frame struct {
	Width      int
	Height     int
	Pix        []uint8 // row-major luminance, Width*Height bytes
	CapturedAt time.Time
}

// New allocates a zeroed frame of the given dimensions.
func New(width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frame: invalid dimensions %dx%d", width, height)
	}
	return &Frame{
		Width:      width,
		Height:     height,
		Pix:        make([]uint8, width*height),
		CapturedAt: time.Now(),
	}, nil
}

// FromImage converts an arbitrary image into a luminance frame using the
// Rec. 601 weights. *image.Gray input is copied without conversion.
func FromImage(img image.Image) *Frame {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	f := &Frame{
		Width:      w,
		Height:     h,
		Pix:        make([]uint8, w*h),
		CapturedAt: time.Now(),
	}

	if gray, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			src := gray.Pix[y*gray.Stride : y*gray.Stride+w]
			copy(f.Pix[y*w:(y+1)*w], src)
		}
		return f
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// 16-bit channels; Rec. 601 luma.
			lum := (299*r + 587*g + 114*b) / 1000
			f.Pix[y*w+x] = uint8(lum >> 8)
		}
	}
	return f
}

// At returns the luminance at (x, y). Out-of-bounds coordinates return 0.
func (f *Frame) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0
	}
	return f.Pix[y*f.Width+x]
}

// Row returns the luminance row at y, sharing the frame's backing storage.
func (f *Frame) Row(y int) []uint8 {
	return f.Pix[y*f.Width : (y+1)*f.Width]
}

// Image exposes the frame as an *image.Gray sharing the same pixel buffer,
// for decoders that consume image.Image.
func (f *Frame) Image() *image.Gray {
	return &image.Gray{
		Pix:    f.Pix,
		Stride: f.Width,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	pix := make([]uint8, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{
		Width:      f.Width,
		Height:     f.Height,
		Pix:        pix,
		CapturedAt: f.CapturedAt,
	}
}

// Downscale returns the frame resized so its longest side does not exceed
// maxSide, preserving aspect ratio. Frames already within the bound are
// returned unchanged. Backends see bounded input regardless of camera
// resolution.
func (f *Frame) Downscale(maxSide int) *Frame {
	if maxSide <= 0 || (f.Width <= maxSide && f.Height <= maxSide) {
		return f
	}
	resized := imaging.Fit(f.Image(), maxSide, maxSide, imaging.Linear)
	out := FromImage(resized)
	out.CapturedAt = f.CapturedAt
	return out
}

// Binarize returns a black/white view of the frame: true marks pixels darker
// than the threshold (bars are dark on light paper).
func (f *Frame) Binarize(threshold uint8) []bool {
	out := make([]bool, len(f.Pix))
	for i, p := range f.Pix {
		out[i] = p < threshold
	}
	return out
}
