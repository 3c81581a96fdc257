// Package testutil synthesizes barcode rasters for tests so decoder and
// session tests can run against realistic input without camera hardware or
// image fixtures on disk.
package testutil

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// EAN-13 encoding tables as module bit strings ('1' = bar).
var (
	ean13LeftOdd = [10]string{
		"0001101", "0011001", "0010011", "0111101", "0100011",
		"0110001", "0101111", "0111011", "0110111", "0001011",
	}
	ean13LeftEven = [10]string{
		"0100111", "0110011", "0011011", "0100001", "0011101",
		"0111001", "0000101", "0010001", "0001001", "0010111",
	}
	ean13Right = [10]string{
		"1110010", "1100110", "1101100", "1000010", "1011100",
		"1001110", "1010000", "1000100", "1001000", "1110100",
	}
	ean13Parity = [10]string{
		"LLLLLL", "LLGLGG", "LLGGLG", "LLGGGL", "LGLLGG",
		"LGGLLG", "LGGGLL", "LGLGLG", "LGLGGL", "LGGLGL",
	}
)

// EAN13Modules expands a 13-digit string into the 95-module bar pattern.
// The caller is responsible for supplying a string with a correct check
// digit; this function only validates shape.
func EAN13Modules(digits string) (string, error) {
	if len(digits) != 13 {
		return "", fmt.Errorf("testutil: want 13 digits, got %d", len(digits))
	}
	d := make([]int, 13)
	for i := range digits {
		if digits[i] < '0' || digits[i] > '9' {
			return "", fmt.Errorf("testutil: non-digit %q at %d", digits[i], i)
		}
		d[i] = int(digits[i] - '0')
	}

	parity := ean13Parity[d[0]]
	modules := "101"
	for i := 0; i < 6; i++ {
		if parity[i] == 'L' {
			modules += ean13LeftOdd[d[i+1]]
		} else {
			modules += ean13LeftEven[d[i+1]]
		}
	}
	modules += "01010"
	for i := 0; i < 6; i++ {
		modules += ean13Right[d[i+7]]
	}
	modules += "101"
	return modules, nil
}

// BarcodeImageOptions controls rendering of a synthetic barcode raster.
type BarcodeImageOptions struct {
	ModuleWidth int   // pixels per module (default 3)
	BarHeight   int   // pixels (default 120)
	QuietZone   int   // modules of white margin left and right (default 10)
	Margin      int   // pixels of white margin above and below (default 20)
	Foreground  uint8 // bar luminance (default 0)
	Background  uint8 // paper luminance (default 255)
}

func (o *BarcodeImageOptions) applyDefaults() {
	if o.ModuleWidth <= 0 {
		o.ModuleWidth = 3
	}
	if o.BarHeight <= 0 {
		o.BarHeight = 120
	}
	if o.QuietZone <= 0 {
		o.QuietZone = 10
	}
	if o.Margin < 0 {
		o.Margin = 20
	}
	if o.Background == 0 {
		o.Background = 255
	}
}

// RenderEAN13 draws the given 13-digit code as a grayscale barcode image.
func RenderEAN13(digits string, opts BarcodeImageOptions) (*image.Gray, error) {
	opts.applyDefaults()
	modules, err := EAN13Modules(digits)
	if err != nil {
		return nil, err
	}

	width := (len(modules) + 2*opts.QuietZone) * opts.ModuleWidth
	height := opts.BarHeight + 2*opts.Margin
	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Gray{Y: opts.Background}), image.Point{}, draw.Src)

	for i := range modules {
		if modules[i] != '1' {
			continue
		}
		x0 := (opts.QuietZone + i) * opts.ModuleWidth
		for y := opts.Margin; y < opts.Margin+opts.BarHeight; y++ {
			for x := x0; x < x0+opts.ModuleWidth; x++ {
				img.SetGray(x, y, color.Gray{Y: opts.Foreground})
			}
		}
	}
	return img, nil
}

// BlankImage returns a uniform gray image, handy as a frame with no symbol.
func BlankImage(width, height int, lum uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = lum
	}
	return img
}

// NoiseImage returns a deterministic pseudo-noise raster that contains no
// decodable symbol but plenty of transitions.
func NoiseImage(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	state := uint32(2463534242)
	for i := range img.Pix {
		// xorshift32; deterministic across runs.
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		img.Pix[i] = uint8(state)
	}
	return img
}
