package frame

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	f, err := New(64, 48)
	require.NoError(t, err)
	assert.Equal(t, 64, f.Width)
	assert.Equal(t, 48, f.Height)
	assert.Len(t, f.Pix, 64*48)
	assert.False(t, f.CapturedAt.IsZero())
}

func TestNewInvalidDimensions(t *testing.T) {
	for _, dims := range [][2]int{{0, 10}, {10, 0}, {-1, 5}} {
		_, err := New(dims[0], dims[1])
		assert.Error(t, err)
	}
}

func TestFromImageGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 2))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 10)
	}
	f := FromImage(img)
	assert.Equal(t, 4, f.Width)
	assert.Equal(t, 2, f.Height)
	assert.Equal(t, img.Pix, f.Pix)
}

func TestFromImageRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	img.Set(1, 0, color.RGBA{A: 255})
	f := FromImage(img)
	assert.Equal(t, uint8(255), f.At(0, 0))
	assert.Equal(t, uint8(0), f.At(1, 0))
}

func TestFromImageOffsetBounds(t *testing.T) {
	img := image.NewGray(image.Rect(10, 20, 14, 22))
	f := FromImage(img)
	assert.Equal(t, 4, f.Width)
	assert.Equal(t, 2, f.Height)
}

func TestAtOutOfBounds(t *testing.T) {
	f, err := New(2, 2)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), f.At(-1, 0))
	assert.Equal(t, uint8(0), f.At(0, 5))
}

func TestImageSharesBuffer(t *testing.T) {
	f, err := New(3, 3)
	require.NoError(t, err)
	f.Pix[4] = 200
	img := f.Image()
	assert.Equal(t, uint8(200), img.GrayAt(1, 1).Y)
}

func TestClone(t *testing.T) {
	f, err := New(2, 2)
	require.NoError(t, err)
	f.Pix[0] = 42
	c := f.Clone()
	c.Pix[0] = 7
	assert.Equal(t, uint8(42), f.Pix[0])
	assert.Equal(t, f.CapturedAt, c.CapturedAt)
}

func TestDownscale(t *testing.T) {
	f, err := New(800, 400)
	require.NoError(t, err)
	small := f.Downscale(200)
	assert.LessOrEqual(t, small.Width, 200)
	assert.LessOrEqual(t, small.Height, 200)
	assert.Equal(t, f.CapturedAt, small.CapturedAt)

	// Already within bound: same frame back.
	same := small.Downscale(1000)
	assert.Same(t, small, same)
}

func TestBinarize(t *testing.T) {
	f, err := New(2, 1)
	require.NoError(t, err)
	f.Pix[0] = 10
	f.Pix[1] = 240
	bw := f.Binarize(128)
	assert.True(t, bw[0], "dark pixel is a bar")
	assert.False(t, bw[1], "light pixel is background")
}
