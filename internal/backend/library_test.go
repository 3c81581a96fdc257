package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libriscan/libriscan/internal/frame"
	"github.com/libriscan/libriscan/internal/testutil"
)

func TestLibraryDecodesEAN13(t *testing.T) {
	img, err := testutil.RenderEAN13("9788535914849", testutil.BarcodeImageOptions{})
	require.NoError(t, err)

	l := NewLibrary()
	c := l.Attempt(context.Background(), frame.FromImage(img))
	require.NotNil(t, c)
	assert.Equal(t, "9788535914849", c.Text)
	assert.Equal(t, libraryConfidence, c.Confidence)
	assert.Equal(t, MethodLibrary, c.Method)
	assert.Equal(t, "EAN_13", c.Format)
}

func TestLibraryMissIsNil(t *testing.T) {
	l := NewLibrary()
	blank := frame.FromImage(testutil.BlankImage(320, 240, 255))
	assert.Nil(t, l.Attempt(context.Background(), blank))
}

func TestLibraryName(t *testing.T) {
	assert.Equal(t, "library-decoder", NewLibrary().Name())
}
