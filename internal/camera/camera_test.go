package camera

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libriscan/libriscan/internal/frame"
)

func TestPickDevice(t *testing.T) {
	front := Device{ID: "f", Facing: FacingFront}
	rear := Device{ID: "r", Facing: FacingRear}

	got, ok := PickDevice([]Device{front, rear}, FacingRear)
	require.True(t, ok)
	assert.Equal(t, "r", got.ID)

	got, ok = PickDevice([]Device{front, rear}, FacingUnknown)
	require.True(t, ok)
	assert.Equal(t, "f", got.ID, "no preference falls back to first")

	got, ok = PickDevice([]Device{front}, FacingRear)
	require.True(t, ok)
	assert.Equal(t, "f", got.ID, "unmatched preference falls back to first")

	_, ok = PickDevice(nil, FacingRear)
	assert.False(t, ok)
}

func TestErrorCategory(t *testing.T) {
	base := NewError(CategoryPermissionDenied, "user said no", nil)
	wrapped := fmt.Errorf("opening scanner: %w", base)

	cat, ok := CategoryOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, CategoryPermissionDenied, cat)

	_, ok = CategoryOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestCategoryRecoverable(t *testing.T) {
	assert.True(t, CategoryPermissionDenied.Recoverable())
	assert.True(t, CategoryNoCamera.Recoverable())
	assert.True(t, CategoryBusy.Recoverable())
	assert.False(t, CategoryInsecureContext.Recoverable())
	assert.False(t, CategoryUnsupported.Recoverable())
}

func TestErrorMessage(t *testing.T) {
	err := NewError(CategoryBusy, "device 0 already streaming", nil)
	assert.Contains(t, err.Error(), "camera-in-use")

	inner := errors.New("EBUSY")
	err = NewError(CategoryBusy, "open failed", inner)
	assert.Contains(t, err.Error(), "EBUSY")
	assert.ErrorIs(t, err, inner)
}

func TestPushSourceOpenAndPush(t *testing.T) {
	src := NewPushSource(true)
	devices, err := src.Devices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)

	stream, err := src.Open(context.Background(), "", OpenOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, src.Opens())

	f, err := frame.New(8, 8)
	require.NoError(t, err)
	ps := stream.(*PushStream)
	assert.True(t, ps.Push(f))
	got := <-stream.Frames()
	assert.Same(t, f, got)

	stream.Stop()
	assert.Equal(t, 1, src.Stops())
	assert.False(t, ps.Push(f), "push after stop is dropped")

	_, open := <-stream.Frames()
	assert.False(t, open, "frame channel closed on stop")
}

func TestPushSourceExclusivity(t *testing.T) {
	src := NewPushSource(true)
	first, err := src.Open(context.Background(), "push-0", OpenOptions{})
	require.NoError(t, err)

	_, err = src.Open(context.Background(), "push-0", OpenOptions{})
	cat, ok := CategoryOf(err)
	require.True(t, ok)
	assert.Equal(t, CategoryBusy, cat)

	// Releasing the first stream frees the device.
	first.Stop()
	second, err := src.Open(context.Background(), "push-0", OpenOptions{})
	require.NoError(t, err)
	second.Stop()
}

func TestPushSourceStopIdempotent(t *testing.T) {
	src := NewPushSource(true)
	stream, err := src.Open(context.Background(), "", OpenOptions{})
	require.NoError(t, err)

	stream.Stop()
	stream.Stop()
	stream.Stop()
	assert.Equal(t, 1, src.Stops(), "repeated stops count once")
}

func TestPushSourceOpenError(t *testing.T) {
	src := NewPushSource(true)
	src.SetOpenError(NewError(CategoryPermissionDenied, "denied", nil))

	_, err := src.Open(context.Background(), "", OpenOptions{})
	cat, ok := CategoryOf(err)
	require.True(t, ok)
	assert.Equal(t, CategoryPermissionDenied, cat)
	assert.Equal(t, 0, src.Opens())

	src.SetOpenError(nil)
	stream, err := src.Open(context.Background(), "", OpenOptions{})
	require.NoError(t, err)
	stream.Stop()
}

func TestPushSourceUnknownDevice(t *testing.T) {
	src := NewPushSource(true)
	_, err := src.Open(context.Background(), "nope", OpenOptions{})
	cat, ok := CategoryOf(err)
	require.True(t, ok)
	assert.Equal(t, CategoryNoCamera, cat)
}

func TestPushSourceDropsWhenConsumerLags(t *testing.T) {
	src := NewPushSource(true)
	stream, err := src.Open(context.Background(), "", OpenOptions{})
	require.NoError(t, err)
	defer stream.Stop()

	ps := stream.(*PushStream)
	delivered := 0
	for i := 0; i < 10; i++ {
		f, ferr := frame.New(4, 4)
		require.NoError(t, ferr)
		if ps.Push(f) {
			delivered++
		}
	}
	assert.Equal(t, 4, delivered, "buffer bounds in-flight frames")
}

func TestPushSourceSecureContext(t *testing.T) {
	assert.True(t, NewPushSource(true).SecureContext())
	assert.False(t, NewPushSource(false).SecureContext())
}
