// Package camera abstracts frame acquisition for the scanner. A Source
// enumerates devices and opens exclusive streams; the scanner session owns at
// most one open stream at a time and is the only party that stops it.
package camera

import (
	"context"

	"github.com/libriscan/libriscan/internal/frame"
)

// Facing describes which way a device points.
type Facing string

const (
	FacingUnknown Facing = ""
	FacingFront   Facing = "front"
	FacingRear    Facing = "rear"
)

// Device describes one selectable frame source.
type Device struct {
	ID     string
	Label  string
	Facing Facing
}

// OpenOptions carries acquisition hints. Sources ignore hints they cannot
// honor; ignored hints show up in session diagnostics rather than failing
// the open.
type OpenOptions struct {
	PreferredFacing Facing
	Width           int
	Height          int
	FPS             float64
	Torch           bool
}

// Stream is one exclusive, open frame feed.
//
// Frames is closed when the stream ends, whether by Stop or by the source
// draining. Stop is idempotent and releases the underlying device; it is the
// only way camera hardware is ever freed.
type Stream interface {
	Device() Device
	Frames() <-chan *frame.Frame
	Stop()
}

// Source enumerates devices and opens streams. Open failures carry a
// *Error so callers can branch on the category.
type Source interface {
	Devices(ctx context.Context) ([]Device, error)
	Open(ctx context.Context, deviceID string, opts OpenOptions) (Stream, error)
}

// ContextReporter is implemented by sources whose frames cross a transport
// with a security context (a remote browser feed). Sources that do not
// implement it are treated as secure local capture.
type ContextReporter interface {
	SecureContext() bool
}

// PickDevice selects a device honoring the facing preference, falling back
// to the first device when no facing matches.
func PickDevice(devices []Device, preferred Facing) (Device, bool) {
	if len(devices) == 0 {
		return Device{}, false
	}
	if preferred != FacingUnknown {
		for _, d := range devices {
			if d.Facing == preferred {
				return d, true
			}
		}
	}
	return devices[0], true
}
