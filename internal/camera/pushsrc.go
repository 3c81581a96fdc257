package camera

import (
	"context"
	"sync"

	"github.com/libriscan/libriscan/internal/frame"
)

// PushSource is an in-memory source whose frames are injected by a caller:
// the WebSocket scan endpoint feeds decoded browser frames into it, and unit
// tests drive sessions through it. It enforces stream exclusivity: opening
// a device that already has an open stream is a camera-in-use error, not a
// silent second stream.
type PushSource struct {
	mu      sync.Mutex
	devices []Device
	secure  bool
	openErr error
	active  map[string]*PushStream
	opens   int
	stops   int
}

// NewPushSource creates a push source. With no devices given, a single
// rear-facing device "push-0" is exposed. secure reports the transport
// security of the feed (false models a plain-HTTP browser context).
func NewPushSource(secure bool, devices ...Device) *PushSource {
	if len(devices) == 0 {
		devices = []Device{{ID: "push-0", Label: "pushed frames", Facing: FacingRear}}
	}
	return &PushSource{
		devices: devices,
		secure:  secure,
		active:  make(map[string]*PushStream),
	}
}

// SecureContext implements ContextReporter.
func (s *PushSource) SecureContext() bool { return s.secure }

// SetOpenError makes every subsequent Open fail with err until cleared with
// nil. Tests use it to model permission denial and device loss.
func (s *PushSource) SetOpenError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr = err
}

func (s *PushSource) Devices(_ context.Context) ([]Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Device, len(s.devices))
	copy(out, s.devices)
	return out, nil
}

func (s *PushSource) Open(_ context.Context, deviceID string, _ OpenOptions) (Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}

	var device Device
	found := false
	for _, d := range s.devices {
		if deviceID == "" || d.ID == deviceID {
			device = d
			found = true
			break
		}
	}
	if !found {
		return nil, NewError(CategoryNoCamera, "unknown device "+deviceID, nil)
	}
	if _, busy := s.active[device.ID]; busy {
		return nil, NewError(CategoryBusy, "device "+device.ID+" already streaming", nil)
	}

	ps := &PushStream{
		source: s,
		device: device,
		frames: make(chan *frame.Frame, 4),
	}
	s.active[device.ID] = ps
	s.opens++
	return ps, nil
}

// ActiveStream returns the open stream for deviceID, or nil when the device
// is not streaming. An empty ID returns any active stream.
func (s *PushSource) ActiveStream(deviceID string) *PushStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	if deviceID == "" {
		for _, ps := range s.active {
			return ps
		}
		return nil
	}
	return s.active[deviceID]
}

// Opens returns the number of successful stream acquisitions.
func (s *PushSource) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

// Stops returns the number of streams that have been released.
func (s *PushSource) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

func (s *PushSource) release(ps *PushStream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[ps.device.ID] == ps {
		delete(s.active, ps.device.ID)
	}
	s.stops++
}

// PushStream is the stream half of a PushSource.
type PushStream struct {
	source *PushSource
	device Device

	mu     sync.Mutex
	closed bool
	frames chan *frame.Frame
}

func (p *PushStream) Device() Device              { return p.device }
func (p *PushStream) Frames() <-chan *frame.Frame { return p.frames }

// Push offers a frame to the stream. Frames are dropped, returning false,
// when the consumer lags or the stream is stopped; a live feed never blocks
// on a slow recognizer.
func (p *PushStream) Push(f *frame.Frame) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.frames <- f:
		return true
	default:
		return false
	}
}

// Stop releases the stream. Idempotent.
func (p *PushStream) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.frames)
	p.mu.Unlock()
	p.source.release(p)
}
