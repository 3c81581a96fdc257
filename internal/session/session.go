// Package session owns the per-scan lifecycle: camera acquisition, the
// continuous detection loop or manual capture, debouncing of repeated
// detections, and the diagnostics callers render remediation from. A session
// delivers at most one accepted ISBN and releases the camera on every exit
// path.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/libriscan/libriscan/internal/arbiter"
	"github.com/libriscan/libriscan/internal/camera"
	"github.com/libriscan/libriscan/internal/frame"
	"github.com/libriscan/libriscan/internal/isbn"
)

// State is the scanner session lifecycle state.
type State string

const (
	StateIdle                  State = "idle"
	StateInitializing          State = "initializing"
	StateStreaming             State = "streaming"
	StateDetecting             State = "detecting"
	StateAwaitingManualCapture State = "awaiting-manual-capture"
	StateError                 State = "error"
	StateClosed                State = "closed"
)

// Defaults for the detection loop.
const (
	DefaultDetectInterval = 500 * time.Millisecond
	DefaultDebounceWindow = 2 * time.Second
	DefaultMissHintAfter  = 25
)

// ErrNoFrame is returned by Capture when the stream yields no frame.
var ErrNoFrame = errors.New("session: no frame available")

// errWrongState is returned for operations invalid in the current state.
func errWrongState(op string, s State) error {
	return fmt.Errorf("session: %s not allowed in state %q", op, s)
}

// Callbacks are the caller contract: OnScan fires exactly once per session
// on success; OnClose fires when the session ends without a scan.
type Callbacks struct {
	OnScan  func(isbn string)
	OnClose func()
}

// Config parameterizes one scanner session.
type Config struct {
	DeviceID        string
	PreferredFacing camera.Facing
	Continuous      bool
	DetectInterval  time.Duration
	DebounceWindow  time.Duration
	MissHintAfter   int // consecutive misses before the caller is hinted toward manual entry
	Open            camera.OpenOptions
}

// DefaultConfig returns a continuous-detection config with rear-facing
// preference, matching handheld scanning.
func DefaultConfig() Config {
	return Config{
		PreferredFacing: camera.FacingRear,
		Continuous:      true,
		DetectInterval:  DefaultDetectInterval,
		DebounceWindow:  DefaultDebounceWindow,
		MissHintAfter:   DefaultMissHintAfter,
	}
}

func (c *Config) applyDefaults() {
	if c.DetectInterval <= 0 {
		c.DetectInterval = DefaultDetectInterval
	}
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = DefaultDebounceWindow
	}
	if c.MissHintAfter <= 0 {
		c.MissHintAfter = DefaultMissHintAfter
	}
}

// Diagnostics is a point-in-time snapshot of what the session knows about
// its environment. The UI decides remediation from the error category, not
// from the message.
type Diagnostics struct {
	SessionID         string          `json:"session_id"`
	State             State           `json:"state"`
	NativeDetector    bool            `json:"native_detector"`
	SecureContext     bool            `json:"secure_context"`
	Devices           []camera.Device `json:"devices,omitempty"`
	SelectedDevice    camera.Device   `json:"selected_device"`
	ConsecutiveMisses int             `json:"consecutive_misses"`
	SuggestManual     bool            `json:"suggest_manual"`
	ErrorCategory     camera.Category `json:"error_category,omitempty"`
	ErrorMessage      string          `json:"error_message,omitempty"`
}

// capabilityProber is implemented by backends with a cached capability
// probe (the native platform decoder).
type capabilityProber interface {
	Supported() bool
}

// Session drives one scan attempt lifecycle against a camera source.
type Session struct {
	id     string
	cfg    Config
	source camera.Source
	arb    *arbiter.Arbiter
	cb     Callbacks

	mu             sync.Mutex
	state          State
	stream         camera.Stream
	cancelLoop     context.CancelFunc
	loopDone       chan struct{}
	devices        []camera.Device
	selected       camera.Device
	misses         int
	lastAcceptedAt time.Time
	delivered      bool
	errCategory    camera.Category
	errMessage     string
	nativeProbed   bool
	secure         bool
}

// New creates an idle session. Nothing is acquired until Start.
func New(source camera.Source, arb *arbiter.Arbiter, cfg Config, cb Callbacks) *Session {
	cfg.applyDefaults()
	return &Session{
		id:     uuid.NewString(),
		cfg:    cfg,
		source: source,
		arb:    arb,
		cb:     cb,
		state:  StateIdle,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Delivered reports whether this session has handed a scan to the caller.
func (s *Session) Delivered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivered
}

// ErrorInfo returns the categorized failure when the session is in the
// error state.
func (s *Session) ErrorInfo() (camera.Category, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateError {
		return "", "", false
	}
	return s.errCategory, s.errMessage, true
}

// Diagnostics returns a snapshot of the session's environment probe.
func (s *Session) Diagnostics() Diagnostics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Diagnostics{
		SessionID:         s.id,
		State:             s.state,
		NativeDetector:    s.nativeProbed,
		SecureContext:     s.secure,
		Devices:           s.devices,
		SelectedDevice:    s.selected,
		ConsecutiveMisses: s.misses,
		SuggestManual:     s.misses >= s.cfg.MissHintAfter,
		ErrorCategory:     s.errCategory,
		ErrorMessage:      s.errMessage,
	}
}

// Start runs the initialization sequence: capability probe, device
// enumeration, secure-context check, stream acquisition. On success the
// session is Detecting (continuous mode) or AwaitingManualCapture. Failures
// land in the error state with a category and are also returned.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		st := s.state
		s.mu.Unlock()
		return errWrongState("start", st)
	}
	s.state = StateInitializing
	s.mu.Unlock()

	return s.initialize(ctx)
}

// Reinitialize retries acquisition after a recoverable failure. This is the
// explicit retry action offered to the user; the session never re-requests
// permission on its own.
func (s *Session) Reinitialize(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateError {
		st := s.state
		s.mu.Unlock()
		return errWrongState("reinitialize", st)
	}
	s.state = StateInitializing
	s.errCategory = ""
	s.errMessage = ""
	s.mu.Unlock()

	return s.initialize(ctx)
}

func (s *Session) initialize(ctx context.Context) error {
	s.probeCapabilities()

	if !s.secureContext() {
		return s.fail(camera.NewError(camera.CategoryInsecureContext,
			"frame transport is not secure; camera access requires a secure context", nil))
	}

	devices, err := s.source.Devices(ctx)
	if err != nil {
		return s.fail(asCameraError(err, camera.CategoryNoCamera, "device enumeration failed"))
	}
	if len(devices) == 0 {
		return s.fail(camera.NewError(camera.CategoryNoCamera, "no capture devices found", nil))
	}

	selected, _ := camera.PickDevice(devices, s.cfg.PreferredFacing)
	if s.cfg.DeviceID != "" {
		found := false
		for _, d := range devices {
			if d.ID == s.cfg.DeviceID {
				selected, found = d, true
				break
			}
		}
		if !found {
			return s.fail(camera.NewError(camera.CategoryNoCamera,
				"requested device "+s.cfg.DeviceID+" not present", nil))
		}
	}

	opts := s.cfg.Open
	opts.PreferredFacing = s.cfg.PreferredFacing
	stream, err := s.source.Open(ctx, selected.ID, opts)
	if err != nil {
		return s.fail(asCameraError(err, camera.CategoryPermissionDenied, "stream acquisition failed"))
	}

	s.mu.Lock()
	if s.state != StateInitializing {
		// Closed while acquiring; release immediately.
		s.mu.Unlock()
		stream.Stop()
		return errWrongState("initialize", StateClosed)
	}
	s.devices = devices
	s.selected = selected
	s.stream = stream
	s.state = StateStreaming
	slog.Info("scanner session streaming",
		"session", s.id, "device", selected.ID, "continuous", s.cfg.Continuous)

	if s.cfg.Continuous {
		s.state = StateDetecting
		loopCtx, cancel := context.WithCancel(ctx)
		s.cancelLoop = cancel
		s.loopDone = make(chan struct{})
		go s.detectLoop(loopCtx, stream, s.loopDone)
	} else {
		s.state = StateAwaitingManualCapture
	}
	s.mu.Unlock()
	return nil
}

func (s *Session) probeCapabilities() {
	native := false
	if s.arb != nil {
		for _, b := range s.arb.Backends() {
			if p, ok := b.(capabilityProber); ok && p.Supported() {
				native = true
				break
			}
		}
	}
	secure := true
	if r, ok := s.source.(camera.ContextReporter); ok {
		secure = r.SecureContext()
	}
	s.mu.Lock()
	s.nativeProbed = native
	s.secure = secure
	s.mu.Unlock()
}

func (s *Session) secureContext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secure
}

// fail moves the session to the error state, preserving the category.
func (s *Session) fail(err *camera.Error) error {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.state = StateError
	s.errCategory = err.Category
	s.errMessage = err.Message
	s.mu.Unlock()

	if stream != nil {
		stream.Stop()
	}
	slog.Warn("scanner session failed",
		"session", s.id, "category", string(err.Category), "error", err)
	return err
}

// asCameraError preserves an existing category or wraps err with a default.
func asCameraError(err error, fallback camera.Category, msg string) *camera.Error {
	var ce *camera.Error
	if errors.As(err, &ce) {
		return ce
	}
	return camera.NewError(fallback, msg, err)
}

// detectLoop is the cooperative continuous-detection loop: each iteration
// waits out the detect interval only after the previous attempt finished, so
// at most one attempt is ever in flight.
func (s *Session) detectLoop(ctx context.Context, stream camera.Stream, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-stream.Frames():
			if !ok {
				// Source drained; end the session without a scan.
				slog.Debug("frame stream ended", "session", s.id)
				s.close(false, "")
				return
			}
			if s.attempt(ctx, f) {
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.DetectInterval):
		}
	}
}

// attempt runs one frame through arbitration. Returns true when the session
// delivered a result and closed.
func (s *Session) attempt(ctx context.Context, f *frame.Frame) bool {
	outcome := s.arb.Recognize(ctx, f)
	if !outcome.OK() {
		s.recordMiss()
		return false
	}
	return s.accept(outcome.Candidate.Text)
}

func (s *Session) recordMiss() {
	s.mu.Lock()
	s.misses++
	misses := s.misses
	hintAt := s.cfg.MissHintAfter
	s.mu.Unlock()
	// A miss is the steady state of a detection loop, not an error.
	if misses == hintAt {
		slog.Debug("no symbol recognized after repeated attempts; manual entry may help",
			"session", s.id, "misses", misses)
	}
}

// accept applies the debounce window and delivers the scan. Only the first
// non-suppressed acceptance reaches the caller.
func (s *Session) accept(text string) bool {
	now := time.Now()
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return false
	}
	if !s.lastAcceptedAt.IsZero() && now.Sub(s.lastAcceptedAt) < s.cfg.DebounceWindow {
		s.mu.Unlock()
		slog.Debug("suppressing duplicate detection inside debounce window", "session", s.id)
		return false
	}
	s.lastAcceptedAt = now
	s.misses = 0
	s.mu.Unlock()

	s.close(true, isbn.Normalize(text))
	return true
}

// Capture runs a single on-demand frame through arbitration (manual mode).
// A miss keeps the session in AwaitingManualCapture and returns ok=false
// with no error; delivery closes the session as usual.
func (s *Session) Capture(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	if s.state != StateAwaitingManualCapture {
		st := s.state
		s.mu.Unlock()
		return "", false, errWrongState("capture", st)
	}
	stream := s.stream
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case f, ok := <-stream.Frames():
		if !ok {
			return "", false, ErrNoFrame
		}
		outcome := s.arb.Recognize(ctx, f)
		if !outcome.OK() {
			s.recordMiss()
			return "", false, nil
		}
		text := isbn.Normalize(outcome.Candidate.Text)
		if !s.accept(outcome.Candidate.Text) {
			return "", false, nil
		}
		return text, true, nil
	}
}

// SwitchDevice tears the current stream fully down and reinitializes with
// the new device. The old stream is released before the new acquisition;
// two concurrently open streams never exist.
func (s *Session) SwitchDevice(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	switch s.state {
	case StateStreaming, StateDetecting, StateAwaitingManualCapture:
	default:
		st := s.state
		s.mu.Unlock()
		return errWrongState("switch device", st)
	}
	cancel := s.cancelLoop
	done := s.loopDone
	stream := s.stream
	s.cancelLoop = nil
	s.loopDone = nil
	s.stream = nil
	s.state = StateInitializing
	s.cfg.DeviceID = deviceID
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	if stream != nil {
		stream.Stop()
	}
	return s.initialize(ctx)
}

// activeStream exposes the open stream to in-package tests.
func (s *Session) activeStream() camera.Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// Close ends the session without a scan. Idempotent, callable from every
// state; this is the path that guarantees the camera is released.
func (s *Session) Close() {
	s.close(false, "")
}

// close is the single teardown path: cancels the loop, stops the stream,
// and fires exactly one terminal callback.
func (s *Session) close(scanned bool, text string) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	cancel := s.cancelLoop
	stream := s.stream
	s.cancelLoop = nil
	s.loopDone = nil
	s.stream = nil
	if scanned {
		s.delivered = true
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if stream != nil {
		stream.Stop()
	}
	slog.Info("scanner session closed", "session", s.id, "scanned", scanned)

	if scanned {
		if s.cb.OnScan != nil {
			s.cb.OnScan(text)
		}
		return
	}
	if s.cb.OnClose != nil {
		s.cb.OnClose()
	}
}
