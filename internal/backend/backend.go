// Package backend contains the recognition strategies that turn a camera
// frame into a decoded barcode candidate. Every strategy implements the same
// contract and may fail freely: failures surface as a nil candidate, never as
// an error, so the arbitration layer can always continue with the remaining
// strategies.
package backend

import (
	"context"
	"log/slog"

	"github.com/libriscan/libriscan/internal/frame"
)

// Method identifies which recognition strategy produced a candidate.
type Method int

const (
	MethodUnknown Method = iota
	MethodNative
	MethodLibrary
	MethodCloudOCR
	MethodHeuristic
)

// String returns the stable wire/log name of the method.
func (m Method) String() string {
	switch m {
	case MethodNative:
		return "native-detector"
	case MethodLibrary:
		return "library-decoder"
	case MethodCloudOCR:
		return "cloud-ocr"
	case MethodHeuristic:
		return "heuristic-analysis"
	default:
		return "unknown"
	}
}

// Priority orders methods by reliability for tie-breaking equal confidences.
// Higher wins.
func (m Method) Priority() int {
	switch m {
	case MethodNative:
		return 4
	case MethodLibrary:
		return 3
	case MethodCloudOCR:
		return 2
	case MethodHeuristic:
		return 1
	default:
		return 0
	}
}

// Candidate is the result produced by one backend for one frame.
type Candidate struct {
	Text       string  // raw decoded string
	Format     string  // symbology or method tag, e.g. "EAN_13"
	Confidence float64 // 0.0 - 1.0
	Method     Method
}

// Backend is one strategy for decoding a frame.
//
// Attempt never returns an error and never panics across the boundary: any
// internal failure, including a miss, yields nil. The context bounds the
// attempt; implementations doing I/O must honor cancellation.
type Backend interface {
	Name() string
	Attempt(ctx context.Context, f *frame.Frame) *Candidate
}

// attemptSafely runs fn and converts a panic into a nil candidate. Decoder
// libraries fed hostile rasters occasionally panic; that must never abort the
// evaluation of the other backends.
func attemptSafely(name string, fn func() *Candidate) (c *Candidate) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("recognition backend panicked", "backend", name, "panic", r)
			c = nil
		}
	}()
	return fn()
}
