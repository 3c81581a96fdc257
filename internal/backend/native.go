package backend

import (
	"context"
	"sync"

	"github.com/libriscan/libriscan/internal/backend/platform"
	"github.com/libriscan/libriscan/internal/frame"
	"github.com/libriscan/libriscan/internal/isbn"
)

// Platform decoders require a fully-formed symbol and reject most partial
// reads on their own, so a high constant stands in for the confidence they do
// not expose.
const nativeConfidence = 0.9

// Native delegates to an on-device barcode detection capability when one is
// registered. The capability probe runs once and is cached; without a
// detector every attempt returns nil immediately, with no per-frame overhead.
type Native struct {
	probeOnce sync.Once
	detector  platform.Detector
}

// NewNative returns the native-platform backend.
func NewNative() *Native { return &Native{} }

func (n *Native) Name() string { return MethodNative.String() }

// Supported reports whether the platform provides a detector. Cached after
// the first call.
func (n *Native) Supported() bool {
	n.probeOnce.Do(func() { n.detector = platform.Registered() })
	return n.detector != nil
}

func (n *Native) Attempt(ctx context.Context, f *frame.Frame) *Candidate {
	if !n.Supported() {
		return nil
	}
	return attemptSafely(n.Name(), func() *Candidate {
		results, err := n.detector.Detect(ctx, f.Image())
		if err != nil || len(results) == 0 {
			return nil
		}
		// Prefer an ISBN-shaped read when the detector returns several symbols.
		pick := results[0]
		for _, r := range results {
			if isbn.Validate(r.Text) {
				pick = r
				break
			}
		}
		return &Candidate{
			Text:       pick.Text,
			Format:     pick.Format,
			Confidence: nativeConfidence,
			Method:     MethodNative,
		}
	})
}
