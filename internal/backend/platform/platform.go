// Package platform is the registration point for an on-device barcode
// detection capability. The default build registers nothing; a platform
// integration (mobile bindings, a vendor SDK wrapper) calls Register from its
// init function, the same way optional decode backends are linked in
// elsewhere in this codebase.
package platform

import (
	"context"
	"image"
	"sync"
)

// Result is one raw decode produced by the platform detector.
type Result struct {
	Text   string
	Format string
}

// Detector is the capability contract a platform integration provides.
type Detector interface {
	// Detect returns zero or more decoded symbols found in img.
	Detect(ctx context.Context, img image.Image) ([]Result, error)
}

var (
	mu       sync.RWMutex
	detector Detector
)

// Register installs the process-wide platform detector. Later calls replace
// earlier ones; Register(nil) removes the detector.
func Register(d Detector) {
	mu.Lock()
	defer mu.Unlock()
	detector = d
}

// Registered returns the installed detector, or nil when the build carries
// none.
func Registered() Detector {
	mu.RLock()
	defer mu.RUnlock()
	return detector
}
