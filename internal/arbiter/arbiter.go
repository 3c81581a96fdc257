// Package arbiter runs the enabled recognition backends against one frame
// and selects a single winning candidate.
package arbiter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/libriscan/libriscan/internal/backend"
	"github.com/libriscan/libriscan/internal/frame"
	"github.com/libriscan/libriscan/internal/isbn"
)

const (
	// DefaultMinConfidence is the inclusive acceptance floor.
	DefaultMinConfidence = 0.6

	// DefaultAttemptTimeout bounds a single backend attempt so one slow
	// backend cannot stall the whole arbitration.
	DefaultAttemptTimeout = 5 * time.Second
)

// Config controls candidate filtering and per-backend time budget.
type Config struct {
	MinConfidence  float64
	AttemptTimeout time.Duration
}

// DefaultConfig returns the default arbitration config.
func DefaultConfig() Config {
	return Config{
		MinConfidence:  DefaultMinConfidence,
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

// Outcome is the arbiter's final decision for one frame: the winning
// candidate, or nothing. Immutable once produced.
type Outcome struct {
	Candidate *backend.Candidate // nil means no result
	Attempted int                // backends invoked
	Produced  int                // non-nil candidates before filtering
	Valid     int                // candidates surviving ISBN validation
}

// OK reports whether the arbitration produced an accepted candidate.
func (o Outcome) OK() bool { return o.Candidate != nil }

// Arbiter fans one frame out to its backends and picks the best valid
// candidate. Backends are independent and side-effect-free, so they run
// concurrently.
type Arbiter struct {
	cfg      Config
	backends []backend.Backend
}

// New creates an arbiter over the given backends. The backend set is fixed at
// construction; callers wanting a different set build a new arbiter, which
// keeps test runs and scan sessions deterministic.
func New(cfg Config, backends ...backend.Backend) *Arbiter {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	return &Arbiter{cfg: cfg, backends: backends}
}

// Backends returns the configured backend set.
func (a *Arbiter) Backends() []backend.Backend { return a.backends }

// Recognize runs every backend against the frame, discards candidates whose
// text is not a valid ISBN, and selects the highest-confidence survivor.
// Ties break on backend priority (native > library > cloud-ocr > heuristic).
// A winner below the inclusive MinConfidence floor is rejected.
func (a *Arbiter) Recognize(ctx context.Context, f *frame.Frame) Outcome {
	out := Outcome{Attempted: len(a.backends)}
	if len(a.backends) == 0 || f == nil {
		return out
	}

	candidates := make([]*backend.Candidate, len(a.backends))
	var wg sync.WaitGroup
	for i, b := range a.backends {
		wg.Add(1)
		go func(i int, b backend.Backend) {
			defer wg.Done()
			attemptCtx, cancel := context.WithTimeout(ctx, a.cfg.AttemptTimeout)
			defer cancel()
			candidates[i] = b.Attempt(attemptCtx, f)
		}(i, b)
	}
	wg.Wait()

	var best *backend.Candidate
	for _, c := range candidates {
		if c == nil {
			continue
		}
		out.Produced++
		if !isbn.Validate(c.Text) {
			slog.Debug("discarding non-ISBN candidate",
				"method", c.Method.String(), "text", c.Text)
			continue
		}
		out.Valid++
		if better(c, best) {
			best = c
		}
	}

	if best == nil || best.Confidence < a.cfg.MinConfidence {
		return out
	}
	out.Candidate = best
	return out
}

// better reports whether a should win over the current best b.
func better(a, b *backend.Candidate) bool {
	if b == nil {
		return true
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.Method.Priority() > b.Method.Priority()
}
