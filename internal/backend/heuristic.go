package backend

import (
	"context"

	"github.com/libriscan/libriscan/internal/frame"
)

const (
	heuristicThreshold uint8 = 128
	heuristicMaxSide         = 800

	// An EAN-13 scanline crosses 59 bars and spaces; rows with far fewer
	// transitions cannot hold a symbol, rows with far more are noise.
	minRowTransitions = 45
	maxRowTransitions = 160

	heuristicScanlines = 9

	// Last-resort path: confidence stays at or below 0.7 by design.
	confidenceAgreeingLines = 0.7
	confidenceSingleLine    = 0.55
)

// Heuristic binarizes the frame, locates the most bar-dense horizontal band,
// and runs an EAN-13 run-length decode over sampled scanlines. It is the
// low-confidence fallback for hosts with neither a native detector nor a
// usable library path, and it misses often; a miss is the expected outcome.
type Heuristic struct{}

// NewHeuristic returns the pixel-analysis backend.
func NewHeuristic() *Heuristic { return &Heuristic{} }

func (h *Heuristic) Name() string { return MethodHeuristic.String() }

func (h *Heuristic) Attempt(ctx context.Context, f *frame.Frame) *Candidate {
	return attemptSafely(h.Name(), func() *Candidate {
		g := f.Downscale(heuristicMaxSide)
		top, bottom, ok := findBarBand(g)
		if !ok {
			return nil
		}

		votes := make(map[string]int)
		step := (bottom - top) / heuristicScanlines
		if step < 1 {
			step = 1
		}
		for y := top; y <= bottom; y += step {
			if ctx.Err() != nil {
				return nil
			}
			if s, decoded := decodeEAN13Row(binarizeRow(g, y)); decoded {
				votes[s]++
			}
		}

		best, count := "", 0
		for s, n := range votes {
			if n > count || (n == count && s < best) {
				best, count = s, n
			}
		}
		if count == 0 {
			return nil
		}
		conf := confidenceSingleLine
		if count >= 2 {
			conf = confidenceAgreeingLines
		}
		return &Candidate{
			Text:       best,
			Format:     "EAN_13",
			Confidence: conf,
			Method:     MethodHeuristic,
		}
	})
}

func binarizeRow(f *frame.Frame, y int) []bool {
	row := f.Row(y)
	bits := make([]bool, len(row))
	for i, p := range row {
		bits[i] = p < heuristicThreshold
	}
	return bits
}

// findBarBand samples rows and returns the longest contiguous band whose
// transition counts are consistent with a barcode region.
func findBarBand(f *frame.Frame) (top, bottom int, ok bool) {
	step := f.Height / 64
	if step < 1 {
		step = 1
	}

	bestTop, bestBottom := -1, -1
	curTop := -1
	var lastQualifying int
	for y := 0; y < f.Height; y += step {
		n := rowTransitions(binarizeRow(f, y))
		if n >= minRowTransitions && n <= maxRowTransitions {
			if curTop < 0 {
				curTop = y
			}
			lastQualifying = y
			continue
		}
		if curTop >= 0 {
			if bestTop < 0 || lastQualifying-curTop > bestBottom-bestTop {
				bestTop, bestBottom = curTop, lastQualifying
			}
			curTop = -1
		}
	}
	if curTop >= 0 && (bestTop < 0 || lastQualifying-curTop > bestBottom-bestTop) {
		bestTop, bestBottom = curTop, lastQualifying
	}
	if bestTop < 0 {
		return 0, 0, false
	}
	return bestTop, bestBottom, true
}

func rowTransitions(bits []bool) int {
	n := 0
	for i := 1; i < len(bits); i++ {
		if bits[i] != bits[i-1] {
			n++
		}
	}
	return n
}
