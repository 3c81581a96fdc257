package backend

import (
	"context"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"

	"github.com/libriscan/libriscan/internal/frame"
)

// gozxing exposes no calibrated confidence; a fixed constant slightly below
// the native detector reflects its occasional misreads on blurry frames.
const libraryConfidence = 0.8

// bookSymbologies is the allow-list relevant to book barcodes.
var bookSymbologies = []gozxing.BarcodeFormat{
	gozxing.BarcodeFormat_EAN_13,
	gozxing.BarcodeFormat_EAN_8,
	gozxing.BarcodeFormat_CODE_128,
	gozxing.BarcodeFormat_CODE_39,
	gozxing.BarcodeFormat_UPC_A,
	gozxing.BarcodeFormat_UPC_E,
}

// Library runs the gozxing one-dimensional multi-format reader against the
// frame. This is the required fallback path: it works on any raster the
// session captures, whether it originated from a live stream or a still
// image.
type Library struct {
	hints map[gozxing.DecodeHintType]interface{}
}

// NewLibrary returns the gozxing-backed decoder configured for book
// symbologies.
func NewLibrary() *Library {
	return &Library{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_POSSIBLE_FORMATS: bookSymbologies,
			gozxing.DecodeHintType_TRY_HARDER:       true,
		},
	}
}

func (l *Library) Name() string { return MethodLibrary.String() }

func (l *Library) Attempt(_ context.Context, f *frame.Frame) *Candidate {
	return attemptSafely(l.Name(), func() *Candidate {
		bmp, err := gozxing.NewBinaryBitmapFromImage(f.Image())
		if err != nil {
			return nil
		}
		reader := oned.NewMultiFormatOneDReader(l.hints)
		result, err := reader.Decode(bmp, l.hints)
		if err != nil || result == nil {
			// NotFound is the expected steady-state miss, not a failure.
			return nil
		}
		return &Candidate{
			Text:       result.GetText(),
			Format:     result.GetBarcodeFormat().String(),
			Confidence: libraryConfidence,
			Method:     MethodLibrary,
		}
	})
}
