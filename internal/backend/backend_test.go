package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMethodString(t *testing.T) {
	tests := []struct {
		method Method
		want   string
	}{
		{MethodNative, "native-detector"},
		{MethodLibrary, "library-decoder"},
		{MethodCloudOCR, "cloud-ocr"},
		{MethodHeuristic, "heuristic-analysis"},
		{MethodUnknown, "unknown"},
		{Method(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.method.String())
	}
}

func TestMethodPriorityOrder(t *testing.T) {
	assert.Greater(t, MethodNative.Priority(), MethodLibrary.Priority())
	assert.Greater(t, MethodLibrary.Priority(), MethodCloudOCR.Priority())
	assert.Greater(t, MethodCloudOCR.Priority(), MethodHeuristic.Priority())
	assert.Greater(t, MethodHeuristic.Priority(), MethodUnknown.Priority())
}

func TestAttemptSafelyRecovers(t *testing.T) {
	c := attemptSafely("test", func() *Candidate {
		panic("boom")
	})
	assert.Nil(t, c)

	c = attemptSafely("test", func() *Candidate {
		return &Candidate{Text: "ok"}
	})
	assert.Equal(t, "ok", c.Text)
}
