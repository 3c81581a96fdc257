package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libriscan/libriscan/internal/testutil"
)

// rowFromModules expands a module pattern into a binarized scanline with a
// quiet zone on both sides, each module repeated moduleWidth times.
func rowFromModules(t *testing.T, digits string, moduleWidth, quietZone int) []bool {
	t.Helper()
	modules, err := testutil.EAN13Modules(digits)
	require.NoError(t, err)
	row := make([]bool, 0, (len(modules)+2*quietZone)*moduleWidth)
	pad := make([]bool, quietZone*moduleWidth)
	row = append(row, pad...)
	for i := range modules {
		for j := 0; j < moduleWidth; j++ {
			row = append(row, modules[i] == '1')
		}
	}
	return append(row, pad...)
}

func TestDecodeEAN13Row(t *testing.T) {
	codes := []string{
		"9788535914849", // parity LGGLGL
		"9788561721305",
		"4006381333931", // parity LGLLGG
		"0123456789012", // all-L parity
	}
	for _, code := range codes {
		for _, width := range []int{1, 2, 3} {
			row := rowFromModules(t, code, width, 10)
			got, ok := decodeEAN13Row(row)
			require.True(t, ok, "code %s width %d", code, width)
			assert.Equal(t, code, got)
		}
	}
}

func TestDecodeEAN13RowBadChecksum(t *testing.T) {
	// Structurally a perfect symbol, but the check digit is off by one.
	row := rowFromModules(t, "9788535914840", 2, 10)
	_, ok := decodeEAN13Row(row)
	assert.False(t, ok)
}

func TestDecodeEAN13RowNoSymbol(t *testing.T) {
	blank := make([]bool, 400)
	_, ok := decodeEAN13Row(blank)
	assert.False(t, ok)

	// Alternating single pixels: plenty of transitions, no valid structure.
	stripes := make([]bool, 400)
	for i := range stripes {
		stripes[i] = i%2 == 0
	}
	_, ok = decodeEAN13Row(stripes)
	assert.False(t, ok)

	_, ok = decodeEAN13Row(nil)
	assert.False(t, ok)
}

func TestRowRuns(t *testing.T) {
	runs := rowRuns([]bool{false, false, true, true, true, false})
	require.Len(t, runs, 3)
	assert.Equal(t, runLength{dark: false, width: 2}, runs[0])
	assert.Equal(t, runLength{dark: true, width: 3}, runs[1])
	assert.Equal(t, runLength{dark: false, width: 1}, runs[2])
}

func TestEAN13ChecksumOK(t *testing.T) {
	assert.True(t, ean13ChecksumOK([13]int{9, 7, 8, 8, 5, 3, 5, 9, 1, 4, 8, 4, 9}))
	assert.False(t, ean13ChecksumOK([13]int{9, 7, 8, 8, 5, 3, 5, 9, 1, 4, 8, 4, 0}))
}
