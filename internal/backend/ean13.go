package backend

import "math"

// EAN-13 run-length decoding over one binarized scanline.
//
// A symbol is 59 alternating runs: start guard (3), six left digits (4 runs
// each, L or G parity), middle guard (5), six right digits (4 runs each, R),
// end guard (3). Left-digit parity encodes the leading thirteenth digit.

type runLength struct {
	dark  bool
	width int
}

// leftWidths holds the module widths of the L-codes; R-codes share the same
// width sequences with inverted colors.
var leftWidths = [10][4]int{
	{3, 2, 1, 1}, // 0
	{2, 2, 2, 1}, // 1
	{2, 1, 2, 2}, // 2
	{1, 4, 1, 1}, // 3
	{1, 1, 3, 2}, // 4
	{1, 2, 3, 1}, // 5
	{1, 1, 1, 4}, // 6
	{1, 3, 1, 2}, // 7
	{1, 2, 1, 3}, // 8
	{3, 1, 1, 2}, // 9
}

var evenWidths = [10][4]int{
	{1, 1, 2, 3}, // 0
	{1, 2, 2, 2}, // 1
	{2, 2, 1, 2}, // 2
	{1, 1, 4, 1}, // 3
	{2, 3, 1, 1}, // 4
	{1, 3, 2, 1}, // 5
	{4, 1, 1, 1}, // 6
	{2, 1, 3, 1}, // 7
	{3, 1, 2, 1}, // 8
	{2, 1, 1, 3}, // 9
}

// firstDigitParity maps the left-half parity sequence ('L' odd, 'G' even) to
// the implied leading digit.
var firstDigitParity = map[string]int{
	"LLLLLL": 0,
	"LLGLGG": 1,
	"LLGGLG": 2,
	"LLGGGL": 3,
	"LGLLGG": 4,
	"LGGLLG": 5,
	"LGGGLL": 6,
	"LGLGLG": 7,
	"LGLGGL": 8,
	"LGGLGL": 9,
}

type leftDigit struct {
	digit  int
	parity byte
}

var (
	leftLookup  map[[4]int]leftDigit
	rightLookup map[[4]int]int
)

func init() {
	leftLookup = make(map[[4]int]leftDigit, 20)
	rightLookup = make(map[[4]int]int, 10)
	for d := 0; d < 10; d++ {
		leftLookup[leftWidths[d]] = leftDigit{digit: d, parity: 'L'}
		leftLookup[evenWidths[d]] = leftDigit{digit: d, parity: 'G'}
		rightLookup[leftWidths[d]] = d
	}
}

// rowRuns collapses a binarized scanline into alternating runs.
func rowRuns(row []bool) []runLength {
	if len(row) == 0 {
		return nil
	}
	runs := make([]runLength, 0, 64)
	cur := runLength{dark: row[0], width: 1}
	for _, bit := range row[1:] {
		if bit == cur.dark {
			cur.width++
			continue
		}
		runs = append(runs, cur)
		cur = runLength{dark: bit, width: 1}
	}
	return append(runs, cur)
}

// decodeEAN13Row tries every dark run as a potential start guard and returns
// the first symbol whose structure and check digit both hold.
func decodeEAN13Row(row []bool) (string, bool) {
	runs := rowRuns(row)
	for i := range runs {
		if !runs[i].dark {
			continue
		}
		if s, ok := decodeEAN13At(runs, i); ok {
			return s, true
		}
	}
	return "", false
}

const symbolRuns = 59

func decodeEAN13At(runs []runLength, start int) (string, bool) {
	if start+symbolRuns > len(runs) {
		return "", false
	}
	if !guardOK(runs[start:start+3]) {
		return "", false
	}

	var digits [13]int
	parity := make([]byte, 0, 6)
	j := start + 3
	for d := 0; d < 6; d++ {
		ld, ok := matchLeft(runs[j : j+4])
		if !ok {
			return "", false
		}
		digits[d+1] = ld.digit
		parity = append(parity, ld.parity)
		j += 4
	}

	// Middle guard: five single-module runs starting light.
	if runs[j].dark || !guardOK(runs[j:j+5]) {
		return "", false
	}
	j += 5

	for d := 0; d < 6; d++ {
		dg, ok := matchRight(runs[j : j+4])
		if !ok {
			return "", false
		}
		digits[d+7] = dg
		j += 4
	}

	if !runs[j].dark || !guardOK(runs[j:j+3]) {
		return "", false
	}

	first, ok := firstDigitParity[string(parity)]
	if !ok {
		return "", false
	}
	digits[0] = first

	if !ean13ChecksumOK(digits) {
		return "", false
	}

	out := make([]byte, 13)
	for i, d := range digits {
		out[i] = byte('0' + d)
	}
	return string(out), true
}

// guardOK checks that every run in the window is within tolerance of the
// window's average width, i.e. the runs form a 1-module-per-run guard.
func guardOK(window []runLength) bool {
	total := 0
	for _, r := range window {
		total += r.width
	}
	avg := float64(total) / float64(len(window))
	if avg < 1 {
		return false
	}
	for _, r := range window {
		if math.Abs(float64(r.width)-avg) > 0.5*avg {
			return false
		}
	}
	return true
}

// modulesKey normalizes four runs to their 7-module widths.
func modulesKey(window []runLength) ([4]int, bool) {
	total := 0
	for _, r := range window {
		total += r.width
	}
	if total < 4 {
		return [4]int{}, false
	}
	unit := float64(total) / 7.0
	var key [4]int
	sum := 0
	for i, r := range window {
		m := int(math.Round(float64(r.width) / unit))
		if m < 1 {
			m = 1
		}
		if m > 4 {
			m = 4
		}
		key[i] = m
		sum += m
	}
	if sum != 7 {
		return key, false
	}
	return key, true
}

// matchLeft decodes a left-half digit (runs light,dark,light,dark).
func matchLeft(window []runLength) (leftDigit, bool) {
	if window[0].dark {
		return leftDigit{}, false
	}
	key, ok := modulesKey(window)
	if !ok {
		return leftDigit{}, false
	}
	ld, ok := leftLookup[key]
	return ld, ok
}

// matchRight decodes a right-half digit (runs dark,light,dark,light).
func matchRight(window []runLength) (int, bool) {
	if !window[0].dark {
		return 0, false
	}
	key, ok := modulesKey(window)
	if !ok {
		return 0, false
	}
	d, ok := rightLookup[key]
	return d, ok
}

func ean13ChecksumOK(digits [13]int) bool {
	sum := 0
	for i := 0; i < 12; i++ {
		w := 1
		if i%2 == 1 {
			w = 3
		}
		sum += digits[i] * w
	}
	return (10-sum%10)%10 == digits[12]
}
