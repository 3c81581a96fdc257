package isbn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain digits", "9788535914849", "9788535914849"},
		{"hyphenated", "978-85-359-1484-9", "9788535914849"},
		{"spaces and dots", "0 306.40615 2", "0306406152"},
		{"lowercase x", "080442957x", "080442957X"},
		{"surrounding text", "ISBN: 9788535914849", "9788535914849"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid isbn13", "9788535914849", true},
		{"valid isbn13 hyphenated", "978-85-359-1484-9", true},
		{"valid isbn13 second", "9788561721305", true},
		{"isbn13 bad check digit", "9788535914840", false},
		{"valid isbn10", "0306406152", true},
		{"valid isbn10 X check", "080442957X", true},
		{"valid isbn10 lowercase x", "080442957x", true},
		{"isbn10 bad check digit", "0306406153", false},
		{"too short", "12345", false},
		{"too long", "97885359148491", false},
		{"letters only", "garbage", false},
		{"X in the middle", "03064X6152", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.input))
		})
	}
}

func TestValidateIdempotent(t *testing.T) {
	inputs := []string{"9788535914849", "garbage", "", "080442957X"}
	for _, in := range inputs {
		first := Validate(in)
		second := Validate(in)
		assert.Equal(t, first, second, "input %q", in)
	}
}

func TestToISBN13(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"isbn13 passes through", "9788535914849", "9788535914849", true},
		{"isbn10 converts", "0306406152", "9780306406157", true},
		{"isbn10 X check converts", "080442957X", "9780804429573", true},
		{"invalid isbn10", "0306406153", "", false},
		{"invalid isbn13", "9788535914840", "", false},
		{"wrong length", "12345", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToISBN13(tt.input)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single isbn in prose",
			text: "Edition notice ISBN 9788535914849 printed in Brazil",
			want: []string{"9788535914849"},
		},
		{
			name: "hyphenated",
			text: "ISBN: 978-85-359-1484-9",
			want: []string{"9788535914849"},
		},
		{
			name: "duplicate collapsed",
			text: "9788561721305 9788561721305",
			want: []string{"9788561721305"},
		},
		{
			name: "digit groups split by spaces",
			text: "978 85 359 1484 9",
			want: []string{"9788535914849"},
		},
		{
			name: "isbn10 with X",
			text: "catalogued as 080442957X today",
			want: []string{"080442957X"},
		},
		{
			name: "invalid checksum ignored",
			text: "9788535914840",
			want: nil,
		},
		{
			name: "no numbers",
			text: "no identifiers here",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text))
		})
	}
}
