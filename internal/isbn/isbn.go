// Package isbn validates and normalizes International Standard Book Numbers.
//
// All functions are pure and operate on the digit-only form of the input:
// everything except digits and the ISBN-10 check character 'X' is stripped
// before any length or checksum rule is applied.
package isbn

import "strings"

// Normalize strips separators and noise from s, keeping digits and 'X'
// (uppercased). It does not validate the result.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'X' || r == 'x':
			b.WriteByte('X')
		}
	}
	return b.String()
}

// Validate reports whether s is a plausible ISBN-10 or ISBN-13 after
// normalization. Length must be exactly 10 or 13 and the checksum must match.
func Validate(s string) bool {
	n := Normalize(s)
	switch len(n) {
	case 10:
		return validISBN10(n)
	case 13:
		return validISBN13(n)
	default:
		return false
	}
}

// validISBN10 checks the weighted mod-11 checksum. Weights run 10..2 over the
// first nine digits; the check character contributes its value ('X' == 10).
func validISBN10(n string) bool {
	sum := 0
	for i := 0; i < 9; i++ {
		d := n[i]
		if d < '0' || d > '9' {
			return false
		}
		sum += int(d-'0') * (10 - i)
	}
	check := n[9]
	switch {
	case check == 'X':
		sum += 10
	case check >= '0' && check <= '9':
		sum += int(check - '0')
	default:
		return false
	}
	return sum%11 == 0
}

// validISBN13 checks the alternating 1/3-weighted mod-10 checksum.
func validISBN13(n string) bool {
	sum := 0
	for i := 0; i < 13; i++ {
		d := n[i]
		if d < '0' || d > '9' {
			return false
		}
		w := 1
		if i%2 == 1 {
			w = 3
		}
		sum += int(d-'0') * w
	}
	return sum%10 == 0
}

// ToISBN13 canonicalizes a valid ISBN-10 or ISBN-13 into the 13-digit form
// (978 prefix with a recomputed check digit for ISBN-10 input). The second
// return value is false when the input is not a valid ISBN at all.
func ToISBN13(s string) (string, bool) {
	n := Normalize(s)
	switch len(n) {
	case 13:
		if !validISBN13(n) {
			return "", false
		}
		return n, true
	case 10:
		if !validISBN10(n) {
			return "", false
		}
		body := "978" + n[:9]
		sum := 0
		for i := 0; i < 12; i++ {
			w := 1
			if i%2 == 1 {
				w = 3
			}
			sum += int(body[i]-'0') * w
		}
		check := (10 - sum%10) % 10
		return body + string(rune('0'+check)), true
	default:
		return "", false
	}
}

// Extract scans free text for ISBN-shaped substrings and returns the valid
// ones, normalized, in order of appearance and without duplicates. Each
// whitespace-separated token is tried on its own; when a line yields nothing
// that way, the line as a whole is tried once more so that digit groups split
// by spaces ("978 85 359 1484 9") are still found.
func Extract(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(token string) bool {
		n := Normalize(token)
		if len(n) != 10 && len(n) != 13 {
			return false
		}
		if !Validate(n) {
			return false
		}
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
		return true
	}

	for _, line := range strings.Split(text, "\n") {
		matched := false
		for _, tok := range strings.Fields(line) {
			if add(tok) {
				matched = true
			}
		}
		if !matched {
			add(line)
		}
	}
	return out
}
