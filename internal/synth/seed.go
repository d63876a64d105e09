// Package synth generates deterministic stand-in data for things the
// backend does not provide yet: assignments, exams, staff events, rooms
// and dashboard figures.
//
// Every value is derived from a Seed, the sum of the UTF-16 code units at
// the start and end of a course code. The same code always
// produces the same output, so nothing has to be stored.
package synth

import "unicode/utf16"

// Seed is the deterministic input for all synthetic quantities.
type Seed int

// SeedOf returns the seed of a course code. Characters outside the Basic
// Multilingual Plane count as their surrogate halves. Empty codes yield 0.
func SeedOf(code string) Seed {
	u := utf16.Encode([]rune(code))
	if len(u) == 0 {
		return 0
	}
	return Seed(int(u[0]) + int(u[len(u)-1]))
}

// Mod returns seed mod n, or 0 when n is not positive.
func (s Seed) Mod(n int) int {
	if n <= 0 {
		return 0
	}
	m := int(s) % n
	if m < 0 {
		m += n
	}
	return m
}

// Span returns base + (seed + offset) mod n.
func (s Seed) Span(base, n, offset int) int {
	return base + (s + Seed(offset)).Mod(n)
}

// Pick selects options[seed mod len(options)]. It returns the zero value
// for an empty slice.
func Pick[T any](s Seed, options []T) T {
	var zero T
	if len(options) == 0 {
		return zero
	}
	return options[s.Mod(len(options))]
}
