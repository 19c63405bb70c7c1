// internal/puzzle/sequence.go
//
// Ordered tap sequences, used by both the fixed symbol level and the
// generated grid/tone levels.
//
// The check is fail-fast: every new tap is compared against the expected
// prefix, so a wrong tap is reported immediately instead of after the full
// length has been entered.

package puzzle

import "math/rand/v2"

// CheckPrefix evaluates input against expected.
//   - Mismatch as soon as any entered position differs (or input is too long).
//   - Match when input equals expected in full.
//   - Pending otherwise.
func CheckPrefix(expected, input []int) Verdict {
	if len(input) > len(expected) {
		return Mismatch
	}
	for i, v := range input {
		if expected[i] != v {
			return Mismatch
		}
	}
	if len(input) == len(expected) {
		return Match
	}
	return Pending
}

// Sequence holds the expected order and the taps entered so far.
type Sequence struct {
	expected []int
	input    []int
}

// NewSequence starts an empty attempt against expected.
func NewSequence(expected []int) *Sequence {
	return &Sequence{expected: append([]int(nil), expected...)}
}

// Tap appends one selection and evaluates the prefix.
func (s *Sequence) Tap(v int) Verdict {
	s.input = append(s.input, v)
	return CheckPrefix(s.expected, s.input)
}

// Expected returns a copy of the expected order.
func (s *Sequence) Expected() []int { return append([]int(nil), s.expected...) }

// Entered returns a copy of the taps so far.
func (s *Sequence) Entered() []int { return append([]int(nil), s.input...) }

// FailedAt is the index of the last entered tap, or -1 before any tap.
// After a Mismatch it names the position that failed.
func (s *Sequence) FailedAt() int { return len(s.input) - 1 }

// Clear drops the entered taps, keeping the expected order.
func (s *Sequence) Clear() { s.input = nil }

// Generator describes a random sequence: Length symbols from 0..Alphabet-1.
type Generator struct {
	Length   int
	Alphabet int
	Distinct bool
}

// regenerateTries bounds the retries spent avoiding the previous sequence.
const regenerateTries = 32

// Generate draws a fresh sequence from r.
// With Distinct set, Length must not exceed Alphabet.
func (g Generator) Generate(r *rand.Rand) []int {
	out := make([]int, 0, g.Length)
	if g.Distinct {
		// Partial Fisher-Yates over the alphabet.
		pool := make([]int, g.Alphabet)
		for i := range pool {
			pool[i] = i
		}
		for i := 0; i < g.Length; i++ {
			j := i + r.IntN(len(pool)-i)
			pool[i], pool[j] = pool[j], pool[i]
			out = append(out, pool[i])
		}
		return out
	}
	for i := 0; i < g.Length; i++ {
		out = append(out, r.IntN(g.Alphabet))
	}
	return out
}

// Regenerate draws a replacement for prev. When pos indexes prev, the new
// sequence differs at pos (the tap that failed); otherwise it differs
// anywhere. A collision on the last try is accepted rather than looping
// forever.
func (g Generator) Regenerate(r *rand.Rand, prev []int, pos int) []int {
	var next []int
	for i := 0; i < regenerateTries; i++ {
		next = g.Generate(r)
		if pos >= 0 && pos < len(prev) && pos < len(next) {
			if next[pos] != prev[pos] {
				return next
			}
			continue
		}
		if !equalInts(next, prev) {
			return next
		}
	}
	return next
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
