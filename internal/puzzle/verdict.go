// internal/puzzle/verdict.go
//
// Evaluation results shared by every solution variant.
//
// Evaluators never fail: a wrong or unparsable answer is a Mismatch, an
// incomplete one is Pending.

package puzzle

import "errors"

// Verdict is the tri-state outcome of evaluating player input.
type Verdict string

const (
	Pending  Verdict = "pending"
	Match    Verdict = "match"
	Mismatch Verdict = "mismatch"
)

var (
	// ErrNotAccepted is returned when an input kind does not apply to the
	// attempt (e.g. a tap on a typed-answer level).
	ErrNotAccepted = errors.New("input not accepted by this level")
	// ErrOutOfRange is returned for a cell, slot or piece index the level
	// does not have.
	ErrOutOfRange = errors.New("index out of range")
)

// verdictOf maps a boolean comparison onto Match/Mismatch.
func verdictOf(ok bool) Verdict {
	if ok {
		return Match
	}
	return Mismatch
}
