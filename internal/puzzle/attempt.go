// internal/puzzle/attempt.go
//
// Attempt is the ephemeral per-level state: generated sequences, taps
// entered so far, assembly board. It is created when a level is entered and
// discarded on solve or level change; it is never persisted.
//
// Failure policy (applied inside the attempt, immediately):
//   - fixed sequence: entered taps are cleared, the order stays.
//   - generated sequence: a brand-new sequence is drawn.
//   - assembly: the whole board is cleared.

package puzzle

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/twoworlds/puzzle-server/internal/catalog"
)

// Attempt evaluates input for one level.
type Attempt struct {
	def   catalog.LevelDefinition
	rng   *rand.Rand
	gen   *Generator
	seq   *Sequence
	board *Assembly

	lastTap time.Time
}

// NewAttempt prepares the attempt state for def, drawing any generated
// sequence from r.
func NewAttempt(def catalog.LevelDefinition, r *rand.Rand) *Attempt {
	a := &Attempt{def: def, rng: r}
	sol := def.Solution
	switch sol.Kind {
	case catalog.OrderedIndexSequence:
		a.seq = NewSequence(sol.Sequence)
	case catalog.DynamicSequence:
		a.gen = &Generator{Length: sol.Length, Alphabet: sol.Alphabet, Distinct: sol.Distinct}
		a.seq = NewSequence(a.gen.Generate(r))
	case catalog.Assembly:
		a.board = NewAssembly(sol.Slots)
	}
	return a
}

// Level is the id of the level this attempt belongs to.
func (a *Attempt) Level() int { return a.def.ID }

// Answer evaluates a typed answer.
func (a *Attempt) Answer(raw string) (Verdict, error) {
	switch a.def.Solution.Kind {
	case catalog.ExactString:
		return MatchString(a.def.Solution.Text, raw), nil
	case catalog.ExactInt:
		return MatchInt(a.def.Solution.Number, raw), nil
	}
	return Pending, ErrNotAccepted
}

// Tap records a cell selection at time now. ignored is true when the tap
// fell inside the level's cooldown and was dropped without evaluation.
func (a *Attempt) Tap(cell int, now time.Time) (v Verdict, ignored bool, err error) {
	if a.seq == nil {
		return Pending, false, ErrNotAccepted
	}
	if n := a.def.CellCount(); cell < 0 || cell >= n {
		return Pending, false, fmt.Errorf("cell %d of %d: %w", cell, n, ErrOutOfRange)
	}
	if cd := a.def.TapCooldown; cd > 0 && !a.lastTap.IsZero() && now.Sub(a.lastTap) < cd {
		return Pending, true, nil
	}
	a.lastTap = now

	v = a.seq.Tap(cell)
	if v == Mismatch {
		a.fail()
	}
	return v, false, nil
}

// Place puts a piece on the assembly board.
func (a *Attempt) Place(slot Slot, piece int) (Verdict, error) {
	if a.board == nil {
		return Pending, ErrNotAccepted
	}
	return a.board.Place(slot, piece)
}

// Restart begins a new round: generated sequences are redrawn and any
// entered input is cleared.
func (a *Attempt) Restart() {
	switch {
	case a.gen != nil:
		a.seq = NewSequence(a.gen.Regenerate(a.rng, a.seq.expected, -1))
	case a.seq != nil:
		a.seq.Clear()
	case a.board != nil:
		a.board.Clear()
	}
	a.lastTap = time.Time{}
}

func (a *Attempt) fail() {
	switch {
	case a.gen != nil:
		a.seq = NewSequence(a.gen.Regenerate(a.rng, a.seq.expected, a.seq.FailedAt()))
	case a.seq != nil:
		a.seq.Clear()
	}
}

// Sequence returns the order the player must reproduce, nil for levels
// without one.
func (a *Attempt) Sequence() []int {
	if a.seq == nil {
		return nil
	}
	return a.seq.Expected()
}

// Generated reports whether the sequence is drawn at random per round.
func (a *Attempt) Generated() bool { return a.gen != nil }

// Entered returns the taps entered in the current round.
func (a *Attempt) Entered() []int {
	if a.seq == nil {
		return nil
	}
	return a.seq.Entered()
}

// Board returns the assembly board, or false when the level has none.
func (a *Attempt) Board() ([4]int, bool) {
	if a.board == nil {
		return [4]int{}, false
	}
	return a.board.Board(), true
}
