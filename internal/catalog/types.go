// internal/catalog/types.go
//
// Type definitions for the level catalog.
// Defines:
//   - SolutionKind / SolutionSpec: what a level accepts as a solution.
//   - EffectKind / Effect: what happens when a level is solved.
//   - LevelDefinition: one immutable level record.
//
// Everything here is plain data. Effects are interpreted by the progress
// controller; the catalog never runs code on its own.

package catalog

import "time"

// SolutionKind tags the variant held by a SolutionSpec.
type SolutionKind int

const (
	ExactString          SolutionKind = iota // typed word, case/whitespace-insensitive
	ExactInt                                 // typed integer
	OrderedIndexSequence                     // fixed sequence of cell taps
	DynamicSequence                          // sequence generated per attempt
	Assembly                                 // four pieces into four slots
)

var solutionKindNames = map[SolutionKind]string{
	ExactString:          "exact_string",
	ExactInt:             "exact_int",
	OrderedIndexSequence: "ordered_sequence",
	DynamicSequence:      "dynamic_sequence",
	Assembly:             "assembly",
}

func (k SolutionKind) String() string {
	if s, ok := solutionKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// MarshalText renders the kind as its snake_case name in JSON.
func (k SolutionKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// SolutionSpec is a tagged union; only the fields of Kind are meaningful.
type SolutionSpec struct {
	Kind SolutionKind

	Text   string // ExactString
	Number int    // ExactInt

	Sequence []int // OrderedIndexSequence

	// DynamicSequence: Length symbols drawn from 0..Alphabet-1.
	Length   int
	Alphabet int
	Distinct bool // no symbol repeats within one sequence

	// Assembly: Slots[i] is the piece expected in slot i.
	Slots [4]int
}

// EffectKind identifies an on-solve effect.
type EffectKind int

const (
	RevealLetter EffectKind = iota // set FinalWord[Index] in the revealed letters
	AddWord                        // add Word to the discovered words
	Transition                     // cosmetic transition, Name says which
	EndGame                        // switch to the end-of-game screen
)

func (k EffectKind) String() string {
	switch k {
	case RevealLetter:
		return "reveal_letter"
	case AddWord:
		return "add_word"
	case Transition:
		return "transition"
	case EndGame:
		return "end_game"
	}
	return "unknown"
}

// MarshalText renders the kind as its snake_case name in JSON.
func (k EffectKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Effect is one entry of a level's on-solve list.
type Effect struct {
	Kind  EffectKind `json:"kind"`
	Index int        `json:"index,omitempty"`
	Word  string     `json:"word,omitempty"`
	Name  string     `json:"name,omitempty"`
}

// LevelDefinition is a single immutable level.
type LevelDefinition struct {
	ID          int
	Title       string
	Description string
	Solution    SolutionSpec
	Hint        string
	SuccessText string
	Effects     []Effect

	// Labels names the tappable cells/symbols/pieces, index-aligned.
	Labels []string
	// Investigation is staged text revealed before the level accepts input.
	Investigation []string
	// TapCooldown drops taps that follow the previous accepted tap too closely.
	TapCooldown time.Duration
	// RevealHold is how long each cell of a generated sequence stays shown.
	RevealHold time.Duration
}

// NeedsReveal reports whether the level takes input only after a reveal has
// played: the generated sequence for dynamic levels, the clue for levels with
// investigation text.
func (l LevelDefinition) NeedsReveal() bool {
	return l.Solution.Kind == DynamicSequence || len(l.Investigation) > 0
}

// clone copies l including every slice it holds.
func (l LevelDefinition) clone() LevelDefinition {
	l.Solution.Sequence = append([]int(nil), l.Solution.Sequence...)
	l.Effects = append([]Effect(nil), l.Effects...)
	l.Labels = append([]string(nil), l.Labels...)
	l.Investigation = append([]string(nil), l.Investigation...)
	return l
}

// CellCount reports how many distinct cell indices a tap on this level may
// carry, or 0 when the level takes no taps.
func (l LevelDefinition) CellCount() int {
	switch l.Solution.Kind {
	case DynamicSequence:
		return l.Solution.Alphabet
	case OrderedIndexSequence:
		return len(l.Labels)
	}
	return 0
}
