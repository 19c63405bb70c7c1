// internal/catalog/levels.go
//
// The seven levels of Two Worlds, in play order.
// Level n (1..6) reveals FinalWord[n-1]; level 7 asks for the whole word.

package catalog

import (
	"fmt"
	"time"
)

// FinalWord is the phrase assembled from the revealed letters.
const FinalWord = "WTHBRUH"

// Slot positions of the assembly board.
const (
	SlotTopLeft = iota
	SlotTopRight
	SlotBottomLeft
	SlotBottomRight
)

var levels = []LevelDefinition{
	{
		ID:          1,
		Title:       "The Archive",
		Description: "Belgium – Order",
		Solution:    SolutionSpec{Kind: ExactString, Text: "MONKEY"},
		Hint:        "Look at the first letter of each capitalized word in the riddle: Mystic, Offerings, Nazca, Knowledge, Elder, Yugas.",
		SuccessText: "The archive reveals its first secret.",
		Effects: []Effect{
			{Kind: AddWord, Word: "MONKEY"},
			{Kind: RevealLetter, Index: 0},
		},
	},
	{
		ID:          2,
		Title:       "The Grid",
		Description: "Geometric Pattern",
		Solution:    SolutionSpec{Kind: DynamicSequence, Length: 4, Alphabet: 9, Distinct: true},
		Hint:        "Remember the positions of the numbers on the grid. Tap them in the order they appeared.",
		SuccessText: "The grid transforms...",
		Effects: []Effect{
			{Kind: Transition, Name: "grid_nazca"},
			{Kind: RevealLetter, Index: 1},
		},
		Labels:     []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"},
		RevealHold: 1300 * time.Millisecond,
	},
	{
		ID:          3,
		Title:       "Height",
		Description: "Belgium vs Peru",
		Solution:    SolutionSpec{Kind: ExactInt, Number: 2249},
		Hint:        "Subtract the smaller number from the larger one. Investigate first to reveal the clue.",
		SuccessText: "The mountains call...",
		Effects: []Effect{
			{Kind: Transition, Name: "machu_picchu"},
			{Kind: RevealLetter, Index: 2},
		},
		Investigation: []string{"2", "24", "243", "2430m"},
	},
	{
		ID:          4,
		Title:       "Symmetry",
		Description: "Nazca Influence",
		Solution:    SolutionSpec{Kind: OrderedIndexSequence, Sequence: []int{0, 2, 4, 6, 8}},
		Hint:        "Select the symmetrical symbols in the correct sequence.",
		SuccessText: "The lines speak of ancient patterns.",
		Effects: []Effect{
			{Kind: RevealLetter, Index: 3},
		},
		Labels: []string{"◐", "◑", "◒", "◓", "▲", "▼", "◄", "►", "●"},
	},
	{
		ID:          5,
		Title:       "The Sound",
		Description: "Condor",
		Solution:    SolutionSpec{Kind: DynamicSequence, Length: 5, Alphabet: 4},
		Hint:        "Watch the symbols appear and listen to the music. The sequence matches the rhythm.",
		SuccessText: "The condor's song echoes through time.",
		Effects: []Effect{
			{Kind: AddWord, Word: "SURFACE"},
			{Kind: RevealLetter, Index: 4},
		},
		Labels:      []string{"▲", "●", "■", "◆"},
		TapCooldown: 350 * time.Millisecond,
		RevealHold:  900 * time.Millisecond,
	},
	{
		ID:          6,
		Title:       "Merge",
		Description: "Fusion",
		Solution: SolutionSpec{Kind: Assembly, Slots: [4]int{
			SlotTopLeft:     0,
			SlotTopRight:    1,
			SlotBottomLeft:  2,
			SlotBottomRight: 3,
		}},
		Hint:        "Place the pieces in the correct positions and order.",
		SuccessText: "Two worlds begin to merge.",
		Effects: []Effect{
			{Kind: RevealLetter, Index: 5},
		},
		Labels: []string{"planos", "planos2", "planos3", "planos4"},
	},
	{
		ID:          7,
		Title:       "Surface",
		Description: "Cliffhanger",
		Solution:    SolutionSpec{Kind: ExactString, Text: FinalWord},
		Hint:        "Assemble the letters you've uncovered across the levels to form the final word.",
		SuccessText: "You were only looking at the surface.",
		Effects: []Effect{
			{Kind: EndGame},
		},
	},
}

// Count is the number of levels (N).
func Count() int { return len(levels) }

// Level returns a copy of level id (1-based). An id outside 1..N is a
// programming error and panics.
func Level(id int) LevelDefinition {
	if id < 1 || id > len(levels) {
		panic(fmt.Sprintf("catalog: level %d out of range 1..%d", id, len(levels)))
	}
	return levels[id-1].clone()
}

// Valid reports whether id names a level.
func Valid(id int) bool { return id >= 1 && id <= len(levels) }

// All returns copies of the levels in play order.
func All() []LevelDefinition {
	out := make([]LevelDefinition, len(levels))
	for i, l := range levels {
		out[i] = l.clone()
	}
	return out
}
