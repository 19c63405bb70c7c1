// internal/progress/state.go
//
// ProgressState: the only mutable entity of the game, owned by a Controller
// and persisted as a whole after every mutation.
//
// Invariants:
//   - 1 <= CurrentLevel <= N
//   - 1 <= UnlockedLevel <= N+1 (N+1 means every level is solved)
//   - 0 <= HintsUsed <= MaxHints
//   - len(Letters) == len(catalog.FinalWord); a set letter is only cleared by a reset.

package progress

import (
	"encoding/json"
	"strings"

	"github.com/zyedidia/generic/mapset"

	"github.com/twoworlds/puzzle-server/internal/catalog"
)

// MaxHints is the hint allowance per playthrough.
const MaxHints = 3

// State is the persisted progress of one player.
type State struct {
	CurrentLevel  int
	UnlockedLevel int
	HintsUsed     int
	SoundEnabled  bool
	Words         WordSet
	Letters       []string // "" for a letter not revealed yet
}

// DefaultState is a fresh playthrough.
func DefaultState() State {
	return State{
		CurrentLevel:  1,
		UnlockedLevel: 1,
		Words:         NewWordSet(),
		Letters:       emptyLetters(),
	}
}

func emptyLetters() []string {
	return make([]string, len(catalog.FinalWord))
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Words = s.Words.Clone()
	out.Letters = append([]string(nil), s.Letters...)
	return out
}

// LettersMask renders the revealed letters with "_" for blanks, space separated.
func (s State) LettersMask() string {
	parts := make([]string, len(s.Letters))
	for i, l := range s.Letters {
		if l == "" {
			l = "_"
		}
		parts[i] = l
	}
	return strings.Join(parts, " ")
}

// WordSet is a set of discovered words that remembers insertion order.
type WordSet struct {
	order []string
	seen  mapset.Set[string]
}

// NewWordSet returns an empty set.
func NewWordSet(words ...string) WordSet {
	ws := WordSet{seen: mapset.New[string]()}
	for _, w := range words {
		ws.Add(w)
	}
	return ws
}

// Add inserts w and reports whether it was new.
func (w *WordSet) Add(word string) bool {
	if len(w.order) == 0 {
		// seen mirrors order; this also covers the zero WordSet.
		w.seen = mapset.New[string]()
	}
	if w.seen.Has(word) {
		return false
	}
	w.seen.Put(word)
	w.order = append(w.order, word)
	return true
}

// Has reports membership.
func (w WordSet) Has(word string) bool {
	return len(w.order) > 0 && w.seen.Has(word)
}

// List returns the words in discovery order.
func (w WordSet) List() []string {
	return append([]string{}, w.order...)
}

// Len is the number of words.
func (w WordSet) Len() int { return len(w.order) }

// Clone returns an independent copy.
func (w WordSet) Clone() WordSet { return NewWordSet(w.order...) }

// MarshalJSON encodes the set as an ordered array.
func (w WordSet) MarshalJSON() ([]byte, error) { return json.Marshal(w.List()) }
