package puzzle

import "fmt"

// Slot is a position on the 2x2 assembly board.
type Slot int

const (
	TopLeft Slot = iota
	TopRight
	BottomLeft
	BottomRight
)

var slotNames = [...]string{"top-left", "top-right", "bottom-left", "bottom-right"}

func (s Slot) String() string {
	if s < 0 || int(s) >= len(slotNames) {
		return fmt.Sprintf("slot(%d)", int(s))
	}
	return slotNames[s]
}

// ParseSlot accepts the kebab-case slot names and their TL/TR/BL/BR short forms.
func ParseSlot(name string) (Slot, error) {
	switch name {
	case "top-left", "TL", "tl":
		return TopLeft, nil
	case "top-right", "TR", "tr":
		return TopRight, nil
	case "bottom-left", "BL", "bl":
		return BottomLeft, nil
	case "bottom-right", "BR", "br":
		return BottomRight, nil
	}
	return 0, fmt.Errorf("slot %q: %w", name, ErrOutOfRange)
}

const emptySlot = -1

// Assembly is the four-slot board. It evaluates only once every slot holds
// a piece; a wrong full board is cleared entirely.
type Assembly struct {
	expected [4]int
	slots    [4]int
}

// NewAssembly starts an empty board expecting expected[slot] in each slot.
func NewAssembly(expected [4]int) *Assembly {
	a := &Assembly{expected: expected}
	a.Clear()
	return a
}

// Place puts piece into slot. A piece already on the board moves: its old
// slot is vacated. A piece already in slot is replaced and returns to the pool.
func (a *Assembly) Place(slot Slot, piece int) (Verdict, error) {
	if slot < TopLeft || slot > BottomRight {
		return Pending, fmt.Errorf("slot %d: %w", int(slot), ErrOutOfRange)
	}
	if piece < 0 || piece >= len(a.slots) {
		return Pending, fmt.Errorf("piece %d: %w", piece, ErrOutOfRange)
	}
	for i, p := range a.slots {
		if p == piece && Slot(i) != slot {
			a.slots[i] = emptySlot
		}
	}
	a.slots[slot] = piece

	for _, p := range a.slots {
		if p == emptySlot {
			return Pending, nil
		}
	}
	if a.slots != a.expected {
		a.Clear()
		return Mismatch, nil
	}
	return Match, nil
}

// Board returns the piece in each slot, -1 for empty.
func (a *Assembly) Board() [4]int { return a.slots }

// Clear empties every slot.
func (a *Assembly) Clear() {
	for i := range a.slots {
		a.slots[i] = emptySlot
	}
}
