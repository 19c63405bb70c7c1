// internal/reveal/timeline.go
//
// Presentation timelines. A timeline is a list of display events with
// offsets from the moment playback starts; the renderer schedules them, the
// controller never sees them.
//
// Timelines built here:
//   - Sequence: show/hide each cell of a generated sequence, then enable input.
//   - Investigation: staged text that builds up a clue, then enable input.

package reveal

import (
	"encoding/json"
	"time"

	"github.com/twoworlds/puzzle-server/internal/catalog"
)

// EventKind names a display action.
type EventKind string

const (
	Show        EventKind = "show"
	Hide        EventKind = "hide"
	Text        EventKind = "text"
	EnableInput EventKind = "enable_input"
)

// Event is one timed display action.
type Event struct {
	At    time.Duration `json:"-"`
	Kind  EventKind     `json:"kind"`
	Cell  int           `json:"cell"`
	Label string        `json:"label,omitempty"`
	Text  string        `json:"text,omitempty"`
}

// MarshalJSON renders At as whole milliseconds ("atMs").
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	return json.Marshal(struct {
		AtMs int64 `json:"atMs"`
		plain
	}{e.At.Milliseconds(), plain(e)})
}

// Pace controls sequence playback: a new cell every Step, each shown for
// Hold, input enabled Settle after the last step.
type Pace struct {
	Step   time.Duration
	Hold   time.Duration
	Settle time.Duration
}

var (
	GridPace = Pace{Step: 1400 * time.Millisecond, Hold: 1300 * time.Millisecond, Settle: 600 * time.Millisecond}
	TonePace = Pace{Step: 1400 * time.Millisecond, Hold: 900 * time.Millisecond, Settle: 600 * time.Millisecond}
)

// InvestigationStep is the delay between staged clue texts.
const InvestigationStep = 600 * time.Millisecond

// Sequence builds the playback of seq. labels, when present, name each cell.
func Sequence(seq []int, labels []string, p Pace) []Event {
	out := make([]Event, 0, 2*len(seq)+1)
	for i, cell := range seq {
		at := time.Duration(i) * p.Step
		label := ""
		if cell >= 0 && cell < len(labels) {
			label = labels[cell]
		}
		out = append(out,
			Event{At: at, Kind: Show, Cell: cell, Label: label},
			Event{At: at + p.Hold, Kind: Hide, Cell: cell, Label: label},
		)
	}
	return append(out, Event{At: time.Duration(len(seq))*p.Step + p.Settle, Kind: EnableInput, Cell: -1})
}

// Investigation builds the staged reveal of texts. Input is enabled together
// with the final text.
func Investigation(texts []string, step time.Duration) []Event {
	out := make([]Event, 0, len(texts)+1)
	var last time.Duration
	for i, t := range texts {
		last = time.Duration(i) * step
		out = append(out, Event{At: last, Kind: Text, Cell: -1, Text: t})
	}
	return append(out, Event{At: last, Kind: EnableInput, Cell: -1})
}

// PaceFor is the playback pace of a generated-sequence level: the grid pace
// with the level's own hold, when it has one.
func PaceFor(def catalog.LevelDefinition) Pace {
	p := GridPace
	if def.RevealHold > 0 {
		p.Hold = def.RevealHold
	}
	return p
}

// Duration is the offset of the last event.
func Duration(events []Event) time.Duration {
	var d time.Duration
	for _, e := range events {
		if e.At > d {
			d = e.At
		}
	}
	return d
}
