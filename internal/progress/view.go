package progress

import (
	"github.com/twoworlds/puzzle-server/internal/catalog"
)

// View is everything a renderer needs to redraw from scratch.
type View struct {
	Screen         Screen     `json:"screen"`
	Level          *LevelView `json:"level,omitempty"`
	HUD            HUD        `json:"hud"`
	CurrentLevel   int        `json:"currentLevel"`
	UnlockedLevel  int        `json:"unlockedLevel"`
	HintsUsed      int        `json:"hintsUsed"`
	HintsRemaining int        `json:"hintsRemaining"`
	SoundEnabled   bool       `json:"soundEnabled"`
	CanContinue    bool       `json:"canContinue"`
	Token          uint64     `json:"token"`
}

// LevelView describes the active or just-solved level. Solutions and
// generated sequences are never included.
type LevelView struct {
	ID            int                  `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Kind          catalog.SolutionKind `json:"kind"`
	Labels        []string             `json:"labels,omitempty"`
	Investigation []string             `json:"investigation,omitempty"`
	Entered       []int                `json:"entered,omitempty"`
	Board         *[4]int              `json:"board,omitempty"`
	Final         bool                 `json:"final"`
}

// View snapshots the controller.
func (c *Controller) View() View {
	v := View{
		Screen:         c.screen,
		HUD:            c.HUD(),
		CurrentLevel:   c.state.CurrentLevel,
		UnlockedLevel:  c.state.UnlockedLevel,
		HintsUsed:      c.state.HintsUsed,
		HintsRemaining: MaxHints - c.state.HintsUsed,
		SoundEnabled:   c.state.SoundEnabled,
		CanContinue:    c.CanContinue(),
		Token:          c.Token(),
	}
	if c.screen.Level == 0 {
		return v
	}
	def := catalog.Level(c.screen.Level)
	lv := &LevelView{
		ID:            def.ID,
		Title:         def.Title,
		Description:   def.Description,
		Kind:          def.Solution.Kind,
		Labels:        def.Labels,
		Investigation: def.Investigation,
		Final:         def.ID == catalog.Count(),
	}
	if c.attempt != nil {
		lv.Entered = c.attempt.Entered()
		if b, ok := c.attempt.Board(); ok {
			lv.Board = &b
		}
	}
	v.Level = lv
	return v
}
