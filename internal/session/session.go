package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/twoworlds/puzzle-server/internal/catalog"
	"github.com/twoworlds/puzzle-server/internal/progress"
	"github.com/twoworlds/puzzle-server/internal/puzzle"
	"github.com/twoworlds/puzzle-server/internal/reveal"
)

// Result summarises what an input intent did.
type Result string

const (
	ResultOK       Result = "ok"
	ResultPending  Result = "pending"
	ResultMatch    Result = "match"
	ResultMismatch Result = "mismatch"
	// ResultIgnored: input arrived while a reveal was still playing, or
	// inside the level's tap cooldown. Nothing was evaluated.
	ResultIgnored Result = "ignored"
)

func resultOf(v puzzle.Verdict) Result {
	switch v {
	case puzzle.Match:
		return ResultMatch
	case puzzle.Mismatch:
		return ResultMismatch
	}
	return ResultPending
}

// Playback is a reveal the renderer should play.
type Playback struct {
	Level    int            `json:"level"`
	Token    uint64         `json:"token"`
	Timeline []reveal.Event `json:"timeline"`
}

// Session is one player's controller plus the presentation state around
// it. Methods must only be called inside Registry.Do.
type Session struct {
	mu sync.Mutex // held for the whole of each intent

	profile string
	ctrl    *progress.Controller
	rec     *progress.Recorder
	player  *reveal.Player
	reg     *Registry

	// opened is the token of the attempt whose reveal reached enable_input.
	// Levels that need a reveal take input only while it is still active.
	opened uint64
}

// Profile is the id this session belongs to.
func (s *Session) Profile() string { return s.profile }

// View snapshots the controller.
func (s *Session) View() progress.View { return s.ctrl.View() }

// Events drains the notifications produced since the last call.
func (s *Session) Events() []progress.Notification { return s.rec.Drain() }

func (s *Session) Start(ctx context.Context) error {
	s.stopPlayback()
	return s.ctrl.StartGame(ctx)
}

func (s *Session) Continue(ctx context.Context) error {
	if err := s.ctrl.ContinueGame(ctx); err != nil {
		return err
	}
	s.stopPlayback()
	return nil
}

func (s *Session) Select(ctx context.Context, level int) error {
	if err := s.ctrl.SelectLevel(ctx, level); err != nil {
		return err
	}
	s.stopPlayback()
	return nil
}

// Advance moves past a solved level and reports a finished game to the
// registry's hook.
func (s *Session) Advance(ctx context.Context) error {
	if err := s.ctrl.Advance(ctx); err != nil {
		return err
	}
	s.stopPlayback()
	if s.ctrl.Screen().Phase == progress.AllSolved && s.reg.onFinish != nil {
		s.reg.onFinish(ctx, s.profile, s.ctrl.State())
	}
	return nil
}

func (s *Session) Hint(ctx context.Context) progress.HintView { return s.ctrl.RequestHint(ctx) }

func (s *Session) Sound(ctx context.Context) bool { return s.ctrl.ToggleSound(ctx) }

func (s *Session) Reset(ctx context.Context) error {
	s.stopPlayback()
	return s.ctrl.ResetAll(ctx)
}

func (s *Session) Answer(ctx context.Context, level int, raw string) (Result, error) {
	if s.inputHeld(level) {
		return ResultIgnored, nil
	}
	wasOpen := s.opened != 0 && s.ctrl.Active(s.opened)
	v, err := s.ctrl.SubmitAnswer(ctx, level, raw)
	if v == puzzle.Mismatch && wasOpen {
		// A wrong answer does not hide the clue again.
		s.opened = s.ctrl.Token()
	}
	return resultOf(v), err
}

// Tap enters a cell. On generated-sequence levels a mismatch replaces the
// sequence, so input stays held until the next round has played.
func (s *Session) Tap(ctx context.Context, level, cell int) (Result, error) {
	if s.inputHeld(level) {
		return ResultIgnored, nil
	}
	before := s.enteredNow()
	v, err := s.ctrl.TapCell(ctx, level, cell)
	if err == nil && v == puzzle.Pending && s.enteredNow() == before {
		// Dropped by the tap cooldown.
		return ResultIgnored, nil
	}
	return resultOf(v), err
}

func (s *Session) Place(ctx context.Context, slot puzzle.Slot, piece int) (Result, error) {
	v, err := s.ctrl.PlacePiece(ctx, slot, piece)
	return resultOf(v), err
}

// Round starts a reveal for level: the playback of a new generated
// sequence, a restart of a fixed-order level (no timeline), or the staged
// investigation text. Levels that need a reveal take input only once its
// timeline has enabled it.
func (s *Session) Round(ctx context.Context, level int) (Playback, error) {
	def, ok := s.levelIfActive(level)
	if ok && len(def.Investigation) > 0 {
		tl := reveal.Investigation(def.Investigation, reveal.InvestigationStep)
		return s.play(level, s.ctrl.Token(), tl), nil
	}

	r, err := s.ctrl.StartRound(ctx, level)
	if err != nil {
		return Playback{}, err
	}
	if r.Sequence == nil {
		s.stopPlayback()
		return Playback{Level: level, Token: r.Token, Timeline: []reveal.Event{}}, nil
	}
	tl := reveal.Sequence(r.Sequence, def.Labels, reveal.PaceFor(def))
	return s.play(level, r.Token, tl), nil
}

func (s *Session) play(level int, tok uint64, tl []reveal.Event) Playback {
	ctrl := s.ctrl
	s.player.Play(tl, func() bool { return ctrl.Active(tok) }, func(e reveal.Event) {
		if e.Kind != reveal.EnableInput {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if ctrl.Active(tok) {
			s.opened = tok
		}
	})
	log.Debug().Str("profile", s.profile).Int("level", level).Uint64("token", tok).
		Dur("length", reveal.Duration(tl)).Msg("reveal started")
	return Playback{Level: level, Token: tok, Timeline: tl}
}

// inputHeld reports whether input for level must wait for a reveal. Input
// for a level that is not active is never held; the controller rejects it.
func (s *Session) inputHeld(level int) bool {
	def, ok := s.levelIfActive(level)
	if !ok || !def.NeedsReveal() {
		return false
	}
	return s.opened == 0 || !s.ctrl.Active(s.opened)
}

func (s *Session) stopPlayback() {
	s.player.Cancel()
	s.opened = 0
}

func (s *Session) levelIfActive(level int) (catalog.LevelDefinition, bool) {
	sc := s.ctrl.Screen()
	if sc.Phase != progress.InLevel || sc.Level != level {
		return catalog.LevelDefinition{}, false
	}
	return catalog.Level(level), true
}

func (s *Session) enteredNow() int {
	if lv := s.ctrl.View().Level; lv != nil {
		return len(lv.Entered)
	}
	return 0
}
