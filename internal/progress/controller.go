// internal/progress/controller.go
//
// Controller is the level-progression state machine for one player.
//
// Transitions:
//   AtMenu      --StartGame-->     InLevel(1)
//   AtMenu      --ContinueGame-->  InLevel(unlocked)       (unlocked > 1)
//   InLevel(n)  --correct input--> LevelSolved(n)          (effects, unlock n+1)
//   InLevel(n)  --wrong input-->   InLevel(n)              (attempt reset/regenerated)
//   LevelSolved(n) --Advance-->    InLevel(n+1) | AllSolved
//   any         --SelectLevel(k)-> InLevel(k)              (k <= unlocked)
//   any         --ResetAll-->      AtMenu                  (everything cleared)
//   RequestHint / ToggleSound leave the screen unchanged.
//
// Every state mutation is persisted immediately. A failed save is logged and
// the in-memory transition stands.
//
// A Controller is not safe for concurrent use; callers serialise intents.
// Token/Active are the exception and may be called from timer goroutines.

package progress

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/twoworlds/puzzle-server/internal/catalog"
	"github.com/twoworlds/puzzle-server/internal/puzzle"
)

// Controller owns one player's State and the active level attempt.
type Controller struct {
	state   State
	screen  Screen
	attempt *puzzle.Attempt

	// epoch changes whenever the active attempt is replaced or discarded.
	epoch atomic.Uint64

	store  Persister
	render Renderer
	rng    *rand.Rand
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithRenderer sets the notification sink.
func WithRenderer(r Renderer) Option { return func(c *Controller) { c.render = r } }

// WithRand sets the random source for generated sequences.
func WithRand(r *rand.Rand) Option { return func(c *Controller) { c.rng = r } }

// WithClock sets the time source used for tap cooldowns.
func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option { return func(c *Controller) { c.logger = l } }

// NewController builds a controller at the menu with default state. Call
// Load to restore persisted progress.
func NewController(p Persister, opts ...Option) *Controller {
	c := &Controller{
		state:  DefaultState(),
		screen: Screen{Phase: AtMenu},
		store:  p,
		render: nopRenderer{},
		now:    time.Now,
		logger: log.Logger,
	}
	for _, o := range opts {
		o(c)
	}
	if c.rng == nil {
		seed := uint64(time.Now().UnixNano())
		c.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return c
}

// Load restores persisted progress and shows the menu.
func (c *Controller) Load(ctx context.Context) error {
	s, err := c.store.Load(ctx)
	c.state = s
	c.toMenu()
	if err != nil {
		return err
	}
	c.logger.Debug().Int("unlocked", s.UnlockedLevel).Msg("progress loaded")
	return nil
}

// ---------------------------------------------------------------------------
// Menu intents

// StartGame begins a playthrough at level 1. Unlocked level and revealed
// letters are kept; hints and discovered words start over.
func (c *Controller) StartGame(ctx context.Context) error {
	c.state.CurrentLevel = 1
	c.state.HintsUsed = 0
	c.state.Words = NewWordSet()
	c.enterLevel(ctx, 1)
	return nil
}

// CanContinue reports whether ContinueGame is enabled.
func (c *Controller) CanContinue() bool { return c.state.UnlockedLevel > 1 }

// ContinueGame enters the highest unlocked level. With every level solved
// the final level is entered.
func (c *Controller) ContinueGame(ctx context.Context) error {
	if !c.CanContinue() {
		return c.reject(violation("continue", "nothing unlocked yet"))
	}
	target := c.state.UnlockedLevel
	if n := catalog.Count(); target > n {
		target = n
	}
	c.enterLevel(ctx, target)
	return nil
}

// SelectLevel jumps to any unlocked level.
func (c *Controller) SelectLevel(ctx context.Context, level int) error {
	if !catalog.Valid(level) {
		return c.reject(violation("select", fmt.Sprintf("no level %d", level)))
	}
	if level > c.state.UnlockedLevel {
		return c.reject(violation("select", fmt.Sprintf("level %d is locked", level)))
	}
	c.enterLevel(ctx, level)
	return nil
}

// ---------------------------------------------------------------------------
// Level intents

// SubmitAnswer evaluates a typed answer for level.
func (c *Controller) SubmitAnswer(ctx context.Context, level int, raw string) (puzzle.Verdict, error) {
	if err := c.requireInLevel("submitAnswer", level); err != nil {
		return puzzle.Pending, err
	}
	v, err := c.attempt.Answer(raw)
	if err != nil {
		return puzzle.Pending, c.reject(violation("submitAnswer", err.Error()))
	}
	return c.settle(ctx, "submitAnswer", v)
}

// TapCell records one cell/symbol selection on a sequence level.
// Taps inside the level's cooldown are dropped and report Pending.
func (c *Controller) TapCell(ctx context.Context, level, cell int) (puzzle.Verdict, error) {
	if err := c.requireInLevel("tapCell", level); err != nil {
		return puzzle.Pending, err
	}
	v, ignored, err := c.attempt.Tap(cell, c.now())
	if err != nil {
		return puzzle.Pending, c.reject(violation("tapCell", err.Error()))
	}
	if ignored {
		return puzzle.Pending, nil
	}
	return c.settle(ctx, "tapCell", v)
}

// PlacePiece puts piece into slot on the current level's assembly board.
func (c *Controller) PlacePiece(ctx context.Context, slot puzzle.Slot, piece int) (puzzle.Verdict, error) {
	if err := c.requireInLevel("placePiece", c.state.CurrentLevel); err != nil {
		return puzzle.Pending, err
	}
	v, err := c.attempt.Place(slot, piece)
	if err != nil {
		return puzzle.Pending, c.reject(violation("placePiece", err.Error()))
	}
	return c.settle(ctx, "placePiece", v)
}

// Round is a freshly started sequence round.
type Round struct {
	Level    int    `json:"level"`
	Token    uint64 `json:"token"`
	Sequence []int  `json:"sequence,omitempty"`
}

// StartRound restarts a sequence level's round: a generated sequence is
// redrawn and entered taps are cleared. For generated sequences the returned
// Sequence is what the renderer plays back; fixed orders are never disclosed.
// Token guards the playback.
func (c *Controller) StartRound(ctx context.Context, level int) (Round, error) {
	if err := c.requireInLevel("startRound", level); err != nil {
		return Round{}, err
	}
	if c.attempt.Sequence() == nil {
		return Round{}, c.reject(violation("startRound", "level has no sequence"))
	}
	c.attempt.Restart()
	r := Round{Level: level, Token: c.epoch.Add(1)}
	if c.attempt.Generated() {
		r.Sequence = c.attempt.Sequence()
	}
	return r, nil
}

// Advance moves from a solved level to the next one, or to AllSolved after
// the last level.
func (c *Controller) Advance(ctx context.Context) error {
	if c.screen.Phase != LevelSolved {
		return c.reject(violation("advance", fmt.Sprintf("nothing solved (%s)", c.screen.Phase)))
	}
	n := c.screen.Level
	if c.state.UnlockedLevel < n+1 {
		return c.reject(violation("advance", fmt.Sprintf("level %d is locked", n+1)))
	}
	if n < catalog.Count() {
		c.enterLevel(ctx, n+1)
		return nil
	}
	c.discardAttempt()
	c.screen = Screen{Phase: AllSolved}
	c.render.ShowScreen(c.screen)
	c.logger.Info().Int("hints", c.state.HintsUsed).Msg("all levels solved")
	c.persist(ctx)
	return nil
}

// ---------------------------------------------------------------------------
// Orthogonal intents

// RequestHint reveals the current level's hint. Beyond MaxHints it is a
// no-op that returns CapReached and shows a notice.
func (c *Controller) RequestHint(ctx context.Context) HintView {
	level := c.state.CurrentLevel
	if c.state.HintsUsed >= MaxHints {
		h := HintView{Level: level, Used: c.state.HintsUsed, CapReached: true}
		c.render.ShowBanner(Banner{Kind: BannerNotice, Text: "You have used all available hints."})
		c.render.ShowHint(h)
		return h
	}
	c.state.HintsUsed++
	h := HintView{
		Level:     level,
		Text:      catalog.Level(level).Hint,
		Used:      c.state.HintsUsed,
		Remaining: MaxHints - c.state.HintsUsed,
	}
	c.render.ShowHint(h)
	c.persist(ctx)
	return h
}

// ToggleSound flips the sound preference and returns the new value.
func (c *Controller) ToggleSound(ctx context.Context) bool {
	c.state.SoundEnabled = !c.state.SoundEnabled
	c.render.ShowSound(c.state.SoundEnabled)
	c.persist(ctx)
	return c.state.SoundEnabled
}

// ResetAll clears stored and in-memory progress, sound preference included,
// and returns to the menu.
func (c *Controller) ResetAll(ctx context.Context) error {
	c.state = DefaultState()
	c.toMenu()
	c.render.ShowSound(c.state.SoundEnabled)
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("clear progress")
	}
	c.logger.Info().Msg("progress reset")
	return nil
}

// ---------------------------------------------------------------------------
// Read side

// State returns a copy of the current progress.
func (c *Controller) State() State { return c.state.Clone() }

// Screen returns the active screen.
func (c *Controller) Screen() Screen { return c.screen }

// Token identifies the active attempt. It changes whenever the attempt is
// replaced or discarded, so deferred callbacks capture it and check Active
// before touching anything.
func (c *Controller) Token() uint64 { return c.epoch.Load() }

// Active reports whether tok still identifies the active attempt.
func (c *Controller) Active(tok uint64) bool { return c.epoch.Load() == tok }

// HUD derives the progress summary.
func (c *Controller) HUD() HUD {
	words := c.state.Words.List()
	line := ""
	if len(words) > 0 {
		line = "Words: " + strings.Join(words, ", ")
	}
	return HUD{
		Words:     words,
		WordsLine: line,
		Letters:   c.state.LettersMask(),
		Progress:  c.state.CurrentLevel * 100 / catalog.Count(),
	}
}

// ---------------------------------------------------------------------------
// internals

func (c *Controller) requireInLevel(op string, level int) error {
	if c.screen.Phase != InLevel || c.attempt == nil {
		return c.reject(violation(op, fmt.Sprintf("not in a level (%s)", c.screen.Phase)))
	}
	if level != c.screen.Level {
		return c.reject(violation(op, fmt.Sprintf("level %d is not active (in %d)", level, c.screen.Level)))
	}
	return nil
}

// settle turns an evaluator verdict into a transition.
func (c *Controller) settle(ctx context.Context, op string, v puzzle.Verdict) (puzzle.Verdict, error) {
	switch v {
	case puzzle.Match:
		c.solve(ctx)
		return v, nil
	case puzzle.Mismatch:
		// The attempt has reset itself; invalidate anything scheduled for
		// the previous round.
		c.epoch.Add(1)
		return v, c.reject(mismatch(op, fmt.Sprintf("wrong answer for level %d", c.screen.Level)))
	}
	return v, nil
}

func (c *Controller) solve(ctx context.Context) {
	n := c.screen.Level
	def := catalog.Level(n)
	c.discardAttempt()
	c.screen = Screen{Phase: LevelSolved, Level: n}

	c.render.ShowBanner(Banner{Kind: BannerSuccess, Text: def.SuccessText})
	for _, e := range def.Effects {
		c.apply(e)
	}
	if c.state.UnlockedLevel < n+1 {
		c.state.UnlockedLevel = n + 1
	}
	c.logger.Debug().Int("level", n).Int("unlocked", c.state.UnlockedLevel).Msg("level solved")

	c.render.ShowScreen(c.screen)
	c.render.ShowHUD(c.HUD())
	c.persist(ctx)
}

// apply runs one on-solve effect.
func (c *Controller) apply(e catalog.Effect) {
	switch e.Kind {
	case catalog.RevealLetter:
		if e.Index < 0 || e.Index >= len(c.state.Letters) || c.state.Letters[e.Index] != "" {
			return
		}
		letter := strings.ToUpper(string(catalog.FinalWord[e.Index]))
		c.state.Letters[e.Index] = letter
		c.render.ShowLetter(e.Index, letter)
	case catalog.AddWord:
		c.state.Words.Add(e.Word)
	case catalog.Transition:
		c.render.PlayEffect(e.Name)
	case catalog.EndGame:
		c.render.PlayEffect("end_game")
	}
}

func (c *Controller) enterLevel(ctx context.Context, n int) {
	c.state.CurrentLevel = n
	c.attempt = puzzle.NewAttempt(catalog.Level(n), c.rng)
	c.epoch.Add(1)
	c.screen = Screen{Phase: InLevel, Level: n}
	c.logger.Debug().Int("level", n).Msg("level entered")

	c.render.ShowScreen(c.screen)
	c.render.ShowHUD(c.HUD())
	c.persist(ctx)
}

func (c *Controller) toMenu() {
	c.discardAttempt()
	c.screen = Screen{Phase: AtMenu}
	c.render.ShowScreen(c.screen)
	c.render.ShowHUD(c.HUD())
}

func (c *Controller) discardAttempt() {
	c.attempt = nil
	c.epoch.Add(1)
}

// reject surfaces err to the player and returns it.
func (c *Controller) reject(err *TransitionError) error {
	text := err.Reason
	if err.Kind == ErrInputMismatch {
		text = "Not quite. Try again."
	}
	c.render.ShowBanner(Banner{Kind: BannerError, Text: text})
	c.logger.Debug().Err(err).Msg("intent rejected")
	return err
}

func (c *Controller) persist(ctx context.Context) {
	if err := c.store.Save(ctx, c.state); err != nil {
		c.logger.Warn().Err(err).Msg("save progress")
	}
}
