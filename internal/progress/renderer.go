// internal/progress/renderer.go
//
// The controller's view of the presentation layer.
// Defines:
//   - Phase / Screen: which screen the renderer should show.
//   - Renderer: notifications the controller sends after each transition.
//   - Recorder: a Renderer that buffers notifications (used by the HTTP layer
//     to return them with the intent's response, and by tests).

package progress

// Phase is the state-machine state.
type Phase string

const (
	AtMenu      Phase = "at_menu"
	InLevel     Phase = "in_level"
	LevelSolved Phase = "level_solved"
	AllSolved   Phase = "all_solved"
)

// Screen is a phase plus the level it refers to (0 for AtMenu/AllSolved).
type Screen struct {
	Phase Phase `json:"phase"`
	Level int   `json:"level,omitempty"`
}

// BannerKind classifies a transient message.
type BannerKind string

const (
	BannerSuccess BannerKind = "success"
	BannerError   BannerKind = "error"
	BannerNotice  BannerKind = "notice"
)

// Banner is a success/error/notice message.
type Banner struct {
	Kind BannerKind `json:"kind"`
	Text string     `json:"text"`
}

// HUD is the always-visible progress summary.
type HUD struct {
	Words     []string `json:"words"`
	WordsLine string   `json:"wordsLine"` // "Words: A, B" or ""
	Letters   string   `json:"letters"`   // "W _ _ _ _ _ _"
	Progress  int      `json:"progress"`  // percent through the levels
}

// HintView is the result of a hint request.
type HintView struct {
	Level      int    `json:"level"`
	Text       string `json:"text,omitempty"`
	Used       int    `json:"used"`
	Remaining  int    `json:"remaining"`
	CapReached bool   `json:"capReached"`
}

// Renderer receives controller notifications. Implementations must not call
// back into the controller synchronously.
type Renderer interface {
	ShowScreen(s Screen)
	ShowBanner(b Banner)
	ShowHUD(h HUD)
	ShowHint(h HintView)
	ShowSound(enabled bool)
	// ShowLetter announces a newly revealed letter of the final word.
	ShowLetter(index int, letter string)
	// PlayEffect runs a named cosmetic transition ("end_game" included).
	PlayEffect(name string)
}

// Notification is one buffered Renderer call.
type Notification struct {
	Kind   string    `json:"kind"`
	Screen *Screen   `json:"screen,omitempty"`
	Banner *Banner   `json:"banner,omitempty"`
	HUD    *HUD      `json:"hud,omitempty"`
	Hint   *HintView `json:"hint,omitempty"`
	Sound  *bool     `json:"sound,omitempty"`
	Index  int       `json:"index,omitempty"`
	Letter string    `json:"letter,omitempty"`
	Effect string    `json:"effect,omitempty"`
}

// Recorder buffers notifications until Drain.
type Recorder struct {
	events []Notification
}

func (r *Recorder) ShowScreen(s Screen) {
	r.events = append(r.events, Notification{Kind: "screen", Screen: &s})
}

func (r *Recorder) ShowBanner(b Banner) {
	r.events = append(r.events, Notification{Kind: "banner", Banner: &b})
}

func (r *Recorder) ShowHUD(h HUD) {
	r.events = append(r.events, Notification{Kind: "hud", HUD: &h})
}

func (r *Recorder) ShowHint(h HintView) {
	r.events = append(r.events, Notification{Kind: "hint", Hint: &h})
}

func (r *Recorder) ShowSound(enabled bool) {
	r.events = append(r.events, Notification{Kind: "sound", Sound: &enabled})
}

func (r *Recorder) ShowLetter(index int, letter string) {
	r.events = append(r.events, Notification{Kind: "letter", Index: index, Letter: letter})
}

func (r *Recorder) PlayEffect(name string) {
	r.events = append(r.events, Notification{Kind: "effect", Effect: name})
}

// Drain returns the buffered notifications and empties the buffer.
func (r *Recorder) Drain() []Notification {
	out := r.events
	r.events = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

type nopRenderer struct{}

func (nopRenderer) ShowScreen(Screen) {}
func (nopRenderer) ShowBanner(Banner) {}
func (nopRenderer) ShowHUD(HUD) {}
func (nopRenderer) ShowHint(HintView) {}
func (nopRenderer) ShowSound(bool) {}
func (nopRenderer) ShowLetter(int, string) {}
func (nopRenderer) PlayEffect(string) {}
