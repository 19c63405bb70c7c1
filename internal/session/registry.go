// internal/session/registry.go
//
// Registry of live player sessions.
// Responsibilities:
//   - One progress.Controller per profile id, loaded lazily from the KV store.
//   - Serialising intents per profile (the controller is single-threaded).
//   - Handing guest progress to an account on sign-in.
//   - Reporting finished playthroughs to a hook (the leaderboard).

package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/twoworlds/puzzle-server/internal/progress"
	"github.com/twoworlds/puzzle-server/internal/reveal"
	"github.com/twoworlds/puzzle-server/internal/store"
)

// FinishHook is called, with the session locked, every time a profile
// reaches the end of the game.
type FinishHook func(ctx context.Context, profile string, s progress.State)

// Registry maps profile ids to sessions.
type Registry struct {
	kv       store.KV
	sched    reveal.Scheduler
	ctrlOpts []progress.Option
	onFinish FinishHook

	mu       sync.Mutex          // guards sessions
	sessions map[string]*Session // keyed by profile id
}

// Option configures a Registry.
type Option func(*Registry)

// WithScheduler sets the scheduler for reveal playback.
func WithScheduler(s reveal.Scheduler) Option { return func(r *Registry) { r.sched = s } }

// WithControllerOptions adds options to every controller the registry builds.
func WithControllerOptions(opts ...progress.Option) Option {
	return func(r *Registry) { r.ctrlOpts = append(r.ctrlOpts, opts...) }
}

// WithFinishHook sets the end-of-game hook.
func WithFinishHook(h FinishHook) Option { return func(r *Registry) { r.onFinish = h } }

// NewRegistry builds an empty registry over kv.
func NewRegistry(kv store.KV, opts ...Option) *Registry {
	r := &Registry{
		kv:       kv,
		sched:    reveal.WallClock(),
		sessions: make(map[string]*Session),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Do runs fn with profile's session locked, loading the session first if
// needed. A load error is returned without calling fn.
func (r *Registry) Do(ctx context.Context, profile string, fn func(*Session) error) error {
	s, err := r.get(ctx, profile)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

func (r *Registry) get(ctx context.Context, profile string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[profile]; ok {
		return s, nil
	}

	rec := &progress.Recorder{}
	opts := append([]progress.Option{
		progress.WithRenderer(rec),
		progress.WithLogger(log.With().Str("profile", profile).Logger()),
	}, r.ctrlOpts...)
	ctrl := progress.NewController(progress.NewRecordStore(r.kv, profile), opts...)
	if err := ctrl.Load(ctx); err != nil {
		return nil, err
	}
	rec.Drain()

	s := &Session{
		profile: profile,
		ctrl:    ctrl,
		rec:     rec,
		player:  reveal.NewPlayer(r.sched),
		reg:     r,
	}
	r.sessions[profile] = s
	return s, nil
}

// Claim copies guest progress from one profile to another that has none of
// its own, then clears the guest record. It reports whether anything moved.
func (r *Registry) Claim(ctx context.Context, from, to string) (bool, error) {
	if from == "" || to == "" || from == to {
		return false, nil
	}
	dst, err := r.kv.Load(ctx, to)
	if err != nil {
		return false, err
	}
	if len(dst) > 0 {
		return false, nil
	}
	src, err := r.kv.Load(ctx, from)
	if err != nil {
		return false, err
	}
	if len(src) == 0 {
		return false, nil
	}
	if err := r.kv.Save(ctx, to, src); err != nil {
		return false, err
	}
	if err := r.kv.Clear(ctx, from); err != nil {
		log.Warn().Err(err).Str("profile", from).Msg("clear claimed progress")
	}
	r.Forget(from)
	r.Forget(to)
	log.Info().Str("from", from).Str("to", to).Msg("guest progress claimed")
	return true, nil
}

// Forget drops the cached session for profile and stops its playback. The
// next Do reloads it from storage.
func (r *Registry) Forget(profile string) {
	r.mu.Lock()
	s, ok := r.sessions[profile]
	delete(r.sessions, profile)
	r.mu.Unlock()
	if ok {
		s.player.Cancel()
	}
}

// Len is the number of cached sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
