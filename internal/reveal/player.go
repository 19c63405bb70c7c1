package reveal

import (
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d on its own goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// WallClock schedules with time.AfterFunc.
func WallClock() Scheduler { return wallClock{} }

// Player schedules one timeline at a time. Every callback re-checks its
// guard when it fires, so a callback that outlives the attempt that
// scheduled it does nothing even if Cancel was never reached.
type Player struct {
	sched Scheduler

	mu     sync.Mutex
	timers []Timer
}

// NewPlayer returns a Player using s.
func NewPlayer(s Scheduler) *Player {
	if s == nil {
		s = WallClock()
	}
	return &Player{sched: s}
}

// Play cancels any running playback and schedules events. emit is called
// for each event whose time comes while live still reports true.
func (p *Player) Play(events []Event, live func() bool, emit func(Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	for _, e := range events {
		e := e
		p.timers = append(p.timers, p.sched.AfterFunc(e.At, func() {
			if !live() {
				return
			}
			emit(e)
		}))
	}
}

// Cancel stops every pending callback.
func (p *Player) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	for _, t := range p.timers {
		t.Stop()
	}
	p.timers = nil
}
