// Package refresh drives periodic reloads with a visible countdown.
//
// The Scheduler is a small state machine:
//
//	Stopped  --Configure(n>0)-->  Counting
//	Counting --Tick, remaining 0--> Triggering --> Counting (or Stopped)
//	any      --Configure(0) / Stop--> Stopped
//
// It has no timer of its own. Ticks come from whoever owns the clock: a
// tea.Tick chain in the TUI or Run in headless mode. Every Configure and Stop
// starts a new generation, and ticks carrying an older generation are
// ignored, so a stopped countdown can never fire.
package refresh

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the scheduler's state.
type State int

const (
	Stopped State = iota
	Counting
	Triggering
)

func (s State) String() string {
	switch s {
	case Counting:
		return "counting"
	case Triggering:
		return "triggering"
	default:
		return "stopped"
	}
}

// TickInterval is the countdown resolution.
const TickInterval = time.Second

// Snapshot is a read-only view of the scheduler.
type Snapshot struct {
	State      State
	IntervalMs int
	Remaining  int
	Generation uint64
}

// Scheduler counts down to the next refresh.
type Scheduler struct {
	trigger  func()
	dispatch func(func())
	logger   zerolog.Logger

	mu         sync.Mutex
	state      State
	intervalMs int
	remaining  int
	gen        uint64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDispatcher replaces the default `go f()` used to fire the trigger.
// Tests pass a synchronous dispatcher.
func WithDispatcher(dispatch func(func())) Option {
	return func(s *Scheduler) { s.dispatch = dispatch }
}

// WithLogger sets the scheduler logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New creates a stopped scheduler that calls trigger when the countdown
// reaches zero.
func New(trigger func(), opts ...Option) *Scheduler {
	s := &Scheduler{
		trigger:  trigger,
		dispatch: func(f func()) { go f() },
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func secondsFor(intervalMs int) int {
	return max(1, int(math.Ceil(float64(intervalMs)/1000)))
}

// Configure sets the interval. Zero stops the scheduler; any other value
// restarts the countdown from the full interval. Negative values count as
// zero. It returns the new generation.
func (s *Scheduler) Configure(intervalMs int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if intervalMs <= 0 {
		s.intervalMs = 0
		s.remaining = 0
		s.state = Stopped
		s.logger.Debug().Msg("auto refresh disabled")
		return s.gen
	}
	s.intervalMs = intervalMs
	s.remaining = secondsFor(intervalMs)
	s.state = Counting
	s.logger.Debug().Int("interval_ms", intervalMs).Msg("auto refresh countdown restarted")
	return s.gen
}

// Stop halts the countdown. Calling it again has no effect.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Stopped && s.intervalMs == 0 {
		return
	}
	s.gen++
	s.state = Stopped
	s.intervalMs = 0
	s.remaining = 0
}

// Tick advances the countdown by one second if gen is current and the
// scheduler is counting. It reports whether the tick was accepted.
func (s *Scheduler) Tick(gen uint64) bool {
	s.mu.Lock()
	if gen != s.gen || s.state != Counting {
		s.mu.Unlock()
		return false
	}
	s.remaining--
	if s.remaining > 0 {
		s.mu.Unlock()
		return true
	}

	s.state = Triggering
	s.mu.Unlock()

	s.logger.Debug().Msg("auto refresh triggered")
	if s.trigger != nil {
		s.dispatch(s.trigger)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Configure or Stop during the trigger moved us to a new generation
	// and already set the state.
	if s.gen == gen {
		if s.intervalMs > 0 {
			s.remaining = secondsFor(s.intervalMs)
			s.state = Counting
		} else {
			s.state = Stopped
		}
	}
	return true
}

// Snapshot returns the current state.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{State: s.state, IntervalMs: s.intervalMs, Remaining: s.remaining, Generation: s.gen}
}

// Run ticks the scheduler once per TickInterval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	return s.run(ctx, ticker.C)
}

func (s *Scheduler) run(ctx context.Context, ticks <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return ctx.Err()
		case <-ticks:
			s.Tick(s.Snapshot().Generation)
		}
	}
}
