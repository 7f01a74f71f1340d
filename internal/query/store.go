// Package query holds the async data stores that sit between a loader
// (HTTP webhook or SQL) and the views that render its result.
package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status is the lifecycle stage of a store.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// State is a snapshot of a store. Data is only meaningful when Status is
// StatusSuccess and Err is only set when Status is StatusError.
// LastUpdated is the time of the most recent successful load and Generation
// counts successful loads, so a reader can tell whether Data changed.
type State[T any] struct {
	Status      Status
	Data        T
	Err         error
	LastUpdated time.Time
	Generation  uint64
}

// Loader produces one resource. It may be called repeatedly.
type Loader[T any] func(ctx context.Context) (T, error)

// Observer is told about every finished load.
type Observer interface {
	ObserveLoad(resource string, elapsed time.Duration, err error)
}

// Option configures a store.
type Option func(*options)

type options struct {
	logger   zerolog.Logger
	observer Observer
	now      func() time.Time
}

// WithLogger sets the store logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver reports load durations and outcomes to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

type subscriber[T any] struct {
	fn     func(State[T])
	active bool
}

// Store wraps one Loader and publishes its lifecycle to subscribers. At most
// one load runs at a time; Refresh calls made while a load is running return
// immediately.
type Store[T any] struct {
	name string
	load Loader[T]
	opts options

	mu       sync.Mutex
	state    State[T]
	inFlight bool
	subs     []*subscriber[T]

	// pending notifications, delivered in order by whichever goroutine
	// holds the draining flag
	queue    []State[T]
	draining bool
}

// NewStore creates an idle store named after the resource it loads.
func NewStore[T any](name string, load Loader[T], opts ...Option) *Store[T] {
	o := options{logger: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{name: name, load: load, opts: o}
}

// Name returns the resource name.
func (s *Store[T]) Name() string { return s.name }

// State returns the current snapshot.
func (s *Store[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loading reports whether a load is in flight.
func (s *Store[T]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Subscribe registers fn for every state change and returns a function that
// removes it. Removing a subscriber does not cancel a running load.
func (s *Store[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	sub := &subscriber[T]{fn: fn, active: true}
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			sub.active = false
			for i, candidate := range s.subs {
				if candidate == sub {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Refresh runs the loader unless a load is already in flight, in which case
// it returns false straight away. It blocks until the load finishes and the
// store state reflects it. Subscribers are notified in order, but when
// another goroutine is already delivering notifications that goroutine
// delivers this load's as well, so Refresh may return before they arrive.
// Loader errors and panics end up in the error state and are never returned.
func (s *Store[T]) Refresh(ctx context.Context) bool {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.opts.logger.Debug().Str("resource", s.name).Msg("refresh skipped, load in flight")
		return false
	}
	s.inFlight = true
	s.transition(State[T]{Status: StatusLoading, LastUpdated: s.state.LastUpdated, Generation: s.state.Generation})
	s.mu.Unlock()
	s.drain()

	started := s.opts.now()
	data, err := s.run(ctx)
	elapsed := s.opts.now().Sub(started)
	if s.opts.observer != nil {
		s.opts.observer.ObserveLoad(s.name, elapsed, err)
	}

	s.mu.Lock()
	s.inFlight = false
	if err != nil {
		s.opts.logger.Warn().Err(err).Str("resource", s.name).Dur("elapsed", elapsed).Msg("load failed")
		s.transition(State[T]{Status: StatusError, Err: err, LastUpdated: s.state.LastUpdated, Generation: s.state.Generation})
	} else {
		s.opts.logger.Debug().Str("resource", s.name).Dur("elapsed", elapsed).Msg("load finished")
		s.transition(State[T]{Status: StatusSuccess, Data: data, LastUpdated: s.opts.now(), Generation: s.state.Generation + 1})
	}
	s.mu.Unlock()
	s.drain()
	return true
}

func (s *Store[T]) run(ctx context.Context) (data T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			data = zero
			err = fmt.Errorf("loader for %s panicked: %v", s.name, r)
		}
	}()
	return s.load(ctx)
}

// transition must be called with mu held.
func (s *Store[T]) transition(next State[T]) {
	s.state = next
	s.queue = append(s.queue, next)
}

func (s *Store[T]) drain() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]
		subs := append([]*subscriber[T](nil), s.subs...)
		s.mu.Unlock()

		for _, sub := range subs {
			if s.isActive(sub) {
				sub.fn(next)
			}
		}

		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}

func (s *Store[T]) isActive(sub *subscriber[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sub.active
}
