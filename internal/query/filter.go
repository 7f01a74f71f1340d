package query

import (
	"strings"
	"sync"
)

// MatchFunc reports whether item matches a lower-cased, trimmed search term.
type MatchFunc[T any] func(item T, term string) bool

// MatchFields matches when any of the extracted fields contains the term,
// ignoring case. An empty term matches everything.
func MatchFields[T any](fields ...func(T) string) MatchFunc[T] {
	return func(item T, term string) bool {
		if term == "" {
			return true
		}
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field(item)), term) {
				return true
			}
		}
		return false
	}
}

// FilterView is a read-only subset of a list store's last successful result,
// recomputed whenever the store changes or the search term does. While the
// store is not in the success state the view is empty.
type FilterView[T any] struct {
	store *Store[[]T]
	match MatchFunc[T]

	mu          sync.Mutex
	term        string
	source      []T
	items       []T
	subs        []*viewSubscriber[T]
	unsubscribe func()
}

type viewSubscriber[T any] struct {
	fn func([]T)
}

// NewFilterView derives a view from store. Call Close to detach it.
func NewFilterView[T any](store *Store[[]T], match MatchFunc[T]) *FilterView[T] {
	v := &FilterView[T]{store: store, match: match}
	v.accept(store.State())
	v.unsubscribe = store.Subscribe(func(st State[[]T]) {
		v.accept(st)
		v.publish()
	})
	return v
}

func (v *FilterView[T]) accept(st State[[]T]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if st.Status == StatusSuccess {
		v.source = st.Data
	} else {
		v.source = nil
	}
	v.recompute()
}

// recompute must be called with mu held.
func (v *FilterView[T]) recompute() {
	items := make([]T, 0, len(v.source))
	for _, item := range v.source {
		if v.match(item, v.term) {
			items = append(items, item)
		}
	}
	v.items = items
}

// SetSearch replaces the search term.
func (v *FilterView[T]) SetSearch(term string) {
	v.mu.Lock()
	v.term = strings.ToLower(strings.TrimSpace(term))
	v.recompute()
	v.mu.Unlock()
	v.publish()
}

// Search returns the normalized search term.
func (v *FilterView[T]) Search() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.term
}

// Items returns the current subset.
func (v *FilterView[T]) Items() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]T(nil), v.items...)
}

// Subscribe registers fn for every recomputation.
func (v *FilterView[T]) Subscribe(fn func([]T)) (unsubscribe func()) {
	sub := &viewSubscriber[T]{fn: fn}
	v.mu.Lock()
	v.subs = append(v.subs, sub)
	v.mu.Unlock()
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		for i, candidate := range v.subs {
			if candidate == sub {
				v.subs = append(v.subs[:i:i], v.subs[i+1:]...)
				return
			}
		}
	}
}

func (v *FilterView[T]) publish() {
	v.mu.Lock()
	items := append([]T(nil), v.items...)
	subs := append([]*viewSubscriber[T](nil), v.subs...)
	v.mu.Unlock()
	for _, sub := range subs {
		sub.fn(items)
	}
}

// Close detaches the view from its store.
func (v *FilterView[T]) Close() {
	if v.unsubscribe != nil {
		v.unsubscribe()
	}
}
