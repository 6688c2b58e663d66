// Package store holds a single value that many readers observe. Updates
// replace the value as a whole and are announced to subscribers in the
// order they subscribed.
package store

import "sync"

type Store[T any] struct {
	mu        sync.RWMutex
	state     T
	listeners []*listener[T]

	// emitMu serializes notification so listeners see snapshots in the
	// order updates were applied.
	emitMu sync.Mutex
}

type listener[T any] struct {
	fn func(T)
}

func New[T any](initial T) *Store[T] {
	return &Store[T]{state: initial}
}

func (s *Store[T]) Snapshot() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn for every future update. The returned func
// removes it; calling it more than once is harmless.
func (s *Store[T]) Subscribe(fn func(T)) func() {
	l := &listener[T]{fn: fn}

	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, existing := range s.listeners {
				if existing == l {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Update applies fn to the current value and publishes the result. fn must
// return a new value rather than mutate shared parts of the old one.
// Listeners run synchronously and must not call Update.
func (s *Store[T]) Update(fn func(T) T) T {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	next := fn(s.state)
	s.state = next
	listeners := make([]*listener[T], len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(next)
	}
	return next
}
