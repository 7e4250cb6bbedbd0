package cache

import (
	"errors"
	"fmt"
	"sync"
)

// ErrKeyRange is returned when a key falls outside a Slots arena.
var ErrKeyRange = errors.New("cache: key out of range")

// Slots is a dense arena of lazily created values indexed by 0..n-1.
type Slots[V any] struct {
	mu     sync.Mutex
	values []V
	filled []bool
	stats  Stats
}

// NewSlots creates an arena with n empty slots.
func NewSlots[V any](n int) *Slots[V] {
	return &Slots[V]{
		values: make([]V, n),
		filled: make([]bool, n),
	}
}

// GetOrCreate returns the value stored at key, calling create on first use.
// If create fails the slot stays empty and the error is returned, so a later
// call tries again.
func (s *Slots[V]) GetOrCreate(key int, create func() (V, error)) (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	if key < 0 || key >= len(s.values) {
		return zero, fmt.Errorf("%w: %d not in [0,%d)", ErrKeyRange, key, len(s.values))
	}
	if s.filled[key] {
		s.stats.Hits++
		return s.values[key], nil
	}
	s.stats.Misses++

	v, err := create()
	if err != nil {
		s.stats.Failures++
		return zero, err
	}
	s.values[key] = v
	s.filled[key] = true
	s.stats.Creations++
	return v, nil
}

// Get returns the value at key without creating it.
func (s *Slots[V]) Get(key int) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	if key < 0 || key >= len(s.values) || !s.filled[key] {
		return zero, false
	}
	return s.values[key], true
}

// Cap returns the size of the key domain.
func (s *Slots[V]) Cap() int { return len(s.values) }

// Len returns the number of filled slots.
func (s *Slots[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, ok := range s.filled {
		if ok {
			n++
		}
	}
	return n
}

// Clear empties every slot, passing each stored value to release.
// release may be nil.
func (s *Slots[V]) Clear(release func(V)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	for i := len(s.values) - 1; i >= 0; i-- {
		if !s.filled[i] {
			continue
		}
		if release != nil {
			release(s.values[i])
		}
		s.values[i] = zero
		s.filled[i] = false
	}
}

// Stats returns lookup counters.
func (s *Slots[V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stats
	st.Capacity = len(s.values)
	for _, ok := range s.filled {
		if ok {
			st.Len++
		}
	}
	return st
}
