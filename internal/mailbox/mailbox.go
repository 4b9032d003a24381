// Package mailbox provides a single-slot, latest-value-wins mailbox used to
// hand pose batches from the estimator feed to the angle handler.
//
// Put never blocks: a value that has not been taken yet is overwritten and
// counted as a drop, since only the most recent frame matters. Take blocks
// until a value is available, the slot is closed, or the context ends.
package mailbox

import (
	"context"
	"sync"
	"sync/atomic"
)

// Slot is a single-value mailbox. The zero value is not usable; use New.
type Slot[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	value  T
	full   bool
	closed bool

	// latest is kept after Take so Peek can serve readers that only care
	// about the most recent value (the render tick).
	latest    T
	hasLatest bool

	puts  atomic.Uint64
	drops atomic.Uint64
}

// Stats is a point-in-time view of slot counters.
type Stats struct {
	Puts  uint64 `json:"puts"`
	Drops uint64 `json:"drops"`
}

// New returns an empty open slot.
func New[T any]() *Slot[T] {
	s := &Slot[T]{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Put stores v, replacing any unconsumed value. It reports false if the
// slot is closed.
func (s *Slot[T]) Put(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if s.full {
		s.drops.Add(1)
	}
	s.value = v
	s.full = true
	s.latest = v
	s.hasLatest = true
	s.puts.Add(1)
	s.cond.Signal()
	return true
}

// Take waits for a value and consumes it. ok is false when the slot was
// closed or ctx was cancelled before a value arrived.
func (s *Slot[T]) Take(ctx context.Context) (v T, ok bool) {
	// sync.Cond cannot select on ctx, so a cancelled context wakes the
	// waiter through a broadcast.
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.full && !s.closed && ctx.Err() == nil {
		s.cond.Wait()
	}
	if !s.full {
		var zero T
		return zero, false
	}
	v = s.value
	var zero T
	s.value = zero
	s.full = false
	return v, true
}

// Peek returns the most recently put value without consuming it.
func (s *Slot[T]) Peek() (v T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.hasLatest
}

// Close wakes all waiters; later Puts are rejected. A value still in the
// slot can be taken after Close.
func (s *Slot[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cond.Broadcast()
}

// Stats returns the put and drop counters.
func (s *Slot[T]) Stats() Stats {
	return Stats{Puts: s.puts.Load(), Drops: s.drops.Load()}
}
