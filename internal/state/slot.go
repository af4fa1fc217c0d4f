package state

import (
	"context"
	"sync"
)

// Slot is the observable holder of one operation's State. The zero value is
// an idle slot ready to use.
type Slot[T any] struct {
	mu          sync.RWMutex
	current     State[T]
	subscribers map[chan State[T]]struct{}
}

// Get returns the current state, or nil when idle.
func (s *Slot[T]) Get() State[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the whole state and notifies subscribers.
func (s *Slot[T]) Set(next State[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = next
	s.broadcastLocked()
}

// Reset returns the slot to idle. This is not the same as a fresh Loading.
func (s *Slot[T]) Reset() {
	s.Set(nil)
}

// Subscribe returns a channel that receives every state change, starting with
// the current one. The caller must invoke the returned cancel function.
func (s *Slot[T]) Subscribe() (<-chan State[T], func()) {
	ch := make(chan State[T], 8)

	s.mu.Lock()
	if s.subscribers == nil {
		s.subscribers = make(map[chan State[T]]struct{})
	}
	s.subscribers[ch] = struct{}{}
	// The buffer is empty, so this never blocks and no broadcast can overtake it.
	ch <- s.current
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Await blocks until the slot holds a Success or Failure and returns it.
// An idle slot is returned as nil immediately.
func (s *Slot[T]) Await(ctx context.Context) (State[T], error) {
	updates, cancel := s.Subscribe()
	defer cancel()

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return nil, context.Canceled
			}
			if !IsLoading(st) {
				return st, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *Slot[T]) broadcastLocked() {
	for ch := range s.subscribers {
		select {
		case ch <- s.current:
		default:
			// Slow observer: drop its oldest pending state so the newest one always lands.
			select {
			case <-ch:
			default:
			}
			ch <- s.current
		}
	}
}
