package state

import (
	"context"
	"sync"
)

// Scope owns the goroutines started on behalf of one controller. Closing it
// cancels in-flight work; their results are discarded.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Go runs fn in its own goroutine with the scope's context.
func (s *Scope) Go(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

// Wait blocks until every goroutine started with Go has returned.
func (s *Scope) Wait() {
	s.wg.Wait()
}

// Close cancels the scope and waits for its goroutines.
func (s *Scope) Close() {
	s.cancel()
	s.wg.Wait()
}

// Launch moves slot to Loading before returning, then runs op in the scope and
// replaces the state with Success or Failure. describe turns op's error into
// the Failure message. If the scope is closed first the outcome is dropped.
func Launch[T any](sc *Scope, slot *Slot[T], op func(ctx context.Context) (T, error), describe func(error) string) {
	slot.Set(Loading[T]{})
	sc.Go(func(ctx context.Context) {
		value, err := op(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			slot.Set(Failure[T]{Message: describe(err)})
			return
		}
		slot.Set(Success[T]{Value: value})
	})
}
