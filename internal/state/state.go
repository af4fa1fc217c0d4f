// Package state holds the result of asynchronous operations as a closed
// three-variant union and publishes changes to observers.
package state

// State is one of Loading, Success or Failure. A nil State means idle.
type State[T any] interface {
	isState(T)
}

// Loading marks an operation in flight.
type Loading[T any] struct{}

// Success carries the decoded payload of a finished operation.
type Success[T any] struct {
	Value T
}

// Failure carries a human-readable message for a failed operation.
type Failure[T any] struct {
	Message string
}

func (Loading[T]) isState(T) {}
func (Success[T]) isState(T) {}
func (Failure[T]) isState(T) {}

// IsLoading reports whether s is Loading.
func IsLoading[T any](s State[T]) bool {
	_, ok := s.(Loading[T])
	return ok
}

// Value returns the payload of a Success state.
func Value[T any](s State[T]) (T, bool) {
	if success, ok := s.(Success[T]); ok {
		return success.Value, true
	}
	var zero T
	return zero, false
}

// Message returns the message of a Failure state.
func Message[T any](s State[T]) (string, bool) {
	if failure, ok := s.(Failure[T]); ok {
		return failure.Message, true
	}
	return "", false
}
