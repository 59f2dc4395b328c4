package etrc

import "errors"

var (
	// ErrCapacityExceeded is returned by [NamedTrace.Start] when the trace
	// already has as many pending starts as its capacity allows. The start is
	// dropped.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrNoPendingStart is returned by [NamedTrace.End] when there is no
	// pending start to pair with. No event is recorded.
	ErrNoPendingStart = errors.New("no pending start")

	// ErrNotRegistered is returned by [Registry] methods for an identifier
	// that was never registered.
	ErrNotRegistered = errors.New("not registered")

	// ErrSessionStopped describes events submitted to a session after it was
	// stopped. Such events are dropped.
	ErrSessionStopped = errors.New("session stopped")

	// ErrInvalidLine is returned when parsing a malformed trace file line.
	ErrInvalidLine = errors.New("invalid trace line")
)
