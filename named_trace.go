package etrc

import (
	"sync"
	"time"

	"github.com/peterbourgon/etrc/internal/etrcring"
)

// DefaultCapacity is the number of pending starts a named trace holds when no
// other capacity is given.
const DefaultCapacity = 100

// NamedTrace times a logical operation that starts and ends at different
// places in the code, possibly on different goroutines. Each call to Start
// records a pending start time; each call to End pairs with the oldest pending
// start, and submits the pair to the session as one event.
//
// Pairing is strictly first-in, first-out, by arrival order. There's no way to
// associate a specific End with a specific Start.
//
// Pending starts are kept in a fixed-capacity ring. When the ring is full,
// further starts are dropped with a warning, rather than blocking or growing.
type NamedTrace struct {
	session *Session
	name    string

	mtx       sync.Mutex
	starts    *etrcring.Queue[time.Time]
	completed uint64
	dropped   uint64
	unmatched uint64
}

// NewNamedTrace returns a named trace reporting to the given session, which
// can hold up to capacity pending starts. A capacity of zero or less means
// [DefaultCapacity].
func NewNamedTrace(s *Session, name string, capacity int) *NamedTrace {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &NamedTrace{
		session: s,
		name:    name,
		starts:  etrcring.NewQueue[time.Time](capacity),
	}
}

// Name returns the name used for every event submitted by the trace.
func (nt *NamedTrace) Name() string {
	return nt.name
}

// Capacity returns the maximum number of pending starts.
func (nt *NamedTrace) Capacity() int {
	return nt.starts.Cap() // immutable
}

// Start records a pending start at the current time. If the trace already
// holds its capacity of pending starts, the start is dropped, a warning is
// logged, and ErrCapacityExceeded is returned.
func (nt *NamedTrace) Start() error {
	ok := func() bool {
		nt.mtx.Lock()
		defer nt.mtx.Unlock()

		if nt.starts.Full() {
			nt.dropped++
			return false
		}

		return nt.starts.Push(nt.session.Now())
	}()
	if !ok {
		nt.session.logger.Printf("named trace %s: %d pending starts: start dropped: %v", nt.name, nt.starts.Cap(), ErrCapacityExceeded)
		return ErrCapacityExceeded
	}

	return nil
}

// End pairs the current time with the oldest pending start, and submits the
// resulting event to the session. If there are no pending starts, nothing is
// submitted, a warning is logged, and ErrNoPendingStart is returned.
func (nt *NamedTrace) End() error {
	start, end, ok := func() (time.Time, time.Time, bool) {
		nt.mtx.Lock()
		defer nt.mtx.Unlock()

		start, ok := nt.starts.Pop()
		if !ok {
			nt.unmatched++
			return time.Time{}, time.Time{}, false
		}

		nt.completed++
		return start, nt.session.Now(), true
	}()
	if !ok {
		nt.session.logger.Printf("named trace %s: end without matching start: %v", nt.name, ErrNoPendingStart)
		return ErrNoPendingStart
	}

	// Submit outside of our lock, so the session's lock is never nested.
	nt.session.Submit(nt.name, start, end)

	return nil
}

// Pending returns the number of starts waiting for an end.
func (nt *NamedTrace) Pending() int {
	nt.mtx.Lock()
	defer nt.mtx.Unlock()
	return nt.starts.Len()
}

// PendingStarts returns the pending start times, oldest first.
func (nt *NamedTrace) PendingStarts() []time.Time {
	nt.mtx.Lock()
	defer nt.mtx.Unlock()

	res := make([]time.Time, 0, nt.starts.Len())
	nt.starts.Walk(func(t time.Time) error {
		res = append(res, t)
		return nil
	})
	return res
}

// NamedTraceStats are point-in-time counters for a named trace.
type NamedTraceStats struct {
	Name      string
	Capacity  int
	Pending   int
	Completed uint64    // ends paired with a start
	Dropped   uint64    // starts rejected at capacity
	Unmatched uint64    // ends without a pending start
	Oldest    time.Time // oldest pending start, zero if none
}

// Stats returns current counters for the named trace.
func (nt *NamedTrace) Stats() NamedTraceStats {
	nt.mtx.Lock()
	defer nt.mtx.Unlock()

	oldest, _ := nt.starts.Peek()

	return NamedTraceStats{
		Name:      nt.name,
		Capacity:  nt.starts.Cap(),
		Pending:   nt.starts.Len(),
		Completed: nt.completed,
		Dropped:   nt.dropped,
		Unmatched: nt.unmatched,
		Oldest:    oldest,
	}
}
