package etrcring

// Queue is a fixed-capacity FIFO collection of values, backed by a ring. Unlike
// a ring buffer of recent items, a full queue never overwrites: Push rejects
// the new value instead.
//
// Queue is not safe for concurrent use. Callers must provide synchronization.
type Queue[T any] struct {
	buf  []T // fully allocated at construction
	head int // index of the oldest value, next to pop
	tail int // index for next push
	len  int // count of actual values
}

// NewQueue returns an empty queue, pre-allocated with the given capacity. A
// capacity less than zero is treated as zero, which produces a queue that
// rejects every push.
func NewQueue[T any](cap int) *Queue[T] {
	if cap < 0 {
		cap = 0
	}
	return &Queue[T]{
		buf: make([]T, cap),
	}
}

// Push adds the value at the tail of the queue and returns true. If the queue
// is full, the value is not added, and Push returns false.
func (q *Queue[T]) Push(val T) bool {
	if q.len >= len(q.buf) {
		return false
	}

	q.buf[q.tail] = val

	q.tail += 1
	if q.tail >= len(q.buf) {
		q.tail -= len(q.buf)
	}

	q.len += 1

	return true
}

// Pop removes and returns the oldest value in the queue, and true. If the queue
// is empty, Pop returns a zero value and false.
func (q *Queue[T]) Pop() (val T, ok bool) {
	var zero T

	if q.len <= 0 {
		return zero, false
	}

	val = q.buf[q.head]
	q.buf[q.head] = zero // don't pin popped values

	q.head += 1
	if q.head >= len(q.buf) {
		q.head -= len(q.buf)
	}

	q.len -= 1

	return val, true
}

// Peek returns the oldest value in the queue without removing it.
func (q *Queue[T]) Peek() (val T, ok bool) {
	if q.len <= 0 {
		var zero T
		return zero, false
	}
	return q.buf[q.head], true
}

// Len returns the number of values in the queue.
func (q *Queue[T]) Len() int { return q.len }

// Cap returns the fixed capacity of the queue.
func (q *Queue[T]) Cap() int { return len(q.buf) }

// Full returns true when Push would be rejected.
func (q *Queue[T]) Full() bool { return q.len >= len(q.buf) }

// Cursors returns the read cursor, the write cursor, and the count of values.
// The read cursor always points to the oldest value, and the write cursor to
// the next free slot; they are equal when the queue is empty or full.
func (q *Queue[T]) Cursors() (head, tail, count int) {
	return q.head, q.tail, q.len
}

// Walk calls the given function for each value in the queue, starting with the
// oldest value, and ending with the newest value. If the function returns an
// error, Walk stops and returns that error.
func (q *Queue[T]) Walk(fn func(T) error) error {
	for i := 0; i < q.len; i++ {
		cur := q.head + i
		if cur >= len(q.buf) {
			cur -= len(q.buf)
		}

		if err := fn(q.buf[cur]); err != nil {
			return err
		}
	}

	return nil
}
