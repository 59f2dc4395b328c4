package etrcutil

import "sync"

// Atomic set and get operations for any type.
type Atomic[T any] struct {
	mtx sync.Mutex
	val T
}

// Get the current value.
func (a *Atomic[T]) Get() T { a.mtx.Lock(); defer a.mtx.Unlock(); return a.val }

// SetIfZero sets the value to val only if no value has been set, per the
// provided zero check, and reports whether it did.
func (a *Atomic[T]) SetIfZero(val T, isZero func(T) bool) bool {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if !isZero(a.val) {
		return false
	}
	a.val = val
	return true
}
