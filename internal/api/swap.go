package api

import (
	"io"
	"sync/atomic"
)

// refSwap holds the current value and defers closing a replaced value until
// every in-flight request that acquired it has released it.
type refSwap[T io.Closer] struct {
	current atomic.Pointer[ref[T]]
}

type ref[T io.Closer] struct {
	value   T
	refs    atomic.Int64
	closing atomic.Bool
	closed  atomic.Bool
}

func newRefSwap[T io.Closer](value T) *refSwap[T] {
	s := &refSwap[T]{}
	s.current.Store(&ref[T]{value: value})
	return s
}

func (s *refSwap[T]) acquire() (T, func()) {
	for {
		r := s.current.Load()
		r.refs.Add(1)
		// A swap may have retired r between the load and the increment.
		if r.closing.Load() && r != s.current.Load() {
			r.release()
			continue
		}
		return r.value, r.release
	}
}

func (s *refSwap[T]) swap(next T) {
	prev := s.current.Swap(&ref[T]{value: next})
	prev.retire()
}

func (s *refSwap[T]) close() {
	s.current.Load().retire()
}

func (r *ref[T]) release() {
	if r.refs.Add(-1) == 0 && r.closing.Load() {
		r.closeOnce()
	}
}

func (r *ref[T]) retire() {
	r.closing.Store(true)
	if r.refs.Load() == 0 {
		r.closeOnce()
	}
}

func (r *ref[T]) closeOnce() {
	if r.closed.CompareAndSwap(false, true) {
		_ = r.value.Close()
	}
}
