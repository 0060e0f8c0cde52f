package ingress

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Queue.Push after Close.
var ErrClosed = errors.New(`ingress: queue closed`)

// Queue is an unbounded, thread-safe FIFO queue, for multiple producers, and
// a single consumer. Push never blocks (beyond the mutex), which makes it
// safe to call from the consumer goroutine.
//
// Must be constructed with NewQueue.
type Queue[T any] struct {
	mu     sync.Mutex
	q      Chunked[T]
	signal chan struct{}
	closed bool
}

// NewQueue constructs a Queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{signal: make(chan struct{}, 1)}
}

// Push adds a value, and signals the consumer. It fails with ErrClosed once
// the queue is closed.
func (x *Queue[T]) Push(value T) error {
	x.mu.Lock()
	if x.closed {
		x.mu.Unlock()
		return ErrClosed
	}
	x.q.Push(value)
	x.mu.Unlock()
	select {
	case x.signal <- struct{}{}:
	default:
	}
	return nil
}

// Pop removes the front value, if any.
func (x *Queue[T]) Pop() (value T, ok bool) {
	x.mu.Lock()
	value, ok = x.q.Pop()
	x.mu.Unlock()
	return
}

// Drain appends up to limit values (all if limit <= 0) to buf, returning it.
func (x *Queue[T]) Drain(buf []T, limit int) []T {
	x.mu.Lock()
	defer x.mu.Unlock()
	for n := 0; limit <= 0 || n < limit; n++ {
		value, ok := x.q.Pop()
		if !ok {
			break
		}
		buf = append(buf, value)
	}
	return buf
}

// Signal receives (at least) once after any number of pushes. The consumer
// must check the queue (e.g. via Pop) after receiving.
func (x *Queue[T]) Signal() <-chan struct{} { return x.signal }

// Len returns the number of queued values.
func (x *Queue[T]) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.q.Len()
}

// Close prevents further pushes. Queued values may still be popped. It
// returns false if already closed.
func (x *Queue[T]) Close() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return false
	}
	x.closed = true
	return true
}
