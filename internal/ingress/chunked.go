// Package ingress implements the unbounded FIFO queues hosts use to accept
// notifications from any goroutine.
package ingress

import (
	"sync"
)

// chunkSize is the number of values per node in the Chunked linked list.
const chunkSize = 128

// Chunked is a chunked linked-list FIFO queue.
//
// Thread Safety: This struct is NOT thread-safe. See Queue.
type Chunked[T any] struct {
	head   *chunk[T]
	tail   *chunk[T]
	length int
}

// chunk is a fixed-size node in the chunked linked-list.
// It uses readPos/writePos cursors for O(1) push/pop without shifting.
type chunk[T any] struct {
	values  [chunkSize]T
	next    *chunk[T]
	readPos int // first unread slot
	pos     int // first unused slot
}

// pools are per type, a sync.Pool can't be generic at package level
var chunkPools sync.Map // map[*chunkPoolKey[T]]*sync.Pool

type chunkPoolKey[T any] struct{}

func chunkPool[T any]() *sync.Pool {
	key := (*chunkPoolKey[T])(nil)
	if v, ok := chunkPools.Load(key); ok {
		return v.(*sync.Pool)
	}
	v, _ := chunkPools.LoadOrStore(key, &sync.Pool{New: func() any { return new(chunk[T]) }})
	return v.(*sync.Pool)
}

func newChunk[T any]() *chunk[T] {
	c := chunkPool[T]().Get().(*chunk[T])
	c.pos = 0
	c.readPos = 0
	c.next = nil
	return c
}

// returnChunk clears the slots, so the pool doesn't retain references.
func returnChunk[T any](c *chunk[T]) {
	clear(c.values[:c.pos])
	c.pos = 0
	c.readPos = 0
	c.next = nil
	chunkPool[T]().Put(c)
}

// Push adds a value to the back of the queue.
func (q *Chunked[T]) Push(value T) {
	if q.tail == nil {
		q.tail = newChunk[T]()
		q.head = q.tail
	}

	if q.tail.pos == len(q.tail.values) {
		newTail := newChunk[T]()
		q.tail.next = newTail
		q.tail = newTail
	}

	q.tail.values[q.tail.pos] = value
	q.tail.pos++
	q.length++
}

// Pop removes and returns the front value, returning false if the queue is
// empty.
func (q *Chunked[T]) Pop() (value T, ok bool) {
	if q.head == nil || q.head.readPos >= q.head.pos {
		return value, false
	}

	value = q.head.values[q.head.readPos]
	var zero T
	q.head.values[q.head.readPos] = zero
	q.head.readPos++
	q.length--

	// if the chunk is now exhausted, free it or reset cursors
	if q.head.readPos >= q.head.pos {
		if q.head == q.tail {
			q.head.pos = 0
			q.head.readPos = 0
		} else {
			oldHead := q.head
			q.head = q.head.next
			returnChunk(oldHead)
		}
	}

	return value, true
}

// Len returns the queue length.
func (q *Chunked[T]) Len() int {
	return q.length
}
