// Package queue implements the bounded blocking FIFO that hands accepted
// requests from the acceptor to the worker pool.
package queue

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("queue is closed")

// Queue is a multi-producer multi-consumer FIFO with a fixed capacity.
// Push blocks while the queue is full, Pop blocks while it is empty and
// open. Close is one-way; items already queued stay poppable after it.
type Queue[T any] struct {
	lock     sync.Mutex
	notEmpty sync.Cond
	notFull  sync.Cond

	items  []T
	head   int
	count  int
	pushed uint64
	closed bool
}

// Stats is a consistent snapshot of the queue counters.
type Stats struct {
	Depth    int
	Capacity int
	Pushed   uint64
	Closed   bool
}

// New returns a queue holding at most maxSize items. maxSize below 1 is
// raised to 1.
func New[T any](maxSize int) *Queue[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	q := &Queue[T]{items: make([]T, maxSize)}
	q.notEmpty.L = &q.lock
	q.notFull.L = &q.lock
	return q
}

// Push appends item, waiting for room if the queue is full. Producers must
// stop pushing before Close; a Push that finds the queue closed returns
// ErrClosed instead of enqueueing.
func (q *Queue[T]) Push(item T) error {
	q.lock.Lock()
	for q.count == len(q.items) && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		q.lock.Unlock()
		return ErrClosed
	}
	q.items[(q.head+q.count)%len(q.items)] = item
	q.count++
	q.pushed++
	q.lock.Unlock()
	q.notEmpty.Signal()
	return nil
}

// TryPush is Push without waiting. It reports false when the queue is full
// or closed.
func (q *Queue[T]) TryPush(item T) bool {
	q.lock.Lock()
	if q.closed || q.count == len(q.items) {
		q.lock.Unlock()
		return false
	}
	q.items[(q.head+q.count)%len(q.items)] = item
	q.count++
	q.pushed++
	q.lock.Unlock()
	q.notEmpty.Signal()
	return true
}

// Pop removes the head item. It returns ok=false only once the queue is
// both closed and drained, and keeps doing so on every later call.
func (q *Queue[T]) Pop() (item T, ok bool) {
	q.lock.Lock()
	for q.count == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.count == 0 {
		q.lock.Unlock()
		return item, false
	}
	var zero T
	item = q.items[q.head]
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.count--
	q.lock.Unlock()
	q.notFull.Signal()
	return item, true
}

// Close marks the queue closed and wakes every blocked consumer and
// producer. Calling it again is a no-op.
func (q *Queue[T]) Close() {
	q.lock.Lock()
	if q.closed {
		q.lock.Unlock()
		return
	}
	q.closed = true
	q.lock.Unlock()
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

func (q *Queue[T]) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.count
}

func (q *Queue[T]) Cap() int {
	return len(q.items)
}

// Pushed is the number of items ever accepted by Push or TryPush.
func (q *Queue[T]) Pushed() uint64 {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.pushed
}

func (q *Queue[T]) Closed() bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.closed
}

func (q *Queue[T]) Stats() Stats {
	q.lock.Lock()
	defer q.lock.Unlock()
	return Stats{
		Depth:    q.count,
		Capacity: len(q.items),
		Pushed:   q.pushed,
		Closed:   q.closed,
	}
}
