package primitives

import (
	"fmt"
	"sync"
)

// Queue is a thread-safe FIFO with an optional capacity limit.
//
// Pop blocks on an empty queue while waiting is enabled. DisableWait releases
// every blocked consumer without handing out data, which is how owners tear
// down their consumer goroutine.
type Queue[T any] struct {
	mu           sync.Mutex
	nonEmpty     *sync.Cond
	items        []T
	capacity     Capacity
	waitDisabled bool
}

// NewQueue creates an empty queue with waiting enabled.
// It panics if capacity is not Valid.
func NewQueue[T any](capacity Capacity) *Queue[T] {
	if !capacity.Valid() {
		panic(fmt.Sprintf("primitives: invalid queue capacity %s", capacity))
	}
	q := &Queue[T]{capacity: capacity}
	q.nonEmpty = sync.NewCond(&q.mu)
	return q
}

// Push appends v and wakes one blocked consumer.
// It returns ErrQueueFull, leaving the queue unchanged, when the limit is reached.
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fullLocked() {
		return ErrQueueFull
	}
	q.items = append(q.items, v)
	q.nonEmpty.Signal()
	return nil
}

// Move transfers *src into the queue. On success *src is reset to its zero
// value; on failure it is left untouched.
func (q *Queue[T]) Move(src *T) error {
	if err := q.Push(*src); err != nil {
		return err
	}
	var zero T
	*src = zero
	return nil
}

// Pop removes the head element. While waiting is enabled it blocks until an
// element arrives or DisableWait is called; ok is false when no element was taken.
func (q *Queue[T]) Pop() (v T, ok bool) {
	ok = q.PopInto(&v)
	return v, ok
}

// PopInto is Pop writing into out. out is only assigned when it returns true.
func (q *Queue[T]) PopInto(out *T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.waitDisabled {
		q.nonEmpty.Wait()
	}
	if len(q.items) == 0 {
		return false
	}
	*out = q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return true
}

// Empty reports whether the queue holds no element.
func (q *Queue[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Len returns the number of buffered elements.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Full reports whether a Push would fail. Always false when unbounded.
func (q *Queue[T]) Full() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fullLocked()
}

func (q *Queue[T]) fullLocked() bool {
	limit, bounded := q.capacity.Limit()
	return bounded && len(q.items) >= limit
}

// Capacity returns the configured capacity.
func (q *Queue[T]) Capacity() Capacity { return q.capacity }

// Clear drops every buffered element. The wait mode is unchanged.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	clear(q.items)
	q.items = nil
}

// EnableWait restores blocking Pop.
func (q *Queue[T]) EnableWait() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.waitDisabled = false
}

// DisableWait makes Pop non-blocking and wakes all blocked consumers.
func (q *Queue[T]) DisableWait() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.waitDisabled = true
	q.nonEmpty.Broadcast()
}

// WaitEnabled reports the current wait mode.
func (q *Queue[T]) WaitEnabled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.waitDisabled
}
