package queue

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/muhammadchandra19/tickstream/pkg/errors"
)

var (
	// ErrQueueFull is returned when a publish would exceed the queue capacity.
	ErrQueueFull = errors.NewErrorDetails("queue is full", string(errors.QueueFullError), "publish")
	// ErrQueueClosed is returned when publishing to a closed queue.
	ErrQueueClosed = errors.NewErrorDetails("queue is closed", string(errors.QueueClosedError), "publish")
)

// Queue is a bounded queue decoupling a producer's cadence from its consumer.
// Publishing never blocks beyond an explicit bounded wait; on overflow the
// newest item is rejected rather than stalling the producer.
type Queue[T any] struct {
	ch     chan T
	closed atomic.Bool
}

// New allocates a queue with the given capacity.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue[T]{ch: make(chan T, capacity)}
}

// TryPublish enqueues an item without blocking.
func (q *Queue[T]) TryPublish(item T) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	select {
	case q.ch <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

// PublishWait enqueues an item, waiting at most the given timeout for
// capacity to free up. Returns ErrQueueFull when the wait expires.
func (q *Queue[T]) PublishWait(ctx context.Context, item T, timeout time.Duration) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case q.ch <- item:
		return nil
	case <-timer.C:
		return ErrQueueFull
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until an item is available, the queue is closed and
// drained, or ctx is done. The boolean is false when nothing was read.
func (q *Queue[T]) Dequeue(ctx context.Context) (T, bool) {
	select {
	case item, ok := <-q.ch:
		return item, ok
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

// TryDequeue reads an item without blocking.
func (q *Queue[T]) TryDequeue() (T, bool) {
	select {
	case item, ok := <-q.ch:
		return item, ok
	default:
		var zero T
		return zero, false
	}
}

// C exposes the consume side of the queue. The channel is closed by Close
// once the queue stops accepting new items.
func (q *Queue[T]) C() <-chan T {
	return q.ch
}

// Close stops the queue from accepting new items. Items already enqueued
// remain readable from C until drained. Close is idempotent.
func (q *Queue[T]) Close() {
	if q.closed.CompareAndSwap(false, true) {
		close(q.ch)
	}
}

// Len returns the number of items currently enqueued.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.ch)
}
