// Package queue buffers accepted snapshots between the HTTP handler and the
// persistence workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/xptrack/internal/domain/model"
	"github.com/okian/xptrack/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a snapshot. It returns false when the queue is full,
	// closed, or ctx is done.
	Enqueue(ctx context.Context, s model.Snapshot) bool

	// Dequeue returns the receive side of the queue. It is closed after
	// Close once drained.
	Dequeue(ctx context.Context) <-chan model.Snapshot

	// Len returns the current number of queued snapshots.
	Len(ctx context.Context) int

	// Close stops accepting snapshots. Buffered snapshots stay readable.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan model.Snapshot
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan model.Snapshot, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0, q.capacity)
	return q
}

// Enqueue adds a snapshot without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s model.Snapshot) bool {
	return q.TryEnqueue(ctx, s) == nil
}

// TryEnqueue is Enqueue with the failure reason.
func (q *InMemoryQueue) TryEnqueue(ctx context.Context, s model.Snapshot) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.enqueueFailed("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		q.enqueueFailed("context_cancelled")
		return err
	}

	select {
	case q.items <- s:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.items), q.capacity)
		return nil
	default:
		q.enqueueFailed("queue_full")
		return ErrFull
	}
}

func (q *InMemoryQueue) enqueueFailed(reason string) {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}

// Dequeue returns the shared receive channel. Consumers record their own
// dequeue metrics.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan model.Snapshot {
	return q.items
}

// Len returns the current number of queued snapshots.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.items)
	metrics.UpdateQueueSize(size, q.capacity)
	return size
}

// Capacity reports the configured bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting snapshots.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
