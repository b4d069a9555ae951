// Package queue buffers audit entries between the service and the writers.
//
// Enqueue never blocks: a full or closed queue rejects the entry and the
// caller decides what to do with it.
package queue

import (
	"context"
	"sync"

	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Entry is the payload flowing through the queue.
type Entry = model.AuditLog

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an entry. It returns ErrFull or ErrClosed when the entry
	// was not accepted.
	Enqueue(ctx context.Context, e Entry) error

	// Dequeue returns the channel entries arrive on. It is closed by Close
	// once buffered entries are drained.
	Dequeue(ctx context.Context) <-chan Entry

	// Len returns the current number of queued entries.
	Len(ctx context.Context) int

	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	entries  chan Entry
	capacity int

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.entries = make(chan Entry, q.capacity)

	metrics.UpdateAuditQueueCapacity(q.capacity)
	metrics.UpdateAuditQueueSize(0)
	return q
}

// Enqueue adds an entry to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Entry) error { //nolint:gocritic // hugeParam: entries travel by value
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordError("audit_queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordError("audit_queue", "context_cancelled")
		return err
	}

	select {
	case q.entries <- e:
		metrics.RecordAuditEnqueued()
		metrics.UpdateAuditQueueSize(len(q.entries))
		return nil
	default:
		metrics.RecordError("audit_queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns the receive side of the buffer.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Entry {
	return q.entries
}

// Len returns the current number of queued entries.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.entries)
	metrics.UpdateAuditQueueSize(size)
	return size
}

// Cap returns the configured capacity.
func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close stops accepting entries. Buffered entries can still be dequeued.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.entries)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
