// Package worker drains queued audit entries into the audit log.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/jury/internal/adapters/mq/queue"
	"github.com/okian/jury/pkg/logger"
	"github.com/okian/jury/pkg/metrics"
)

const (
	defaultWorkerCount  = 1
	poolShutdownTimeout = 30 * time.Second
)

// Entry is what workers read off the queue.
type Entry = queue.Entry

// Appender persists one audit entry.
type Appender interface {
	AppendAudit(ctx context.Context, entry Entry) (Entry, error)
}

// Queue defines how workers receive entries.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Entry
}

// Worker writes queued entries through an Appender.
type Worker interface {
	// Run processes entries until the queue closes, ctx is cancelled or
	// Shutdown is called.
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	appender Appender
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, appender Appender, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		appender: appender,
		name:     "audit-worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("audit-worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "audit-worker" {
		w.logger = w.logger.With(logger.String("worker", w.name))
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	entries := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-entries:
			if !ok {
				return
			}
			w.write(ctx, e)
		}
	}
}

// Shutdown stops the worker without draining the queue.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// write appends one entry. Failures are logged and counted, never returned.
func (w *InMemoryWorker) write(ctx context.Context, e Entry) { //nolint:gocritic // hugeParam: entries travel by value
	if _, err := w.appender.AppendAudit(ctx, e); err != nil {
		metrics.RecordAuditWriteError()
		metrics.RecordError("audit_worker", "append_failed")
		w.logger.Error(ctx, "audit append failed",
			logger.String("action", string(e.Action)),
			logger.String("actor_id", e.ActorID),
			logger.Error(err),
		)
		return
	}
	metrics.RecordAuditWritten()
}

// Pool manages several workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. A count below one means a single worker,
// which keeps audit entries in enqueue order.
func NewPool(workerCount int, q Queue, appender Appender) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("audit-pool"),
	}
	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewInMemoryWorker(q, appender, WithName("audit-worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateAuditWorkers(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, lets workers drain what is buffered and waits
// for them within ctx or a fixed upper bound.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateAuditWorkers(0)
	if timedOut {
		return fmt.Errorf("audit pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
