package service

import (
	"context"
	"errors"

	"github.com/okian/jury/internal/adapters/mq/queue"
	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/pkg/logger"
	"github.com/okian/jury/pkg/metrics"
)

// AuditRecorder receives audit entries. Record must not block the mutation
// that produced the entry and has no way to fail it.
type AuditRecorder interface {
	Record(ctx context.Context, entry model.AuditLog)
}

// queueRecorder hands entries to the audit workers.
type queueRecorder struct {
	queue  queue.Queue
	logger logger.Logger
}

func newQueueRecorder(q queue.Queue, l logger.Logger) *queueRecorder {
	return &queueRecorder{queue: q, logger: l.Named("audit")}
}

func (r *queueRecorder) Record(ctx context.Context, entry model.AuditLog) { //nolint:gocritic // hugeParam: entries travel by value
	// A cancelled request still owes its audit trail.
	err := r.queue.Enqueue(context.WithoutCancel(ctx), entry)
	if err == nil {
		return
	}
	metrics.RecordAuditDropped()
	reason := "error"
	switch {
	case errors.Is(err, queue.ErrFull):
		reason = "queue_full"
	case errors.Is(err, queue.ErrClosed):
		reason = "queue_closed"
	}
	r.logger.Warn(ctx, "audit entry dropped",
		logger.String("reason", reason),
		logger.String("action", string(entry.Action)),
		logger.String("actor", entry.ActorID),
		logger.Error(err),
	)
}

// record stamps and forwards one entry.
func (s *Service) record(ctx context.Context, actorID string, action model.Action, details model.AuditDetails) { //nolint:gocritic // hugeParam: details travel by value
	s.mu.RLock()
	rec := s.recorder
	s.mu.RUnlock()
	if rec == nil {
		metrics.RecordAuditDropped()
		return
	}
	rec.Record(ctx, model.AuditLog{
		ActorID:   actorID,
		Action:    action,
		Details:   details,
		Timestamp: s.now(),
	})
}
