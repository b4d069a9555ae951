package worker_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/jury/internal/adapters/mq/queue"
	worker "github.com/okian/jury/internal/adapters/mq/worker"
	model "github.com/okian/jury/internal/domain/model"
	logging "github.com/okian/jury/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockAppender struct {
	mu      sync.Mutex
	entries []model.AuditLog
	fail    map[string]error
}

func newMockAppender() *mockAppender {
	return &mockAppender{fail: make(map[string]error)}
}

func (m *mockAppender) AppendAudit(_ context.Context, e model.AuditLog) (model.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.fail[e.ActorID]; ok {
		return model.AuditLog{}, err
	}
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *mockAppender) setError(actorID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[actorID] = err
}

func (m *mockAppender) ids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.ID
	}
	return out
}

func (m *mockAppender) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func audit(id, actor string) model.AuditLog {
	return model.AuditLog{ID: id, ActorID: actor, Action: model.ActionSubmitAssignment}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a queue", t, func() {
		_ = logging.Init(logging.WithWriter(io.Discard))

		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		appender := newMockAppender()
		w := worker.NewInMemoryWorker(q, appender, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go w.Run(ctx)

		convey.Convey("When entries are enqueued", func() {
			_ = q.Enqueue(ctx, audit("a1", "admin"))
			_ = q.Enqueue(ctx, audit("a2", "admin"))

			convey.Convey("Then they are appended in order", func() {
				convey.So(waitFor(func() bool { return appender.count() == 2 }), convey.ShouldBeTrue)
				convey.So(appender.ids(), convey.ShouldResemble, []string{"a1", "a2"})
			})
		})

		convey.Convey("When appending fails", func() {
			appender.setError("broken", errors.New("disk full"))
			_ = q.Enqueue(ctx, audit("bad", "broken"))
			_ = q.Enqueue(ctx, audit("good", "admin"))

			convey.Convey("Then the worker keeps going", func() {
				convey.So(waitFor(func() bool { return appender.count() == 1 }), convey.ShouldBeTrue)
				convey.So(appender.ids(), convey.ShouldResemble, []string{"good"})
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer shutdownCancel()

			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then it stops gracefully and a second call is safe", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool", t, func() {
		_ = logging.Init(logging.WithWriter(io.Discard))

		q := queue.NewInMemoryQueue(queue.WithCapacity(200))
		appender := newMockAppender()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, appender)

			convey.Convey("Then it runs a single worker", func() {
				convey.So(pool.Size(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When many entries are written concurrently", func() {
			pool := worker.NewPool(4, q, appender)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			var wg sync.WaitGroup
			for i := 0; i < 5; i++ {
				wg.Add(1)
				go func(p int) {
					defer wg.Done()
					for j := 0; j < 20; j++ {
						_ = q.Enqueue(ctx, audit(fmt.Sprintf("e-%d-%d", p, j), "admin"))
					}
				}(i)
			}
			wg.Wait()

			convey.Convey("Then every entry is appended", func() {
				convey.So(waitFor(func() bool { return appender.count() == 100 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shut down with entries still buffered", func() {
			pool := worker.NewPool(1, q, appender)
			for i := 0; i < 5; i++ {
				_ = q.Enqueue(context.Background(), audit(fmt.Sprintf("late-%d", i), "admin"))
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()
			err := pool.Shutdown(shutdownCtx)

			convey.Convey("Then the buffer is drained before the workers exit", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(appender.count(), convey.ShouldEqual, 5)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}
