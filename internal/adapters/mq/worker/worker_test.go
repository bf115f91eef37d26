package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/xptrack/internal/adapters/mq/queue"
	"github.com/okian/xptrack/internal/adapters/mq/worker"
	"github.com/okian/xptrack/internal/domain/model"
	logging "github.com/okian/xptrack/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	items chan model.Snapshot
	once  sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{items: make(chan model.Snapshot, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan model.Snapshot { return mq.items }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.items) })
	return nil
}

type mockSaver struct {
	mu     sync.Mutex
	saved  map[string]model.Snapshot
	failOn map[string]error
}

func newMockSaver() *mockSaver {
	return &mockSaver{saved: make(map[string]model.Snapshot), failOn: make(map[string]error)}
}

func (ms *mockSaver) Save(_ context.Context, s model.Snapshot) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if err, ok := ms.failOn[s.Account]; ok {
		return err
	}
	ms.saved[s.ID] = s
	return nil
}

func (ms *mockSaver) count() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.saved)
}

func snapshot(account string, day int) model.Snapshot {
	return model.Snapshot{
		ID:      fmt.Sprintf("%s-%d", account, day),
		Account: account,
		Date:    time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		Fields:  map[string]int64{"mining_xp": int64(day)},
	}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given a new InMemoryWorker", t, func() {
		q := newMockQueue()
		saver := newMockSaver()

		var (
			failMu sync.Mutex
			failed []string
		)
		w := worker.NewInMemoryWorker(q, saver,
			worker.WithName("test-worker"),
			worker.WithFailureHook(func(s model.Snapshot, _ error) {
				failMu.Lock()
				failed = append(failed, s.ID)
				failMu.Unlock()
			}),
		)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When snapshots arrive", func() {
			q.items <- snapshot("zezima", 1)
			q.items <- snapshot("zezima", 2)

			convey.Convey("Then they are saved", func() {
				convey.So(waitFor(func() bool { return saver.count() == 2 }), convey.ShouldBeTrue)
				convey.So(w.Processed(), convey.ShouldEqual, 2)
				convey.So(w.Failed(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When saving fails", func() {
			saver.mu.Lock()
			saver.failOn["broken"] = errors.New("disk full")
			saver.mu.Unlock()
			q.items <- snapshot("broken", 1)

			convey.Convey("Then the failure hook sees the snapshot", func() {
				convey.So(waitFor(func() bool { return w.Failed() == 1 }), convey.ShouldBeTrue)
				failMu.Lock()
				convey.So(failed, convey.ShouldResemble, []string{"broken-1"})
				failMu.Unlock()
				convey.So(saver.count(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When shutting down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it should stop", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the queue closes", func() {
			_ = q.Close()

			convey.Convey("Then Shutdown returns at once", func() {
				shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
				defer stop()
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker whose context is cancelled", t, func() {
		w := worker.NewInMemoryWorker(newMockQueue(), newMockSaver())
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)
		cancel()

		convey.Convey("Then it stops", func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
			defer stop()
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given a worker pool over a real queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(1000))
		saver := newMockSaver()
		pool := worker.NewPool(4, q, saver)
		convey.So(pool.Size(), convey.ShouldEqual, 4)

		ctx := context.Background()
		pool.Start(ctx)

		convey.Convey("When many snapshots are enqueued and the pool shuts down", func() {
			for a := 0; a < 10; a++ {
				for d := 1; d <= 20; d++ {
					convey.So(q.Enqueue(ctx, snapshot(fmt.Sprintf("acct%d", a), d)), convey.ShouldBeTrue)
				}
			}
			err := pool.Shutdown(ctx)

			convey.Convey("Then every buffered snapshot is drained first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(saver.count(), convey.ShouldEqual, 200)
				convey.So(pool.Processed(), convey.ShouldEqual, 200)
				convey.So(pool.Failed(), convey.ShouldEqual, 0)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool with a failure hook", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		saver := newMockSaver()
		saver.failOn["broken"] = errors.New("boom")

		var hits sync.WaitGroup
		hits.Add(1)
		pool := worker.NewPool(2, q, saver, worker.WithPoolFailureHook(func(model.Snapshot, error) { hits.Done() }))
		pool.Start(context.Background())

		convey.So(q.Enqueue(context.Background(), snapshot("broken", 1)), convey.ShouldBeTrue)
		hits.Wait()
		convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
		convey.So(pool.Failed(), convey.ShouldEqual, 1)
	})

	convey.Convey("Given a pool with a non-positive count", t, func() {
		pool := worker.NewPool(0, newMockQueue(), newMockSaver())
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
	})
}
