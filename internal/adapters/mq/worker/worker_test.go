package worker_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/perfectcircle/internal/adapters/mq/queue"
	worker "github.com/okian/perfectcircle/internal/adapters/mq/worker"
	"github.com/okian/perfectcircle/internal/adapters/repository"
	"github.com/okian/perfectcircle/internal/domain/geometry"
	model "github.com/okian/perfectcircle/internal/domain/model"
	"github.com/okian/perfectcircle/internal/domain/scoring"
	logging "github.com/okian/perfectcircle/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockStore struct {
	mu      sync.Mutex
	records map[string]repository.Record
	fail    error
}

func newMockStore() *mockStore {
	return &mockStore{records: make(map[string]repository.Record)}
}

func (m *mockStore) Insert(_ context.Context, rec repository.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if _, ok := m.records[rec.ID]; ok {
		return repository.ErrDuplicate
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *mockStore) get(id string) (repository.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	return r, ok
}

func (m *mockStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func circle(n int, w float64) geometry.Path {
	path := make(geometry.Path, n)
	for k := range path {
		a := 2 * math.Pi * float64(k) / float64(n-1)
		path[k] = geometry.Pt(w/2+0.3*w*math.Cos(a), w/2+0.3*w*math.Sin(a))
	}
	return path
}

// drain runs a single worker until the queue is closed and drained.
func drain(q *queue.InMemoryQueue, store worker.Inserter, opts ...worker.Option) {
	w := worker.NewInMemoryWorker(q, store, opts...)
	_ = q.Close()
	w.Run(context.Background())
}

func TestMain(m *testing.M) {
	_ = logging.Init(logging.WithWriter(io.Discard))
	m.Run()
}

func TestInMemoryWorker(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a worker reading a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		store := newMockStore()

		convey.Convey("When an eligible claimed score arrives", func() {
			q.Enqueue(ctx, model.Submission{ID: "a", Name: "ada", Score: 85.5})
			drain(q, store)

			convey.Convey("Then it is stored as claimed", func() {
				rec, ok := store.get("a")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(rec.Score, convey.ShouldEqual, 85.5)
				convey.So(rec.Name, convey.ShouldEqual, "ada")
			})
		})

		convey.Convey("When scores at or below the threshold arrive", func() {
			q.Enqueue(ctx, model.Submission{ID: "low", Name: "x", Score: 70})
			q.Enqueue(ctx, model.Submission{ID: "lower", Name: "x", Score: 12})
			q.Enqueue(ctx, model.Submission{ID: "over", Name: "x", Score: 100})
			drain(q, store)

			convey.Convey("Then they are dropped", func() {
				convey.So(store.len(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When a submission carries a path", func() {
			q.Enqueue(ctx, model.Submission{ID: "p", Name: "ada", Score: 71, Width: 1000, Path: circle(360, 1000)})
			drain(q, store)

			convey.Convey("Then the server-side score replaces the claim", func() {
				rec, ok := store.get("p")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(rec.Score, convey.ShouldEqual, 99.0)
			})
		})

		convey.Convey("When a submitted path is invalid", func() {
			path := circle(360, 1000)
			path[10] = geometry.Pt(500, 500)
			q.Enqueue(ctx, model.Submission{ID: "bad", Name: "ada", Score: 95, Width: 1000, Path: path})
			drain(q, store)

			convey.Convey("Then the claimed score is ignored and nothing is stored", func() {
				convey.So(store.len(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the same id is delivered twice", func() {
			q.Enqueue(ctx, model.Submission{ID: "d", Name: "ada", Score: 80})
			q.Enqueue(ctx, model.Submission{ID: "d", Name: "ada", Score: 90})
			drain(q, store)

			convey.Convey("Then the first one wins", func() {
				rec, _ := store.get("d")
				convey.So(store.len(), convey.ShouldEqual, 1)
				convey.So(rec.Score, convey.ShouldEqual, 80)
			})
		})

		convey.Convey("When the store fails", func() {
			store.fail = errors.New("disk full")
			q.Enqueue(ctx, model.Submission{ID: "f", Name: "ada", Score: 80})

			convey.Convey("Then the worker logs and keeps running", func() {
				convey.So(func() { drain(q, store) }, convey.ShouldNotPanic)
				convey.So(store.len(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When custom scorer and threshold are configured", func() {
			fixed := worker.ScorerFunc(func(geometry.Path, geometry.Frame) scoring.Result {
				return scoring.Result{Value: 50, Valid: true}
			})
			q.Enqueue(ctx, model.Submission{ID: "c", Name: "ada", Width: 100, Path: circle(30, 100)})
			drain(q, store, worker.WithScorer(fixed), worker.WithThreshold(40))

			convey.Convey("Then they decide eligibility", func() {
				rec, ok := store.get("c")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(rec.Score, convey.ShouldEqual, 50)
			})
		})
	})

	convey.Convey("Given a running worker", t, func() {
		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q, newMockStore(), worker.WithName("solo"))
		go w.Run(ctx)

		convey.Convey("When it is shut down", func() {
			sctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()

			convey.Convey("Then it stops promptly", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a pool of workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(500))
		store := newMockStore()
		pool := worker.NewPool(4, q, store)

		convey.Convey("Then it has the requested size", func() {
			convey.So(pool.Size(), convey.ShouldEqual, 4)
			convey.So(worker.NewPool(0, q, store).Size(), convey.ShouldBeGreaterThan, 0)
		})

		convey.Convey("When submissions are queued and the pool shuts down", func() {
			pool.Start(ctx)
			for i := 0; i < 200; i++ {
				q.Enqueue(ctx, model.Submission{ID: fmt.Sprintf("s-%d", i), Name: "p", Score: 71 + float64(i%28)})
			}
			sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			err := pool.Shutdown(sctx)

			convey.Convey("Then the queue is drained before returning", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(store.len(), convey.ShouldEqual, 200)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the start context is cancelled before shutdown", func() {
			runCtx, cancel := context.WithCancel(ctx)
			solo := worker.NewPool(1, q, store)
			solo.Start(runCtx)
			cancel()
			time.Sleep(20 * time.Millisecond)
			for i := 0; i < 50; i++ {
				q.Enqueue(ctx, model.Submission{ID: fmt.Sprintf("late-%d", i), Name: "p", Score: 90})
			}
			sctx, stop := context.WithTimeout(ctx, time.Second)
			defer stop()
			err := solo.Shutdown(sctx)

			convey.Convey("Then the undelivered submissions are reported", func() {
				convey.So(errors.Is(err, worker.ErrUndrained), convey.ShouldBeTrue)
				convey.So(store.len(), convey.ShouldEqual, 0)
			})
		})
	})
}
