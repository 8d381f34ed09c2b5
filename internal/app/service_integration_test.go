package service_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	service "github.com/okian/perfectcircle/internal/app"
	"github.com/okian/perfectcircle/internal/adapters/repository"
	"github.com/okian/perfectcircle/internal/domain/geometry"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service backed by SQLite", t, func() {
		ctx := context.Background()
		dbPath := filepath.Join(t.TempDir(), "scores.db")
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(100),
			service.WithStoreDriver(repository.DriverSQLite, dbPath),
		)
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(ctx) })

		top := func(n int) []float64 {
			entries, err := svc.TopN(ctx, n)
			So(err, ShouldBeNil)
			out := make([]float64, len(entries))
			for i, e := range entries {
				out[i] = e.Score
			}
			return out
		}

		Convey("When eligible claims and a drawn circle are submitted", func() {
			for i, score := range []float64{85, 92.5, 78} {
				_, err := svc.Submit(ctx, service.SubmitRequest{ID: fmt.Sprintf("claim-%d", i), Name: "  ada   lovelace ", Score: score})
				So(err, ShouldBeNil)
			}
			drawn, err := svc.Submit(ctx, service.SubmitRequest{Name: "grace", Score: 71, Width: 1000, Path: circle(360, 1000)})
			So(err, ShouldBeNil)

			Convey("Then the leaderboard lists them best first", func() {
				So(drawn.ID, ShouldNotBeEmpty)
				So(drawn.Score, ShouldEqual, 99.0)
				So(eventually(func() bool { return len(top(0)) == 4 }), ShouldBeTrue)
				So(top(0), ShouldResemble, []float64{99, 92.5, 85, 78})
				So(top(2), ShouldResemble, []float64{99, 92.5})

				entries, _ := svc.TopN(ctx, 0)
				So(entries[0].Name, ShouldEqual, "grace")
				So(entries[1].Name, ShouldEqual, "ada lovelace")
				So(entries[3].Rank, ShouldEqual, 4)
			})

			Convey("And the scores survive a restart", func() {
				So(eventually(func() bool { return len(top(0)) == 4 }), ShouldBeTrue)
				So(svc.Stop(ctx), ShouldBeNil)

				again := service.New(service.WithStoreDriver(repository.DriverSQLite, dbPath))
				So(again.Start(ctx), ShouldBeNil)
				defer func() { _ = again.Stop(ctx) }()
				entries, err := again.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 4)
			})
		})

		Convey("When the same submission is retried", func() {
			first, err := svc.Submit(ctx, service.SubmitRequest{ID: "retry", Name: "ada", Score: 88})
			So(err, ShouldBeNil)
			second, err := svc.Submit(ctx, service.SubmitRequest{ID: "retry", Name: "ada", Score: 88})
			So(err, ShouldBeNil)

			Convey("Then it is stored once", func() {
				So(first.Duplicate, ShouldBeFalse)
				So(second.Duplicate, ShouldBeTrue)
				So(eventually(func() bool { return len(top(10)) == 1 }), ShouldBeTrue)
			})
		})

		Convey("When claims are not eligible", func() {
			_, low := svc.Submit(ctx, service.SubmitRequest{Name: "ada", Score: 70})
			_, high := svc.Submit(ctx, service.SubmitRequest{Name: "ada", Score: 100})
			broken := circle(360, 1000)
			broken[5] = geometry.Pt(500, 500)
			_, invalid := svc.Submit(ctx, service.SubmitRequest{Name: "ada", Width: 1000, Path: broken})

			Convey("Then they are rejected synchronously", func() {
				So(errors.Is(low, service.ErrNotEligible), ShouldBeTrue)
				So(errors.Is(high, service.ErrNotEligible), ShouldBeTrue)
				So(errors.Is(invalid, service.ErrNotEligible), ShouldBeTrue)
			})
		})

		Convey("When names are invalid", func() {
			_, empty := svc.Submit(ctx, service.SubmitRequest{Name: "   ", Score: 90})
			_, long := svc.Submit(ctx, service.SubmitRequest{Name: "abcdefghijklmnopqrstu", Score: 90})

			Convey("Then ErrInvalidName is returned", func() {
				So(errors.Is(empty, service.ErrInvalidName), ShouldBeTrue)
				So(errors.Is(long, service.ErrInvalidName), ShouldBeTrue)
			})
		})
	})
}

func TestServiceStopDrainsAfterCancel(t *testing.T) {
	Convey("Given a service started on a context that is later cancelled", t, func() {
		dbPath := filepath.Join(t.TempDir(), "drain.db")
		runCtx, cancel := context.WithCancel(context.Background())
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(100),
			service.WithStoreDriver(repository.DriverSQLite, dbPath),
		)
		So(svc.Start(runCtx), ShouldBeNil)
		cancel()

		Convey("When claims are accepted after the cancel and the service stops", func() {
			ctx := context.Background()
			accepted := 0
			for i := 0; i < 20; i++ {
				if _, err := svc.Submit(ctx, service.SubmitRequest{ID: fmt.Sprintf("late-%d", i), Name: "ada", Score: 90}); err == nil {
					accepted++
				}
			}
			stopErr := svc.Stop(ctx)

			Convey("Then every accepted claim is stored", func() {
				So(accepted, ShouldEqual, 20)
				So(stopErr, ShouldBeNil)

				again := service.New(service.WithStoreDriver(repository.DriverSQLite, dbPath))
				So(again.Start(ctx), ShouldBeNil)
				defer func() { _ = again.Stop(ctx) }()
				entries, err := again.TopN(ctx, 50)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 20)
			})
		})
	})
}

func TestServiceBackpressure(t *testing.T) {
	Convey("Given a service whose store blocks the workers", t, func() {
		ctx := context.Background()
		store := &blockingStore{Store: repository.NewTreapStore(ctx), release: make(chan struct{})}
		svc := service.New(service.WithWorkerCount(1), service.WithQueueSize(1), service.WithStore(store))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() {
			close(store.release)
			_ = svc.Stop(ctx)
		})

		Convey("When more claims arrive than the queue holds", func() {
			var rejected error
			var rejectedID string
			for i := 0; i < 5 && rejected == nil; i++ {
				rejectedID = fmt.Sprintf("bp-%d", i)
				_, rejected = svc.Submit(ctx, service.SubmitRequest{ID: rejectedID, Name: "ada", Score: 90})
			}

			Convey("Then backpressure is reported and the id can be retried", func() {
				So(errors.Is(rejected, service.ErrBackpressure), ShouldBeTrue)
				_, retry := svc.Submit(ctx, service.SubmitRequest{ID: rejectedID, Name: "ada", Score: 90})
				So(errors.Is(retry, service.ErrBackpressure), ShouldBeTrue)
			})
		})
	})
}

// blockingStore holds every insert until release is closed.
type blockingStore struct {
	repository.Store
	release chan struct{}
}

func (b *blockingStore) Insert(ctx context.Context, rec repository.Record) error {
	<-b.release
	return b.Store.Insert(ctx, rec)
}
