package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	app "github.com/okian/perfectcircle/internal/app"
	"github.com/okian/perfectcircle/internal/config"
	"github.com/okian/perfectcircle/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init(logger.WithWriter(io.Discard))
	os.Exit(m.Run())
}

func TestConfigWiring(t *testing.T) {
	convey.Convey("Given configuration from the environment", t, func() {
		t.Setenv("CIRCLE_ADDR", ":9090")
		t.Setenv("CIRCLE_QUEUE_SIZE", "1000")
		t.Setenv("CIRCLE_WORKER_COUNT", "4")
		t.Setenv("CIRCLE_SUBMIT_THRESHOLD", "80")

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then the service picks it up", func() {
			svc := app.New(app.FromConfig(cfg)...)
			stats := svc.GetStats()
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(stats["queueSize"], convey.ShouldEqual, 1000)
			convey.So(stats["workerCount"], convey.ShouldEqual, 4)
			convey.So(stats["submitThreshold"], convey.ShouldEqual, 80.0)
		})
	})
}

func TestHandlerWiring(t *testing.T) {
	convey.Convey("Given the composed handler", t, func() {
		ctx := context.Background()
		cfg := config.New()
		svc := app.New(app.FromConfig(cfg)...)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		srv := httptest.NewServer(newHandler(ctx, svc, cfg))
		defer srv.Close()

		get := func(path string) (*http.Response, string) {
			resp, err := http.Get(srv.URL + path)
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			b, _ := io.ReadAll(resp.Body)
			return resp, string(b)
		}

		convey.Convey("Then the game page, docs and API are all mounted", func() {
			resp, body := get("/")
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(body, convey.ShouldContainSubstring, "canvas")

			resp, _ = get("/openapi.yaml")
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			resp, body = get("/scores")
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(strings.TrimSpace(body), convey.ShouldEqual, "[]")

			resp, _ = get("/healthz")
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("And the score endpoint answers", func() {
			resp, err := http.Post(srv.URL+"/score", "application/json",
				strings.NewReader(`{"width":100,"points":[{"x":10,"y":10},{"x":90,"y":90}]}`))
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestRunStopsOnCancel(t *testing.T) {
	convey.Convey("Given a server on an ephemeral port", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- run(ctx, cfg) }()

		convey.Convey("When the context is cancelled", func() {
			time.Sleep(50 * time.Millisecond)
			cancel()

			convey.Convey("Then run returns cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					t.Fatal("run did not return")
				}
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metrics updaters", t, func() {
		svc := app.New()

		convey.Convey("Then they return when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("And one-shot updates do not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}
