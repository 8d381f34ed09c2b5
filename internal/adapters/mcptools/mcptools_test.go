package mcptools

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/perfectcircle/internal/app"
	logging "github.com/okian/perfectcircle/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logging.Init(logging.WithWriter(io.Discard))
	m.Run()
}

func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// circlePoints builds the JSON shape a client sends for a closed circle.
func circlePoints(n int, w float64) []any {
	pts := make([]any, n)
	for k := range pts {
		a := 2 * math.Pi * float64(k) / float64(n-1)
		pts[k] = map[string]any{"x": w/2 + 0.3*w*math.Cos(a), "y": w/2 + 0.3*w*math.Sin(a)}
	}
	return pts
}

func newBackend(t *testing.T) *service.Service {
	t.Helper()
	svc := service.New(service.WithStoreDriver("memory", ""))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })
	return svc
}

func TestDefinitions(t *testing.T) {
	Convey("Given the tool set", t, func() {
		So(NewScoreTool(nil).Definition().Name, ShouldEqual, "score_path")
		So(NewSubmitTool(nil).Definition().Name, ShouldEqual, "submit_score")
		So(NewTopTool(nil).Definition().Name, ShouldEqual, "top_scores")

		Convey("Then required arguments are declared", func() {
			score := NewScoreTool(nil).Definition()
			So(score.InputSchema.Properties, ShouldContainKey, "points")
			So(score.InputSchema.Required, ShouldContain, "width")
			So(score.InputSchema.Required, ShouldContain, "points")
			So(NewSubmitTool(nil).Definition().InputSchema.Required, ShouldContain, "name")
		})
	})
}

func TestTools(t *testing.T) {
	ctx := context.Background()

	Convey("Given tools backed by a running service", t, func() {
		svc := newBackend(t)

		Convey("When a circle is scored", func() {
			res, err := NewScoreTool(svc).Handle(ctx, makeReq(map[string]any{
				"width":  1000.0,
				"points": circlePoints(360, 1000),
			}))

			Convey("Then the text reports 99 and eligibility", func() {
				So(err, ShouldBeNil)
				So(res.IsError, ShouldBeFalse)
				So(resultText(res), ShouldContainSubstring, "Score: 99.0%")
				So(resultText(res), ShouldContainSubstring, "Eligible for the leaderboard: true")
			})
		})

		Convey("When points are malformed", func() {
			res, err := NewScoreTool(svc).Handle(ctx, makeReq(map[string]any{
				"width":  1000.0,
				"points": "not a list",
			}))

			Convey("Then a tool error is returned", func() {
				So(err, ShouldBeNil)
				So(res.IsError, ShouldBeTrue)
			})
		})

		Convey("When the width is missing", func() {
			res, _ := NewScoreTool(svc).Handle(ctx, makeReq(map[string]any{"points": circlePoints(30, 100)}))

			Convey("Then a tool error is returned", func() {
				So(res.IsError, ShouldBeTrue)
				So(resultText(res), ShouldContainSubstring, "failed to score path")
			})
		})

		Convey("When scores are submitted and listed", func() {
			submit := NewSubmitTool(svc)
			res, err := submit.Handle(ctx, makeReq(map[string]any{
				"name":          "ada",
				"score":         88.5,
				"submission_id": "mcp-1",
			}))
			So(err, ShouldBeNil)
			So(resultText(res), ShouldContainSubstring, "Queued mcp-1")

			again, _ := submit.Handle(ctx, makeReq(map[string]any{"name": "ada", "score": 88.5, "submission_id": "mcp-1"}))
			So(resultText(again), ShouldContainSubstring, "Already submitted")

			var text string
			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) {
				top, _ := NewTopTool(svc).Handle(ctx, makeReq(map[string]any{"limit": 3.0}))
				if text = resultText(top); strings.Contains(text, "ada") {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}

			Convey("Then the entry appears ranked first", func() {
				So(text, ShouldContainSubstring, "1. ada: 88.5%")
			})
		})

		Convey("When a submission is missing its name or is too low", func() {
			noName, _ := NewSubmitTool(svc).Handle(ctx, makeReq(map[string]any{"score": 90.0}))
			low, _ := NewSubmitTool(svc).Handle(ctx, makeReq(map[string]any{"name": "bob", "score": 50.0}))

			Convey("Then both are tool errors", func() {
				So(noName.IsError, ShouldBeTrue)
				So(low.IsError, ShouldBeTrue)
				So(resultText(low), ShouldContainSubstring, "submission rejected")
			})
		})

		Convey("When the leaderboard is empty", func() {
			top, _ := NewTopTool(svc).Handle(ctx, makeReq(nil))

			Convey("Then it says so", func() {
				So(resultText(top), ShouldEqual, "The leaderboard is empty.")
			})
		})
	})
}

func TestNewServer(t *testing.T) {
	Convey("Given a backend", t, func() {
		s := NewServer(newBackend(t))

		Convey("When a client lists the tools", func() {
			msg := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
			body, err := json.Marshal(msg)

			Convey("Then all tools are registered", func() {
				So(err, ShouldBeNil)
				So(string(body), ShouldContainSubstring, `"score_path"`)
				So(string(body), ShouldContainSubstring, `"submit_score"`)
				So(string(body), ShouldContainSubstring, `"top_scores"`)
			})
		})
	})
}
