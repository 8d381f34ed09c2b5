package session_test

import (
	"math"
	"testing"

	"github.com/okian/perfectcircle/internal/domain/geometry"
	"github.com/okian/perfectcircle/internal/domain/scoring"
	"github.com/okian/perfectcircle/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

func circle(n int, w float64) geometry.Path {
	path := make(geometry.Path, n)
	for k := range path {
		a := 2 * math.Pi * float64(k) / float64(n-1)
		path[k] = geometry.Pt(w/2+0.3*w*math.Cos(a), w/2+0.3*w*math.Sin(a))
	}
	return path
}

func TestSessionGesture(t *testing.T) {
	frame := geometry.NewFrame(1000)

	Convey("Given an idle session", t, func() {
		s := session.New()

		Convey("When samples are appended before a gesture starts", func() {
			up := s.Append(geometry.Pt(10, 10))

			Convey("Then they are ignored", func() {
				So(up.Samples, ShouldEqual, 0)
				So(s.Drawing(), ShouldBeFalse)
			})
		})

		Convey("When a gesture is ended before it starts", func() {
			out := s.End()

			Convey("Then the zero outcome is returned", func() {
				So(out.Valid, ShouldBeFalse)
				So(out.NewBest, ShouldBeFalse)
			})
		})

		Convey("When a circle is drawn sample by sample", func() {
			s.Begin(frame)
			var lives int
			for _, p := range circle(360, frame.Width) {
				if up := s.Append(p); up.Live != nil {
					lives++
					So(up.Samples%scoring.DefaultStride, ShouldEqual, 0)
					So(up.Samples, ShouldBeGreaterThan, scoring.DefaultWarmUp)
				}
			}
			out := s.End()

			Convey("Then live scores follow the cadence", func() {
				So(lives, ShouldEqual, 70)
			})

			Convey("And the final outcome is the authoritative score", func() {
				So(out.Valid, ShouldBeTrue)
				So(out.Value, ShouldEqual, 99.0)
				So(out.Best, ShouldEqual, 99.0)
				So(out.NewBest, ShouldBeTrue)
				So(out.Eligible, ShouldBeTrue)
				So(s.Drawing(), ShouldBeFalse)
				So(s.Path(), ShouldBeEmpty)
			})

			Convey("And a worse second attempt keeps the best", func() {
				s.Begin(frame)
				s.Append(circle(360, frame.Width)[:200]...)
				second := s.End()
				So(second.Value, ShouldBeLessThan, 99.0)
				So(second.NewBest, ShouldBeFalse)
				So(second.Best, ShouldEqual, 99.0)

				st := s.Snapshot()
				So(st.Attempts, ShouldEqual, 2)
				So(*st.Best, ShouldEqual, 99.0)
				So(st.Last.Value, ShouldEqual, second.Value)
			})
		})

		Convey("When the gesture crosses the exclusion zone", func() {
			s.Begin(frame)
			path := circle(100, frame.Width)
			s.Append(path[:50]...)
			up := s.Append(frame.Center())

			Convey("Then the live cue is raised", func() {
				So(up.TooClose, ShouldBeTrue)
				So(s.Snapshot().TooClose, ShouldBeTrue)
			})

			Convey("And it clears once the pointer moves out again", func() {
				So(s.Append(path[50:]...).TooClose, ShouldBeFalse)
			})

			Convey("And the final verdict is invalid and never becomes the best", func() {
				s.Append(path[50:]...)
				out := s.End()
				So(out.Valid, ShouldBeFalse)
				So(out.Value, ShouldEqual, 0)
				So(out.NewBest, ShouldBeFalse)
				So(out.Eligible, ShouldBeFalse)
				So(s.Snapshot().Best, ShouldBeNil)
			})
		})

		Convey("When a new gesture begins mid-way", func() {
			s.Begin(frame)
			s.Append(circle(40, frame.Width)...)
			s.Begin(frame)

			Convey("Then the previous path is discarded", func() {
				So(s.Snapshot().Samples, ShouldEqual, 0)
				So(s.Snapshot().Live, ShouldBeNil)
			})
		})
	})

	Convey("Given a session with a custom policy", t, func() {
		s := session.New(
			session.WithCadence(scoring.NewCadence(scoring.WithStride(1), scoring.WithWarmUp(0))),
			session.WithSubmitThreshold(99.5),
		)
		s.Begin(frame)

		Convey("Then every sample recomputes the live score", func() {
			So(s.Append(geometry.Pt(100, 100)).Live, ShouldNotBeNil)
		})

		Convey("And a threshold above the ceiling makes nothing eligible", func() {
			s.Append(circle(360, frame.Width)...)
			out := s.End()
			So(out.Value, ShouldEqual, 99.0)
			So(out.Eligible, ShouldBeFalse)
		})
	})
}
