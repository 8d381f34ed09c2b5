package geometry_test

import (
	"math"
	"testing"

	"github.com/okian/perfectcircle/internal/domain/geometry"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDistanceAndCentroid(t *testing.T) {
	Convey("Given a few points", t, func() {
		path := geometry.Path{geometry.Pt(0, 0), geometry.Pt(4, 0), geometry.Pt(4, 3), geometry.Pt(0, 3)}

		Convey("Then distance follows Pythagoras", func() {
			So(geometry.Distance(path[0], path[2]), ShouldEqual, 5)
		})

		Convey("And the centroid is the mean position", func() {
			c := geometry.Centroid(path)
			So(c.X, ShouldEqual, 2)
			So(c.Y, ShouldEqual, 1.5)
		})

		Convey("And path length and mean step add up", func() {
			So(geometry.PathLength(path), ShouldEqual, 11)
			So(geometry.MeanStep(path), ShouldAlmostEqual, 11.0/3.0, 1e-12)
		})
	})

	Convey("Given an empty path", t, func() {
		Convey("Then the centroid is the origin and the mean step is zero", func() {
			So(geometry.Centroid(nil), ShouldResemble, geometry.Point{})
			So(geometry.MeanStep(nil), ShouldEqual, 0)
			So(geometry.MeanStep(geometry.Path{geometry.Pt(1, 1)}), ShouldEqual, 0)
		})
	})
}

func TestAngles(t *testing.T) {
	Convey("Given headings around the branch cut", t, func() {
		a1 := geometry.Direction(geometry.Pt(0, 0), geometry.Pt(-1, 0.01))
		a2 := geometry.Direction(geometry.Pt(0, 0), geometry.Pt(-1, -0.01))

		Convey("Then the raw difference is close to 2π", func() {
			So(geometry.AngleDiff(a1, a2), ShouldBeGreaterThan, 2*math.Pi-0.1)
		})

		Convey("And wrapping folds it back to a small step", func() {
			So(math.Abs(geometry.WrapAngle(a2-a1)), ShouldBeLessThan, 0.1)
		})
	})

	Convey("Given steps already inside (-π, π]", t, func() {
		Convey("Then WrapAngle leaves them untouched", func() {
			So(geometry.WrapAngle(1), ShouldEqual, 1)
			So(geometry.WrapAngle(-1), ShouldEqual, -1)
			So(geometry.WrapAngle(math.Pi), ShouldEqual, math.Pi)
		})
	})
}

func TestFrame(t *testing.T) {
	Convey("Given a 400px canvas", t, func() {
		f := geometry.NewFrame(400)

		Convey("Then center and exclusion radius derive from the width", func() {
			So(f.Center(), ShouldResemble, geometry.Pt(200, 200))
			So(f.ExclusionRadius(), ShouldAlmostEqual, 60, 1e-9)
		})

		Convey("And bounds checks use the square canvas", func() {
			So(f.Contains(geometry.Pt(0, 400)), ShouldBeTrue)
			So(f.Contains(geometry.Pt(-1, 10)), ShouldBeFalse)
			So(f.Contains(geometry.Pt(10, 401)), ShouldBeFalse)
		})

		Convey("And only positive finite widths are valid", func() {
			So(f.Valid(), ShouldBeTrue)
			So(geometry.NewFrame(0).Valid(), ShouldBeFalse)
			So(geometry.NewFrame(math.Inf(1)).Valid(), ShouldBeFalse)
		})
	})
}
