package types_test

import (
	"encoding/json"
	"testing"
	"time"

	types "github.com/okian/perfectcircle/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntry(t *testing.T) {
	Convey("Given a leaderboard entry", t, func() {
		entry := types.Entry{
			Rank:        1,
			Name:        "ada",
			Score:       97.4,
			SubmittedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		}

		Convey("When it is encoded as JSON", func() {
			b, err := json.Marshal(entry)

			Convey("Then it uses the public field names", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, `{"rank":1,"name":"ada","score":97.4,"submitted_at":"2024-05-01T12:00:00Z"}`)
			})
		})
	})
}
