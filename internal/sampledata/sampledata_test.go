package sampledata_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/matchdigest/internal/domain/grouping"
	"github.com/okian/matchdigest/internal/sampledata"
	"github.com/okian/matchdigest/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestGenerate(t *testing.T) {
	Convey("Given a generated feed", t, func() {
		ctx := context.Background()
		events := sampledata.Generate(ctx, sampledata.WithPossessions(12), sampledata.WithSeed(7))

		Convey("Then it groups into the requested number of possessions", func() {
			groups, err := grouping.Group(events)
			So(err, ShouldBeNil)
			So(len(groups), ShouldEqual, 12)
			So(groups[0].Key, ShouldEqual, 0)
			So(groups[11].Key, ShouldEqual, 330)
		})

		Convey("Then every event is complete", func() {
			for i := range events {
				So(events[i].MissingField(), ShouldEqual, "")
			}
		})

		Convey("Then the same seed reproduces the feed", func() {
			again := sampledata.Generate(ctx, sampledata.WithPossessions(12), sampledata.WithSeed(7))
			So(again, ShouldResemble, events)
		})
	})
}
