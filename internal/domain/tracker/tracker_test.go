package tracker_test

import (
	"testing"
	"time"

	"github.com/okian/xptrack/internal/domain/chart"
	"github.com/okian/xptrack/internal/domain/delta"
	"github.com/okian/xptrack/internal/domain/format"
	"github.com/okian/xptrack/internal/domain/model"
	"github.com/okian/xptrack/internal/domain/skill"
	"github.com/okian/xptrack/internal/domain/tracker"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuild(t *testing.T) {
	d0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	res := delta.Compute([]model.Snapshot{
		{Date: d0, Fields: map[string]int64{"mining_rank": 100, "mining_xp": 500, "fishing_rank": 50, "fishing_xp": 1000}},
		{Date: d0.AddDate(0, 0, 6), Fields: map[string]int64{"mining_rank": 80, "mining_xp": 700, "fishing_rank": 60, "fishing_xp": 1000}},
	})

	Convey("Given a computed week", t, func() {
		view := tracker.Build(format.Default(), chart.DefaultPalette, "Zezima", time.Time{}, time.Time{}, res)

		Convey("Then the header falls back to the snapshot dates", func() {
			So(view.Name, ShouldEqual, "Zezima")
			So(view.StartLabel, ShouldEqual, "Fri Mar 01 2024")
			So(view.EndLabel, ShouldEqual, "Thu Mar 07 2024")
			So(view.Snapshots, ShouldEqual, 2)
		})

		Convey("Then the list follows the delta order with overall last", func() {
			So(len(view.Items), ShouldEqual, 3)
			So(view.Items[0].Category, ShouldEqual, skill.Key("fishing"))
			So(view.Items[1].Category, ShouldEqual, skill.Key("mining"))
			So(view.Items[2].Category, ShouldEqual, skill.Overall)
		})

		Convey("Then rank improvements read as gains", func() {
			mining := view.Items[1]
			So(mining.Icon, ShouldEqual, "/img/skillicons/mining.png")
			So(mining.Name, ShouldEqual, "Mining")
			So(mining.Ranks, ShouldResemble, format.Change{Value: 20, Text: "+20", Positive: true})
			So(mining.XP.Text, ShouldEqual, "+200")

			fishing := view.Items[0]
			So(fishing.Ranks, ShouldResemble, format.Change{Value: -10, Text: "-10", Positive: false})
			So(fishing.XP.Text, ShouldEqual, "+0")
		})

		Convey("Then the charts are attached", func() {
			So(view.Charts.OverallXP.Datasets[0].Data, ShouldResemble, []int64{1500, 1700})
		})
	})

	Convey("Given an explicit window", t, func() {
		start := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
		view := tracker.Build(nil, chart.DefaultPalette, "Zezima", start, time.Time{}, res)

		Convey("Then the labels use it", func() {
			So(view.StartLabel, ShouldEqual, "Wed Feb 28 2024")
			So(view.EndLabel, ShouldEqual, "Thu Mar 07 2024")
		})
	})
}
