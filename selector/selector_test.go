package selector

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/ytrelay/ytrelay/failure"
	"github.com/ytrelay/ytrelay/video"
)

func av(id string, rank int64) video.Format {
	return video.Format{ID: id, HasAudio: true, HasVideo: true, QualityRank: rank}
}

func TestSelect(t *testing.T) {
	Convey("Given formats without a progressive candidate", t, func() {
		formats := []video.Format{
			{ID: "137", HasVideo: true, QualityRank: 1080},
			{ID: "140", HasAudio: true, QualityRank: 128},
			{ID: "0"},
		}

		Convey("Select yields None and Require fails with NoSuitableFormat", func() {
			So(Select(formats).IsAbsent(), ShouldBeTrue)
			So(Select(nil).IsAbsent(), ShouldBeTrue)

			_, err := Require(formats)
			So(errors.Is(err, failure.ErrNoSuitableFormat), ShouldBeTrue)
			_, msg := failure.Describe(err)
			So(msg, ShouldEqual, "No suitable format found for this video")
		})
	})

	Convey("Given mixed formats", t, func() {
		formats := []video.Format{
			{ID: "137", HasVideo: true, QualityRank: 9999},
			av("18", 360),
			av("22", 720),
			{ID: "140", HasAudio: true, QualityRank: 9999},
			av("43", 360),
		}

		Convey("The highest ranked progressive format wins", func() {
			f, err := Require(formats)
			So(err, ShouldBeNil)
			So(f.ID, ShouldEqual, "22")
		})

		Convey("The choice is stable", func() {
			for i := 0; i < 10; i++ {
				So(Select(formats).MustGet().ID, ShouldEqual, "22")
			}
		})
	})

	Convey("Given tied ranks", t, func() {
		formats := []video.Format{av("a", 5), av("b", 7), av("c", 7), av("d", 1)}

		Convey("The first maximum in provider order wins", func() {
			So(Select(formats).MustGet().ID, ShouldEqual, "b")
		})
	})
}
