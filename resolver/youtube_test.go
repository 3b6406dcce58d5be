package resolver

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/kkdai/youtube/v2"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/ytrelay/ytrelay/failure"
	"github.com/ytrelay/ytrelay/video"
)

type fakeProvider struct {
	video     *youtube.Video
	err       error
	streamErr error
	opened    *youtube.Format
	requested []string
}

func (f *fakeProvider) GetVideoContext(_ context.Context, id string) (*youtube.Video, error) {
	f.requested = append(f.requested, id)
	return f.video, f.err
}

func (f *fakeProvider) GetStreamContext(_ context.Context, _ *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error) {
	if f.streamErr != nil {
		return nil, 0, f.streamErr
	}
	f.opened = format
	return io.NopCloser(strings.NewReader("bytes")), 5, nil
}

var testURL = video.URL{Raw: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", Host: "www.youtube.com"}

func sampleVideo() *youtube.Video {
	return &youtube.Video{
		ID:       "dQw4w9WgXcQ",
		Title:    "Never Gonna Give You Up",
		Duration: 212 * time.Second,
		Formats: youtube.FormatList{
			{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, QualityLabel: "360p", Width: 640, Height: 360, AudioChannels: 2, Bitrate: 500_000},
			{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, QualityLabel: "1080p", Width: 1920, Height: 1080, Bitrate: 4_000_000},
			{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, AudioChannels: 2, Bitrate: 128_000},
			{ItagNo: 22, MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, QualityLabel: "720p", Width: 1280, Height: 720, AverageBitrate: 1_500_000, ContentLength: 1024},
		},
	}
}

func TestResolve(t *testing.T) {
	Convey("Given a provider returning a public video", t, func() {
		fake := &fakeProvider{video: sampleVideo()}
		r := &YouTube{client: fake}

		meta, err := r.Resolve(context.Background(), testURL)
		So(err, ShouldBeNil)

		Convey("The provider is asked for the video id", func() {
			So(fake.requested, ShouldResemble, []string{"dQw4w9WgXcQ"})
		})

		Convey("Metadata is mapped", func() {
			So(meta.ID, ShouldEqual, "dQw4w9WgXcQ")
			So(meta.Title, ShouldEqual, "Never Gonna Give You Up")
			So(meta.DurationSeconds, ShouldEqual, 212)
			So(meta.IsPrivate, ShouldBeFalse)
			So(meta.Formats, ShouldHaveLength, 4)
		})

		Convey("Formats keep provider order and capabilities", func() {
			f := meta.Formats
			So(f[0].ID, ShouldEqual, "18")
			So(f[0].Progressive(), ShouldBeTrue)
			So(f[1].HasVideo, ShouldBeTrue)
			So(f[1].HasAudio, ShouldBeFalse)
			So(f[2].HasAudio, ShouldBeTrue)
			So(f[2].HasVideo, ShouldBeFalse)
			So(f[3].Progressive(), ShouldBeTrue)
			So(f[3].Index, ShouldEqual, 3)
			So(f[3].ContentLength, ShouldEqual, 1024)
		})

		Convey("Resolution outranks bitrate", func() {
			So(meta.Formats[3].QualityRank, ShouldBeGreaterThan, meta.Formats[0].QualityRank)
			So(meta.Formats[1].QualityRank, ShouldBeGreaterThan, meta.Formats[3].QualityRank)
		})

		Convey("Open streams the matching provider format", func() {
			stream, size, err := r.Open(context.Background(), meta, meta.Formats[3])
			So(err, ShouldBeNil)
			defer stream.Close()
			So(size, ShouldEqual, 5)
			So(fake.opened.ItagNo, ShouldEqual, 22)
		})

		Convey("Open rejects a foreign format", func() {
			_, _, err := r.Open(context.Background(), meta, video.Format{ID: "99", Index: 1, Itag: 99})
			So(errors.Is(err, failure.ErrStreamFailure), ShouldBeTrue)
		})

		Convey("Open failures are stream failures", func() {
			fake.streamErr = errors.New("403 from googlevideo")
			_, _, err := r.Open(context.Background(), meta, meta.Formats[0])
			So(errors.Is(err, failure.ErrStreamFailure), ShouldBeTrue)
		})
	})

	Convey("Given a private video", t, func() {
		r := &YouTube{client: &fakeProvider{err: youtube.ErrVideoPrivate}}

		Convey("It resolves with IsPrivate set", func() {
			meta, err := r.Resolve(context.Background(), testURL)
			So(err, ShouldBeNil)
			So(meta.IsPrivate, ShouldBeTrue)
		})
	})

	Convey("Given a playability status mentioning privacy", t, func() {
		r := &YouTube{client: &fakeProvider{err: &youtube.ErrPlayabiltyStatus{Status: "LOGIN_REQUIRED", Reason: "This video is private"}}}

		Convey("It resolves with IsPrivate set", func() {
			meta, err := r.Resolve(context.Background(), testURL)
			So(err, ShouldBeNil)
			So(meta.IsPrivate, ShouldBeTrue)
		})
	})

	Convey("Given a URL the provider cannot parse", t, func() {
		r := &YouTube{client: &fakeProvider{err: youtube.ErrInvalidCharactersInVideoID}}

		Convey("It is invalid input", func() {
			_, err := r.Resolve(context.Background(), testURL)
			So(errors.Is(err, failure.ErrInvalidInput), ShouldBeTrue)
			_, msg := failure.Describe(err)
			So(msg, ShouldEqual, "Invalid YouTube video URL")
		})
	})

	Convey("Given an unavailable video", t, func() {
		r := &YouTube{client: &fakeProvider{err: errors.New("Video unavailable")}}

		Convey("It is a resolution failure", func() {
			_, err := r.Resolve(context.Background(), testURL)
			So(errors.Is(err, failure.ErrResolutionFailure), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Video unavailable")
		})
	})

	Convey("Given addresses on an allowed host that are not videos", t, func() {
		fake := &fakeProvider{video: sampleVideo()}
		r := &YouTube{client: fake}

		for _, raw := range []string{
			"https://www.youtube.com/",
			"https://youtube.com/channel/UCabc",
			"https://www.youtube.com/playlist?list=PL123",
			"https://www.youtube.com/watch?v=short",
			"https://youtu.be/",
		} {
			_, err := r.Resolve(context.Background(), video.URL{Raw: raw})
			So(errors.Is(err, failure.ErrInvalidInput), ShouldBeTrue)
			status, msg := failure.Describe(err)
			So(status, ShouldEqual, 400)
			So(msg, ShouldEqual, "Invalid YouTube video URL")
		}

		Convey("The provider is never contacted", func() {
			So(fake.requested, ShouldBeEmpty)
		})
	})

	Convey("Open without provider state fails", t, func() {
		r := &YouTube{client: &fakeProvider{}}
		_, _, err := r.Open(context.Background(), &video.Metadata{}, video.Format{})
		So(errors.Is(err, failure.ErrStreamFailure), ShouldBeTrue)
	})
}

func TestVideoID(t *testing.T) {
	Convey("Video ids are taken from every single-video address shape", t, func() {
		for raw, want := range map[string]string{
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42": "dQw4w9WgXcQ",
			"https://youtube.com/shorts/dQw4w9WgXcQ":          "dQw4w9WgXcQ",
			"https://www.youtube.com/embed/dQw4w9WgXcQ":       "dQw4w9WgXcQ",
			"https://www.youtube.com/v/dQw4w9WgXcQ":           "dQw4w9WgXcQ",
			"https://www.youtube.com/live/dQw4w9WgXcQ?si=x":   "dQw4w9WgXcQ",
			"https://youtu.be/dQw4w9WgXcQ?si=abc":             "dQw4w9WgXcQ",
		} {
			id, err := VideoID(video.URL{Raw: raw})
			So(err, ShouldBeNil)
			So(id, ShouldEqual, want)
		}
	})

	Convey("Malformed ids are rejected", t, func() {
		_, err := VideoID(video.URL{Raw: "https://www.youtube.com/watch?v=dQw4w9WgXc!"})
		So(errors.Is(err, failure.ErrInvalidInput), ShouldBeTrue)

		_, err = VideoID(video.URL{Raw: "https://youtu.be/dQw4w9WgXcQextra"})
		So(errors.Is(err, failure.ErrInvalidInput), ShouldBeTrue)
	})
}
