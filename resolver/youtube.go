package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"
	"github.com/samber/lo"
	"github.com/ytrelay/ytrelay/failure"
	"github.com/ytrelay/ytrelay/log"
	"github.com/ytrelay/ytrelay/video"
)

// provider is the subset of *youtube.Client the resolver relies on.
type provider interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

var _ provider = (*youtube.Client)(nil)

// YouTube resolves videos with github.com/kkdai/youtube.
type YouTube struct {
	client provider
}

// NewYouTube returns a resolver issuing requests through httpClient.
func NewYouTube(httpClient *http.Client) *YouTube {
	return &YouTube{client: &youtube.Client{HTTPClient: httpClient}}
}

// Resolve implements Resolver.
// Addresses that do not point at a single video are rejected without contacting the provider.
func (y *YouTube) Resolve(ctx context.Context, u video.URL) (*video.Metadata, error) {
	id, err := VideoID(u)
	if err != nil {
		return nil, err
	}

	v, err := y.client.GetVideoContext(ctx, id)
	if err != nil {
		if isPrivate(err) {
			log.Infof("video %s is private", u.Raw)
			return &video.Metadata{IsPrivate: true}, nil
		}
		return nil, classify(err)
	}

	return toMetadata(v), nil
}

// Open implements Resolver.
func (y *YouTube) Open(ctx context.Context, meta *video.Metadata, format video.Format) (io.ReadCloser, int64, error) {
	v, ok := meta.Source.(*youtube.Video)
	if !ok || v == nil {
		return nil, 0, failure.New(failure.StreamFailure, failure.MsgStreamFailed)
	}

	if format.Index < 0 || format.Index >= len(v.Formats) || v.Formats[format.Index].ItagNo != format.Itag {
		return nil, 0, failure.Wrap(failure.StreamFailure, failure.MsgStreamFailed,
			fmt.Errorf("format %s does not belong to video %s", format.ID, v.ID))
	}

	stream, size, err := y.client.GetStreamContext(ctx, v, &v.Formats[format.Index])
	if err != nil {
		return nil, 0, failure.Wrap(failure.StreamFailure, failure.MsgStreamFailed, fmt.Errorf("open stream: %w", err))
	}

	return stream, size, nil
}

func toMetadata(v *youtube.Video) *video.Metadata {
	return &video.Metadata{
		ID:              v.ID,
		Title:           v.Title,
		DurationSeconds: int(v.Duration.Seconds()),
		Formats: lo.Map(v.Formats, func(f youtube.Format, i int) video.Format {
			return toFormat(f, i)
		}),
		Source: v,
	}
}

func toFormat(f youtube.Format, index int) video.Format {
	mime := strings.ToLower(f.MimeType)
	hasVideo := f.Width > 0 || f.Height > 0 || strings.HasPrefix(mime, "video/")
	hasAudio := f.AudioChannels > 0 || strings.HasPrefix(mime, "audio/") || hasAudioCodec(mime)

	return video.Format{
		ID:            strconv.Itoa(f.ItagNo),
		Index:         index,
		Itag:          f.ItagNo,
		MimeType:      f.MimeType,
		QualityLabel:  f.QualityLabel,
		HasAudio:      hasAudio,
		HasVideo:      hasVideo,
		QualityRank:   qualityRank(f),
		ContentLength: f.ContentLength,
	}
}

// qualityRank orders by resolution first and bitrate second.
func qualityRank(f youtube.Format) int64 {
	bitrate := f.Bitrate
	if bitrate <= 0 {
		bitrate = f.AverageBitrate
	}
	return int64(f.Height)*10_000_000 + int64(bitrate)
}

// audioCodecs appear in the codecs parameter of muxed formats, e.g. `video/mp4; codecs="avc1.42001E, mp4a.40.2"`.
var audioCodecs = []string{"mp4a", "opus", "vorbis", "ac-3", "ec-3"}

func hasAudioCodec(mime string) bool {
	_, params, ok := strings.Cut(mime, "codecs=")
	if !ok {
		return false
	}
	return lo.SomeBy(audioCodecs, func(c string) bool {
		return strings.Contains(params, c)
	})
}

func isPrivate(err error) bool {
	if errors.Is(err, youtube.ErrVideoPrivate) {
		return true
	}

	var statusErr *youtube.ErrPlayabiltyStatus
	if errors.As(err, &statusErr) {
		return strings.Contains(strings.ToUpper(statusErr.Reason), "PRIVATE")
	}
	return false
}

// classify maps provider errors onto the pipeline taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return failure.Wrap(failure.InvalidInput, failure.MsgInvalidVideoURL, err)
	default:
		return failure.Wrap(failure.ResolutionFailure, failure.MsgDownloadFailed, fmt.Errorf("resolve video: %w", err))
	}
}
