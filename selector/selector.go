// Package selector picks the representation the relay streams.
package selector

import (
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/ytrelay/ytrelay/failure"
	"github.com/ytrelay/ytrelay/video"
)

// Select returns the progressive format with the highest QualityRank.
// Ties keep the provider's ordering: the first maximum wins. None when no format has both audio and video.
func Select(formats []video.Format) mo.Option[video.Format] {
	eligible := lo.Filter(formats, func(f video.Format, _ int) bool {
		return f.Progressive()
	})
	if len(eligible) == 0 {
		return mo.None[video.Format]()
	}

	best := lo.MaxBy(eligible, func(candidate, current video.Format) bool {
		return candidate.QualityRank > current.QualityRank
	})
	return mo.Some(best)
}

// Require is Select with the empty case reported as NoSuitableFormat.
func Require(formats []video.Format) (video.Format, error) {
	f, ok := Select(formats).Get()
	if !ok {
		return video.Format{}, failure.New(failure.NoSuitableFormat, failure.MsgNoSuitableFormat)
	}
	return f, nil
}
