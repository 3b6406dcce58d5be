// Package resolver turns a validated URL into video metadata through an extraction provider.
package resolver

import (
	"context"
	"io"

	"github.com/ytrelay/ytrelay/video"
)

// Resolver is the extraction capability consumed by the pipeline.
//
// Resolve fails with a failure.Error classified InvalidInput when the provider rejects the URL itself,
// and ResolutionFailure when the provider call fails or the video is unavailable.
// Private videos are not errors: they resolve with IsPrivate set.
//
// Open returns the byte stream of a format previously returned by Resolve, and its size when known (else <= 0).
type Resolver interface {
	Resolve(ctx context.Context, u video.URL) (*video.Metadata, error)
	Open(ctx context.Context, meta *video.Metadata, format video.Format) (io.ReadCloser, int64, error)
}
