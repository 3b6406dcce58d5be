// Package video defines the domain models flowing through the download pipeline.
package video

import "net/url"

// URL is a candidate address that passed host validation.
// It is only ever produced by the validator package.
type URL struct {
	// Raw is the string exactly as the caller supplied it.
	Raw string
	// Parsed is the parsed form of Raw.
	Parsed *url.URL
	// Host is the lower-cased hostname without port.
	Host string
}

// String returns the raw URL.
func (u URL) String() string {
	return u.Raw
}

// Metadata describes a resolved video. It lives for a single request.
type Metadata struct {
	ID              string
	Title           string
	DurationSeconds int
	IsPrivate       bool

	// Formats keeps the provider's original ordering.
	Formats []Format

	// Source is opaque provider state needed to open a stream. The pipeline never inspects it.
	Source any
}

// Format is one encoded representation of a video.
type Format struct {
	// ID is a provider-scoped identifier (the itag for YouTube).
	ID string

	// Index is the position in the provider's format list.
	Index int

	Itag          int
	MimeType      string
	QualityLabel  string
	HasAudio      bool
	HasVideo      bool
	QualityRank   int64
	ContentLength int64
}

// Progressive reports whether the format carries both audio and video.
func (f Format) Progressive() bool {
	return f.HasAudio && f.HasVideo
}

// String returns the quality label or the ID for display.
func (f Format) String() string {
	if f.QualityLabel != "" {
		return f.QualityLabel
	}
	return f.ID
}
