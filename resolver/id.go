package resolver

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ytrelay/ytrelay/failure"
	"github.com/ytrelay/ytrelay/video"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// pathPrefixes carry the video id as the next path segment.
var pathPrefixes = []string{"/shorts/", "/embed/", "/v/", "/live/"}

var errNotAVideo = errors.New("not a video address")

// VideoID extracts the 11 character video id from a watch, short, embed, live or youtu.be address.
// Anything else, such as a channel, playlist or the home page, is InvalidInput.
func VideoID(u video.URL) (string, error) {
	parsed := u.Parsed
	if parsed == nil {
		var err error
		if parsed, err = url.Parse(u.Raw); err != nil {
			return "", failure.Wrap(failure.InvalidInput, failure.MsgInvalidVideoURL, err)
		}
	}

	id, ok := candidateID(parsed)
	if !ok || !videoIDPattern.MatchString(id) {
		return "", failure.Wrap(failure.InvalidInput, failure.MsgInvalidVideoURL, fmt.Errorf("%w: %s", errNotAVideo, u.Raw))
	}
	return id, nil
}

func candidateID(u *url.URL) (string, bool) {
	host := strings.ToLower(u.Hostname())
	if host == "youtu.be" {
		return firstSegment(u.Path)
	}

	if u.Path == "/watch" || u.Path == "/watch/" {
		v := u.Query().Get("v")
		return v, v != ""
	}

	for _, prefix := range pathPrefixes {
		if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
			return firstSegment(rest)
		}
	}
	return "", false
}

func firstSegment(path string) (string, bool) {
	segment, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return segment, segment != ""
}
