// Package policy rejects resolved videos that the relay must not serve.
package policy

import (
	"fmt"

	"github.com/ytrelay/ytrelay/failure"
	"github.com/ytrelay/ytrelay/video"
)

// DefaultMaxDuration is the duration cap, in seconds, used when none is configured.
const DefaultMaxDuration = 3600

// Policy is the immutable set of limits applied to every request.
type Policy struct {
	// MaxDurationSeconds caps the video length. Non-positive values select DefaultMaxDuration.
	MaxDurationSeconds int
}

// Enforcer applies a Policy to resolved metadata.
type Enforcer struct {
	policy Policy
}

// NewEnforcer returns an Enforcer for p.
func NewEnforcer(p Policy) *Enforcer {
	if p.MaxDurationSeconds <= 0 {
		p.MaxDurationSeconds = DefaultMaxDuration
	}
	return &Enforcer{policy: p}
}

// Policy returns the effective policy.
func (e *Enforcer) Policy() Policy {
	return e.policy
}

// Enforce checks privacy first and the duration cap second.
// A private video is Forbidden whatever its length.
func (e *Enforcer) Enforce(meta *video.Metadata) error {
	if meta == nil {
		return failure.New(failure.Internal, failure.MsgDownloadFailed)
	}

	if meta.IsPrivate {
		return failure.New(failure.Forbidden, failure.MsgPrivate)
	}

	if meta.DurationSeconds > e.policy.MaxDurationSeconds {
		return failure.New(failure.PolicyViolation, TooLongMessage(e.policy.MaxDurationSeconds))
	}

	return nil
}

// TooLongMessage renders the duration cap the way users read it.
func TooLongMessage(maxSeconds int) string {
	return fmt.Sprintf("Video is too long. Maximum duration is %s.", humanDuration(maxSeconds))
}

func humanDuration(seconds int) string {
	switch {
	case seconds%3600 == 0:
		return plural(seconds/3600, "hour")
	case seconds%60 == 0:
		return plural(seconds/60, "minute")
	default:
		return plural(seconds, "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
