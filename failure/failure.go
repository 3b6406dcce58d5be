// Package failure classifies pipeline errors and maps them onto HTTP responses.
package failure

import (
	"errors"
	"net/http"
)

// Kind is the classification of a pipeline failure.
type Kind int

const (
	// Internal is an unexpected fault. Unclassified errors are treated as Internal.
	Internal Kind = iota
	// InvalidInput is a missing or malformed URL, or a disallowed host.
	InvalidInput
	// ResolutionFailure means the extraction provider could not resolve the video.
	ResolutionFailure
	// Forbidden means the video is private.
	Forbidden
	// PolicyViolation means the video breaks a configured policy such as the duration cap.
	PolicyViolation
	// NoSuitableFormat means no representation carries both audio and video.
	NoSuitableFormat
	// StreamFailure is an error while relaying bytes.
	StreamFailure
)

var kindNames = map[Kind]string{
	Internal:          "internal",
	InvalidInput:      "invalid input",
	ResolutionFailure: "resolution failure",
	Forbidden:         "forbidden",
	PolicyViolation:   "policy violation",
	NoSuitableFormat:  "no suitable format",
	StreamFailure:     "stream failure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Status returns the HTTP status code a failure of this kind is reported with.
func (k Kind) Status() int {
	switch k {
	case InvalidInput, PolicyViolation, NoSuitableFormat:
		return http.StatusBadRequest
	case Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Messages shared by the server and its tests.
const (
	MsgURLRequired      = "URL is required"
	MsgInvalidURL       = "Invalid YouTube URL"
	MsgInvalidVideoURL  = "Invalid YouTube video URL"
	MsgPrivate          = "This video is private"
	MsgNoSuitableFormat = "No suitable format found for this video"
	MsgDownloadFailed   = "Failed to download video"
	MsgStreamFailed     = "Streaming error occurred"
	MsgInternal         = "Internal server error"
)

// Error is a classified pipeline failure.
// Message is safe to show to the caller; Err carries the diagnostic cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New returns a classified error without an underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String() + ": " + e.Message
	}
	return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so sentinel comparisons work with errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind && (other.Message == "" || other.Message == e.Message)
}

// Sentinels usable with errors.Is.
var (
	ErrInvalidInput      = &Error{Kind: InvalidInput}
	ErrResolutionFailure = &Error{Kind: ResolutionFailure}
	ErrForbidden         = &Error{Kind: Forbidden}
	ErrPolicyViolation   = &Error{Kind: PolicyViolation}
	ErrNoSuitableFormat  = &Error{Kind: NoSuitableFormat}
	ErrStreamFailure     = &Error{Kind: StreamFailure}
)

// KindOf returns the classification of err, Internal when it carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Describe returns the status code and caller-facing message for err.
// Unclassified errors, and classified ones without a message, become a generic 500.
func Describe(err error) (status int, message string) {
	var e *Error
	if !errors.As(err, &e) || e.Message == "" {
		return http.StatusInternalServerError, MsgDownloadFailed
	}
	return e.Kind.Status(), e.Message
}
