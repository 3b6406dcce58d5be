package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ytrelay/ytrelay/failure"
)

// User-facing messages a failed download collapses to.
const (
	MsgInvalidURL  = "Please enter a valid YouTube URL"
	MsgUnreachable = "Cannot connect to server. Please try again later."
	MsgRateLimited = "Too many requests. Please wait a few minutes and try again."
)

var (
	// ErrInvalidURL is returned before any network call when the URL fails local validation.
	ErrInvalidURL = errors.New("invalid video url")

	// ErrUnreachable means no response was received.
	ErrUnreachable = errors.New("server unreachable")

	// ErrTimeout means an attempt ran past its deadline.
	ErrTimeout = errors.New("attempt timed out")

	// ErrIncomplete means the response body ended early.
	ErrIncomplete = errors.New("incomplete download")
)

// ServerError is a non-200 response from the relay.
type ServerError struct {
	Status  int
	Message string
	Details string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded %d", e.Status)
	}
	return fmt.Sprintf("server responded %d: %s", e.Status, e.Message)
}

// RateLimited reports whether the server refused the request for exceeding its quota.
func (e *ServerError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// Message renders err as one of the user-facing messages:
// the unreachable message, the rate-limited message, or the server-supplied message
// with "Failed to download video" as fallback.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var serverErr *ServerError
	switch {
	case errors.Is(err, ErrInvalidURL):
		return MsgInvalidURL
	case errors.As(err, &serverErr):
		if serverErr.RateLimited() {
			return MsgRateLimited
		}
		if serverErr.Message != "" {
			return serverErr.Message
		}
		return failure.MsgDownloadFailed
	case errors.Is(err, ErrUnreachable), errors.Is(err, ErrTimeout), errors.Is(err, ErrIncomplete):
		return MsgUnreachable
	default:
		return failure.MsgDownloadFailed
	}
}
