// Package relay copies a provider byte stream to an HTTP response without buffering it whole.
//
// A relay owns the upstream stream for the lifetime of Run: it is closed on every exit path,
// including when the downstream client goes away mid-transfer.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ytrelay/ytrelay/constant"
	"github.com/ytrelay/ytrelay/failure"
	"github.com/ytrelay/ytrelay/log"
)

// DefaultBufferSize is the size of the single chunk buffer used per transfer.
const DefaultBufferSize = 32 * 1024

// State is the lifecycle position of a Session.
type State int

const (
	Open State = iota
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session tracks one transfer. It leaves Open exactly once.
type Session struct {
	BytesRelayed int64
	HeadersSent  bool
	State        State

	started time.Time
}

// finish moves the session to a terminal state. Later calls are no-ops.
func (s *Session) finish(state State) bool {
	if s.State != Open {
		return false
	}
	s.State = state
	return true
}

// Meta describes what is being relayed.
type Meta struct {
	Title string
	URL   string

	// ContentLength is the provider-reported size. Values <= 0 mean unknown.
	ContentLength int64
}

// Completion is reported once per successfully finished transfer.
type Completion struct {
	Title         string
	URL           string
	ElapsedMillis int64
	Bytes         int64
}

// Observer receives completion events.
type Observer func(Completion)

// LogCompletion is the default Observer.
func LogCompletion(c Completion) {
	log.WithFields(log.Fields{
		"title":   c.Title,
		"url":     c.URL,
		"elapsed": c.ElapsedMillis,
		"bytes":   c.Bytes,
	}).Info("download completed")
}

// Relay streams upstream bytes to a response writer.
type Relay struct {
	BufferSize int
	Observer   Observer
}

// New returns a Relay with the default buffer size reporting to observer.
// A nil observer logs completions.
func New(observer Observer) *Relay {
	if observer == nil {
		observer = LogCompletion
	}
	return &Relay{BufferSize: DefaultBufferSize, Observer: observer}
}

// Run copies src to w until EOF, a read or write failure, or cancellation of ctx.
//
// Headers are written together with the first chunk. When Run fails with HeadersSent still false
// nothing has reached w and the caller may send an error response; otherwise the response is
// already committed and the caller can only abort the connection.
// Errors are classified failure.StreamFailure.
func (r *Relay) Run(ctx context.Context, w http.ResponseWriter, src io.ReadCloser, meta Meta) (*Session, error) {
	session := &Session{started: time.Now()}

	var once sync.Once
	release := func() { once.Do(func() { _ = src.Close() }) }
	defer release()

	// Unblocks a pending upstream read when the client disconnects.
	stop := context.AfterFunc(ctx, release)
	defer stop()

	size := r.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	buf := make([]byte, size)
	rc := http.NewResponseController(w)

	for {
		if err := ctx.Err(); err != nil {
			return r.fail(session, fmt.Errorf("client disconnected: %w", err))
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if !session.HeadersSent {
				WriteHeaders(w, meta)
				session.HeadersSent = true
			}

			if _, err := w.Write(buf[:n]); err != nil {
				return r.fail(session, fmt.Errorf("write: %w", err))
			}
			session.BytesRelayed += int64(n)

			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return r.fail(session, fmt.Errorf("flush: %w", err))
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				readErr = fmt.Errorf("client disconnected: %w", ctxErr)
			}
			return r.fail(session, fmt.Errorf("read: %w", readErr))
		}
	}

	if !session.HeadersSent {
		WriteHeaders(w, meta)
		session.HeadersSent = true
	}

	if session.finish(Completed) && r.Observer != nil {
		r.Observer(Completion{
			Title:         meta.Title,
			URL:           meta.URL,
			ElapsedMillis: time.Since(session.started).Milliseconds(),
			Bytes:         session.BytesRelayed,
		})
	}

	return session, nil
}

func (r *Relay) fail(session *Session, err error) (*Session, error) {
	session.finish(Failed)
	log.WithFields(log.Fields{
		"bytes":        session.BytesRelayed,
		"headers_sent": session.HeadersSent,
	}).Warnf("relay failed: %s", err)
	return session, failure.Wrap(failure.StreamFailure, failure.MsgStreamFailed, err)
}

// WriteHeaders commits the 200 response headers describing meta.
func WriteHeaders(w http.ResponseWriter, meta Meta) {
	h := w.Header()
	h.Set("Content-Type", constant.VideoContentType)
	h.Set("Content-Disposition", ContentDisposition(meta.Title))
	if meta.ContentLength > 0 {
		h.Set("Content-Length", strconv.FormatInt(meta.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
}

// ContentDisposition returns the attachment header value for a video titled title.
func ContentDisposition(title string) string {
	return fmt.Sprintf("attachment; filename=%q", SanitizeTitle(title)+"."+constant.VideoExtension)
}

var (
	disallowed = regexp.MustCompile(`[^\w\s-]`)
	spaces     = regexp.MustCompile(`\s+`)
)

// SanitizeTitle keeps letters, digits, underscores, hyphens and whitespace.
// Whitespace runs collapse to one space. An empty result becomes "video".
func SanitizeTitle(title string) string {
	clean := disallowed.ReplaceAllString(title, "")
	clean = strings.TrimSpace(spaces.ReplaceAllString(clean, " "))
	if clean == "" {
		return "video"
	}
	return clean
}
