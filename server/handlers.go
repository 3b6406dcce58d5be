package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ytrelay/ytrelay/failure"
	"github.com/ytrelay/ytrelay/log"
	"github.com/ytrelay/ytrelay/relay"
	"github.com/ytrelay/ytrelay/selector"
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// healthBody is the JSON shape of the liveness probe.
type healthBody struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// timestampLayout is ISO 8601 with milliseconds in UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warnf("write response: %s", err)
	}
}

// fail answers err as JSON. Only used while the response is still uncommitted.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := failure.Describe(err)
	body := errorBody{Message: message}
	if status >= http.StatusInternalServerError && s.opts.Development() {
		body.Details = err.Error()
	}

	entry := log.WithFields(log.Fields{
		"request_id": requestID(r.Context()),
		"url":        r.URL.Query().Get("url"),
		"kind":       failure.KindOf(err).String(),
		"status":     status,
	})
	if status >= http.StatusInternalServerError {
		entry.Errorf("download error: %s", err)
	} else {
		entry.Infof("download rejected: %s", message)
	}

	writeJSON(w, status, body)
}

// handleDownload runs the pipeline: validate, resolve, enforce, select, relay.
// HEAD stops after selection and answers with the attachment headers only.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := r.URL.Query().Get("url")
	if raw == "" {
		s.fail(w, r, failure.New(failure.InvalidInput, failure.MsgURLRequired))
		return
	}

	u, ok := s.pipeline.Validator.Validate(raw).Get()
	if !ok {
		s.fail(w, r, failure.New(failure.InvalidInput, failure.MsgInvalidURL))
		return
	}

	meta, err := s.pipeline.Resolver.Resolve(ctx, u)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.pipeline.Enforcer.Enforce(meta); err != nil {
		s.fail(w, r, err)
		return
	}

	format, err := selector.Require(meta.Formats)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if r.Method == http.MethodHead {
		relay.WriteHeaders(w, relay.Meta{Title: meta.Title, ContentLength: format.ContentLength})
		return
	}

	log.WithFields(log.Fields{
		"request_id": requestID(ctx),
		"title":      meta.Title,
		"format":     format.String(),
		"itag":       format.Itag,
	}).Info("starting download")

	src, size, err := s.pipeline.Resolver.Open(ctx, meta, format)
	if err != nil {
		if !errors.Is(err, failure.ErrStreamFailure) {
			err = failure.Wrap(failure.StreamFailure, failure.MsgStreamFailed, err)
		}
		s.fail(w, r, err)
		return
	}

	if size <= 0 {
		size = format.ContentLength
	}

	session, err := s.pipeline.Relay.Run(ctx, w, src, relay.Meta{
		Title:         meta.Title,
		URL:           u.String(),
		ContentLength: size,
	})
	if err == nil {
		return
	}

	if !session.HeadersSent {
		s.fail(w, r, err)
		return
	}

	log.WithFields(log.Fields{
		"request_id": requestID(ctx),
		"bytes":      session.BytesRelayed,
	}).Warnf("aborting partially sent download: %s", err)

	// The status line is gone; truncating the body is the only signal left.
	panic(http.ErrAbortHandler)
}

// handleHealth reports liveness with the current time.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthBody{
		Status:    "ok",
		Timestamp: s.now().UTC().Format(timestampLayout),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Message: "Not found"})
}

// handleMethodNotAllowed answers any method other than GET and HEAD on a known route.
func handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", "GET, HEAD")
	writeJSON(w, http.StatusMethodNotAllowed, errorBody{Message: "Method not allowed"})
}
