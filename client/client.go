// Package client downloads videos through a relay server.
//
// A download validates the URL locally, probes the server's health endpoint, then streams the video
// into a part file with bounded retries. Only a fully received video is moved into the download directory.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/ytrelay/ytrelay/constant"
	"github.com/ytrelay/ytrelay/filesystem"
	"github.com/ytrelay/ytrelay/log"
	"github.com/ytrelay/ytrelay/network"
	"github.com/ytrelay/ytrelay/retry"
	"github.com/ytrelay/ytrelay/util"
	"github.com/ytrelay/ytrelay/validator"
)

// Options is the immutable client configuration.
type Options struct {
	// Server is the relay base URL, e.g. http://localhost:5000.
	Server string

	MaxRetries int
	RetryDelay time.Duration

	// Timeout bounds each attempt, body included.
	Timeout time.Duration

	// Hosts accepted by local validation. Empty selects the defaults.
	Hosts []string

	// Dir receives finished downloads; TempDir holds part files.
	Dir     string
	TempDir string
}

// DefaultTimeout bounds a single attempt when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Minute

// Progress is called as bytes arrive. Total is negative when the size is unknown.
type Progress func(received, total int64)

// Result describes a saved download.
type Result struct {
	Path     string
	Filename string
	Bytes    int64
	Attempts int
}

// Health is the body of a successful health probe.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Client talks to a relay server.
type Client struct {
	opts      Options
	http      *http.Client
	validator *validator.Validator
	sleep     retry.Sleeper
	onRetry   func(retry.State)
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithSleeper replaces the wait between attempts.
func WithSleeper(s retry.Sleeper) Option {
	return func(cl *Client) {
		cl.sleep = s
	}
}

// WithRetryHook observes each retry before its delay.
func WithRetryHook(f func(retry.State)) Option {
	return func(cl *Client) {
		cl.onRetry = f
	}
}

// New returns a client for opts.
func New(opts Options, options ...Option) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	opts.Server = strings.TrimRight(opts.Server, "/")

	c := &Client{
		opts:      opts,
		http:      network.Client(),
		validator: validator.New(opts.Hosts),
		sleep:     retry.Sleep,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Health probes the server once.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.Server+constant.RouteHealth, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	req.Header.Set("User-Agent", constant.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	return &h, nil
}

// Download saves the video at rawURL into the download directory.
// Returned errors render through Message into one of the user-facing messages.
func (c *Client) Download(ctx context.Context, rawURL string, progress Progress) (*Result, error) {
	if !c.validator.Valid(rawURL) {
		return nil, ErrInvalidURL
	}

	if _, err := c.Health(ctx); err != nil {
		return nil, err
	}

	controller := retry.Controller{
		MaxRetries: c.opts.MaxRetries,
		BaseDelay:  c.opts.RetryDelay,
		Sleep:      c.sleep,
		Retryable:  func(error) bool { return ctx.Err() == nil },
		OnRetry: func(s retry.State) {
			log.Warnf("download attempt %d/%d failed, retrying in %s: %s", s.Attempt+1, s.MaxAttempts, s.Delay(), s.Err)
			if c.onRetry != nil {
				c.onRetry(s)
			}
		},
	}

	var result *Result
	err := controller.Do(ctx, func(ctx context.Context, attempt int) error {
		r, err := c.attempt(ctx, rawURL, progress)
		if err != nil {
			return err
		}
		r.Attempts = attempt + 1
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("saved %s (%d bytes, %s)", result.Path, result.Bytes, util.Quantify(result.Attempts, "attempt", "attempts"))
	return result, nil
}

// attempt performs one bounded round trip and commits the file on success.
func (c *Client) attempt(ctx context.Context, rawURL string, progress Progress) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	endpoint := c.opts.Server + constant.RouteDownload + "?url=" + url.QueryEscape(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	req.Header.Set("User-Agent", constant.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	filename := FilenameFromHeader(resp.Header.Get("Content-Disposition"))
	part, n, err := c.receive(resp.Body, resp.ContentLength, progress)
	if err != nil {
		return nil, err
	}

	if resp.ContentLength > 0 && n != resp.ContentLength {
		_ = filesystem.API().Remove(part)
		return nil, fmt.Errorf("%w: received %d of %d bytes", ErrIncomplete, n, resp.ContentLength)
	}

	dest, err := c.commit(part, filename)
	if err != nil {
		return nil, err
	}

	return &Result{Path: dest, Filename: filepath.Base(dest), Bytes: n}, nil
}

// receive copies body into a fresh part file. The part file is removed on failure.
func (c *Client) receive(body io.Reader, total int64, progress Progress) (path string, n int64, err error) {
	fs := filesystem.API()
	if err := fs.MkdirAll(c.opts.TempDir, os.ModePerm); err != nil {
		return "", 0, fmt.Errorf("create temp dir: %w", err)
	}

	path = filepath.Join(c.opts.TempDir, uuid.NewString()+".part")
	f, err := fs.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create part file: %w", err)
	}

	defer func() {
		if err != nil {
			_ = fs.Remove(path)
		}
	}()

	var dst io.Writer = f
	if progress != nil {
		progress(0, total)
		dst = &progressWriter{w: f, total: total, report: progress}
	}

	n, err = io.Copy(dst, body)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close part file: %w", closeErr)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return path, n, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return path, n, fmt.Errorf("%w: %w", ErrIncomplete, err)
	}

	return path, n, nil
}

// commit moves a finished part file into the download directory without overwriting.
func (c *Client) commit(part, filename string) (string, error) {
	fs := filesystem.API()
	if err := fs.MkdirAll(c.opts.Dir, os.ModePerm); err != nil {
		_ = fs.Remove(part)
		return "", fmt.Errorf("create download dir: %w", err)
	}

	dest := util.UniquePath(c.opts.Dir, filename)
	if err := fs.Rename(part, dest); err != nil {
		_ = fs.Remove(part)
		return "", fmt.Errorf("save %s: %w", dest, err)
	}
	return dest, nil
}

// FilenameFromHeader extracts the filename of a Content-Disposition value.
// Missing or unusable names yield video.mp4.
func FilenameFromHeader(value string) string {
	_, name, found := strings.Cut(value, "filename=")
	if !found {
		return constant.DefaultFilename
	}
	if i := strings.Index(name, ";"); i >= 0 && !strings.HasPrefix(name, `"`) {
		name = name[:i]
	}
	name = strings.ReplaceAll(name, `"`, "")
	return util.SanitizeFilename(strings.TrimSpace(name), constant.DefaultFilename)
}

type progressWriter struct {
	w        io.Writer
	received int64
	total    int64
	report   Progress
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.received += int64(n)
	p.report(p.received, p.total)
	return n, err
}

// transportError classifies a failed round trip. Anything without a response counts as unreachable.
func transportError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("%w: connection refused: %w", ErrUnreachable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrUnreachable, err)
}

// responseError turns a non-200 response into a *ServerError.
func responseError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
		Details string `json:"details"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	_ = json.Unmarshal(raw, &body)

	return &ServerError{Status: resp.StatusCode, Message: body.Message, Details: body.Details}
}
