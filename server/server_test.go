package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/ytrelay/ytrelay/failure"
	"github.com/ytrelay/ytrelay/ratelimit"
	"github.com/ytrelay/ytrelay/resolver"
	"github.com/ytrelay/ytrelay/video"
)

const watchURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

// body yields data and then err (EOF when nil).
type body struct {
	r      io.Reader
	err    error
	closed bool
}

func (b *body) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if errors.Is(err, io.EOF) && b.err != nil {
		return n, b.err
	}
	return n, err
}

func (b *body) Close() error {
	b.closed = true
	return nil
}

type fakeResolver struct {
	meta       *video.Metadata
	resolveErr error
	openErr    error
	payload    []byte
	streamErr  error
	size       int64
	panics     bool

	resolved int
	opened   *video.Format
	stream   *body
}

func (f *fakeResolver) Resolve(_ context.Context, _ video.URL) (*video.Metadata, error) {
	if f.panics {
		panic("provider exploded")
	}
	f.resolved++
	return f.meta, f.resolveErr
}

func (f *fakeResolver) Open(_ context.Context, _ *video.Metadata, format video.Format) (io.ReadCloser, int64, error) {
	f.opened = &format
	if f.openErr != nil {
		return nil, 0, f.openErr
	}
	f.stream = &body{r: bytes.NewReader(f.payload), err: f.streamErr}
	if f.size != 0 {
		return f.stream, f.size, nil
	}
	return f.stream, int64(len(f.payload)), nil
}

// recordingTransport fails every request after noting its URL.
type recordingTransport struct {
	requests []string
}

func (t *recordingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	t.requests = append(t.requests, r.URL.String())
	return nil, errors.New("offline")
}

func formats() []video.Format {
	return []video.Format{
		{ID: "18", Itag: 18, QualityLabel: "360p", HasAudio: true, HasVideo: true, QualityRank: 360_0000500},
		{ID: "137", Itag: 137, QualityLabel: "1080p", HasVideo: true, QualityRank: 1080_0004000},
		{ID: "22", Itag: 22, QualityLabel: "720p", HasAudio: true, HasVideo: true, QualityRank: 720_0001500},
	}
}

func metadata() *video.Metadata {
	return &video.Metadata{ID: "dQw4w9WgXcQ", Title: "Never Gonna: Give You Up!", DurationSeconds: 212, Formats: formats()}
}

func download(s *Server, rawURL string) *httptest.ResponseRecorder {
	target := "/download"
	if rawURL != "" {
		target += "?url=" + url.QueryEscape(rawURL)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(rec *httptest.ResponseRecorder) map[string]string {
	var m map[string]string
	So(json.Unmarshal(rec.Body.Bytes(), &m), ShouldBeNil)
	return m
}

func TestDownload(t *testing.T) {
	Convey("Given a server with a fake resolver", t, func() {
		res := &fakeResolver{meta: metadata(), payload: []byte(strings.Repeat("v", 4096))}
		s := New(Options{Mode: "production"}, Pipeline{Resolver: res})

		Convey("A missing url is rejected without resolving", func() {
			rec := download(s, "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["message"], ShouldEqual, "URL is required")
			So(res.resolved, ShouldEqual, 0)
		})

		Convey("A foreign host is rejected without resolving", func() {
			rec := download(s, "https://vimeo.com/123")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["message"], ShouldEqual, "Invalid YouTube URL")
			So(res.resolved, ShouldEqual, 0)
		})

		Convey("An unparseable url is rejected", func() {
			rec := download(s, "not a url")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["message"], ShouldEqual, "Invalid YouTube URL")
		})

		Convey("A url the provider cannot handle is a bad request", func() {
			res.resolveErr = failure.New(failure.InvalidInput, failure.MsgInvalidVideoURL)
			rec := download(s, "https://youtube.com/")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["message"], ShouldEqual, "Invalid YouTube video URL")
		})

		Convey("A private video is forbidden", func() {
			res.meta = &video.Metadata{IsPrivate: true}
			rec := download(s, watchURL)
			So(rec.Code, ShouldEqual, http.StatusForbidden)
			So(decode(rec)["message"], ShouldEqual, "This video is private")
			So(res.opened, ShouldBeNil)
		})

		Convey("A private video is forbidden even when too long", func() {
			res.meta.IsPrivate = true
			res.meta.DurationSeconds = 7200
			rec := download(s, watchURL)
			So(rec.Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("A video over the duration cap is rejected", func() {
			res.meta.DurationSeconds = 7200
			rec := download(s, watchURL)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["message"], ShouldEqual, "Video is too long. Maximum duration is 1 hour.")
			So(res.opened, ShouldBeNil)
		})

		Convey("A video exactly at the cap is accepted", func() {
			res.meta.DurationSeconds = 3600
			So(download(s, watchURL).Code, ShouldEqual, http.StatusOK)
		})

		Convey("A video without progressive formats is rejected", func() {
			res.meta.Formats = res.meta.Formats[1:2]
			rec := download(s, watchURL)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["message"], ShouldEqual, "No suitable format found for this video")
		})

		Convey("A resolution failure is a generic 500 without details in production", func() {
			res.resolveErr = failure.Wrap(failure.ResolutionFailure, failure.MsgDownloadFailed, errors.New("status 410"))
			rec := download(s, watchURL)
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			m := decode(rec)
			So(m["message"], ShouldEqual, "Failed to download video")
			So(m, ShouldNotContainKey, "details")
		})

		Convey("Development mode adds details to 500 responses", func() {
			s = New(Options{Mode: "development"}, Pipeline{Resolver: res})
			res.resolveErr = failure.Wrap(failure.ResolutionFailure, failure.MsgDownloadFailed, errors.New("status 410"))
			m := decode(download(s, watchURL))
			So(m["details"], ShouldContainSubstring, "status 410")
		})

		Convey("A valid video streams the highest quality progressive format", func() {
			rec := download(s, watchURL)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(res.opened.Itag, ShouldEqual, 22)
			So(rec.Header().Get("Content-Type"), ShouldEqual, "video/mp4")
			So(rec.Header().Get("Content-Disposition"), ShouldEqual, `attachment; filename="Never Gonna Give You Up.mp4"`)
			So(rec.Header().Get("Content-Length"), ShouldEqual, "4096")
			So(rec.Body.Len(), ShouldEqual, 4096)
			So(res.stream.closed, ShouldBeTrue)
		})

		Convey("HEAD answers with the attachment headers without opening the stream", func() {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/download?url="+url.QueryEscape(watchURL), nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldEqual, "video/mp4")
			So(rec.Header().Get("Content-Disposition"), ShouldStartWith, "attachment;")
			So(res.resolved, ShouldEqual, 1)
			So(res.opened, ShouldBeNil)
			So(rec.Body.Len(), ShouldEqual, 0)
		})

		Convey("A stream that cannot be opened is a streaming error", func() {
			res.openErr = errors.New("403 from googlevideo")
			rec := download(s, watchURL)
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(decode(rec)["message"], ShouldEqual, "Streaming error occurred")
		})

		Convey("A stream failing before the first byte is a streaming error", func() {
			res.payload = nil
			res.streamErr = errors.New("connection reset")
			rec := download(s, watchURL)
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(decode(rec)["message"], ShouldEqual, "Streaming error occurred")
			So(res.stream.closed, ShouldBeTrue)
		})

		Convey("A panic is answered with an internal error", func() {
			res.panics = true
			rec := download(s, watchURL)
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(decode(rec)["message"], ShouldEqual, "Internal server error")
		})
	})

	Convey("Given the YouTube resolver behind an offline transport", t, func() {
		transport := &recordingTransport{}
		s := New(Options{}, Pipeline{Resolver: resolver.NewYouTube(&http.Client{Transport: transport})})

		Convey("Addresses that are not a single video are bad requests and never leave the process", func() {
			for _, raw := range []string{
				"https://www.youtube.com/",
				"https://youtube.com/channel/UCabc",
				"https://www.youtube.com/playlist?list=PL123",
			} {
				rec := download(s, raw)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(rec)["message"], ShouldEqual, "Invalid YouTube video URL")
			}
			So(transport.requests, ShouldBeEmpty)
		})

		Convey("A video address reaches the provider", func() {
			rec := download(s, watchURL)
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(transport.requests, ShouldNotBeEmpty)
		})
	})

	Convey("A stream failing mid-transfer truncates the response", t, func() {
		res := &fakeResolver{meta: metadata(), payload: []byte(strings.Repeat("v", 1024)), streamErr: errors.New("reset"), size: 1 << 20}
		ts := httptest.NewServer(New(Options{}, Pipeline{Resolver: res}))
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/download?url=" + url.QueryEscape(watchURL))
		So(err, ShouldBeNil)
		defer resp.Body.Close()

		So(resp.StatusCode, ShouldEqual, http.StatusOK)
		_, err = io.ReadAll(resp.Body)
		So(err, ShouldNotBeNil)
	})
}

func TestHealth(t *testing.T) {
	Convey("Given a server with a fixed clock", t, func() {
		clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		s := New(Options{}, Pipeline{Resolver: &fakeResolver{panics: true}}, WithClock(func() time.Time { return clock }))

		Convey("Health reports ok with an ISO timestamp and never touches the pipeline", func() {
			for i := 0; i < 2; i++ {
				rec := httptest.NewRecorder()
				s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
				So(rec.Code, ShouldEqual, http.StatusOK)
				m := decode(rec)
				So(m["status"], ShouldEqual, "ok")
				So(m["timestamp"], ShouldEqual, "2024-05-01T12:00:00.000Z")
			}
		})
	})
}

func TestRouting(t *testing.T) {
	Convey("Given a server", t, func() {
		s := New(Options{CorsOrigins: []string{"http://localhost:5173"}}, Pipeline{Resolver: &fakeResolver{meta: metadata()}})
		serve := func(req *http.Request) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			return rec
		}

		Convey("Unknown paths are not found", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, "/nope", nil))
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(decode(rec)["message"], ShouldEqual, "Not found")
		})

		Convey("Only GET is allowed on routes", func() {
			rec := serve(httptest.NewRequest(http.MethodPost, "/download", nil))
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(decode(rec)["message"], ShouldEqual, "Method not allowed")
			So(rec.Header().Get("Allow"), ShouldEqual, "GET, HEAD")
		})

		Convey("Unknown methods on a route are refused even when the route has other handlers", func() {
			rec := serve(httptest.NewRequest(http.MethodDelete, "/health", nil))
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(decode(rec)["message"], ShouldEqual, "Method not allowed")
		})

		Convey("Responses carry security headers and a request id", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, "/health", nil))
			So(rec.Header().Get("X-Content-Type-Options"), ShouldEqual, "nosniff")
			So(rec.Header().Get("X-Frame-Options"), ShouldEqual, "SAMEORIGIN")
			_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
			So(err, ShouldBeNil)
		})

		Convey("A valid incoming request id is kept", func() {
			id := uuid.NewString()
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set(RequestIDHeader, id)
			So(serve(req).Header().Get(RequestIDHeader), ShouldEqual, id)
		})

		Convey("Allowed origins are echoed", func() {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("Origin", "http://localhost:5173")
			rec := serve(req)
			So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "http://localhost:5173")
			So(rec.Header().Get("Access-Control-Expose-Headers"), ShouldContainSubstring, "Content-Disposition")
		})

		Convey("Other origins get no CORS grant", func() {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("Origin", "https://evil.example")
			So(serve(req).Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
		})

		Convey("Preflight requests are answered directly", func() {
			req := httptest.NewRequest(http.MethodOptions, "/download", nil)
			req.Header.Set("Origin", "http://localhost:5173")
			req.Header.Set("Access-Control-Request-Method", "GET")
			rec := serve(req)
			So(rec.Code, ShouldEqual, http.StatusNoContent)
			So(rec.Header().Get("Access-Control-Allow-Methods"), ShouldContainSubstring, "GET")
		})
	})
}

func TestRateLimit(t *testing.T) {
	Convey("Given a server allowing two requests per client", t, func() {
		limiter := ratelimit.NewMemory(ratelimit.Config{Enabled: true, Max: 2, Window: time.Minute})
		s := New(Options{}, Pipeline{Resolver: &fakeResolver{}}, WithLimiter(limiter))

		request := func(addr string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.RemoteAddr = addr
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			return rec
		}

		Convey("The third request is refused with 429", func() {
			So(request("192.0.2.1:1000").Code, ShouldEqual, http.StatusOK)
			So(request("192.0.2.1:1001").Header().Get("RateLimit-Remaining"), ShouldEqual, "0")

			rec := request("192.0.2.1:1002")
			So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
			retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
			So(err, ShouldBeNil)
			So(retryAfter, ShouldBeBetweenOrEqual, 1, 60)
			So(decode(rec)["message"], ShouldStartWith, "Too many requests")

			So(request("192.0.2.2:1000").Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestServe(t *testing.T) {
	Convey("Serve returns cleanly once its context is cancelled", t, func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		s := New(Options{ShutdownTimeout: time.Second}, Pipeline{Resolver: &fakeResolver{}})

		done := make(chan error, 1)
		go func() { done <- s.Serve(ctx, ln) }()

		var resp *http.Response
		for i := 0; i < 50; i++ {
			resp, err = http.Get("http://" + ln.Addr().String() + "/health")
			if err == nil {
				break
			}
			time.Sleep(10 * time.Millisecond)
		}
		So(err, ShouldBeNil)
		resp.Body.Close()
		So(resp.StatusCode, ShouldEqual, http.StatusOK)

		cancel()
		select {
		case err := <-done:
			So(err, ShouldBeNil)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not shut down")
		}
	})

	Convey("Options report development mode", t, func() {
		So(Options{Mode: "production"}.Development(), ShouldBeFalse)
		So(Options{}.Development(), ShouldBeFalse)
		So(Options{Mode: "development"}.Development(), ShouldBeTrue)
	})
}
