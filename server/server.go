// Package server exposes the download pipeline over HTTP.
//
// Routes:
//
//	GET /download?url=<video url>  streams the best progressive format as an attachment
//	GET /health                    liveness probe, independent of the pipeline
//
// Every failure that happens before the first video byte is answered with a JSON body {"message": "..."}.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ytrelay/ytrelay/constant"
	"github.com/ytrelay/ytrelay/log"
	"github.com/ytrelay/ytrelay/policy"
	"github.com/ytrelay/ytrelay/ratelimit"
	"github.com/ytrelay/ytrelay/relay"
	"github.com/ytrelay/ytrelay/resolver"
	"github.com/ytrelay/ytrelay/validator"
)

// Options is the immutable server configuration.
type Options struct {
	Address         string
	Mode            string
	ShutdownTimeout time.Duration

	// CorsOrigins lists origins allowed to read responses from a browser. "*" allows any.
	CorsOrigins []string
}

// Development reports whether 500 responses carry error details.
func (o Options) Development() bool {
	return o.Mode != "" && o.Mode != constant.ModeProduction
}

// Pipeline bundles the stages a download passes through.
type Pipeline struct {
	Validator *validator.Validator
	Resolver  resolver.Resolver
	Enforcer  *policy.Enforcer
	Relay     *relay.Relay
}

// Server is the relay HTTP handler together with its listener lifecycle.
type Server struct {
	opts     Options
	pipeline Pipeline
	limiter  ratelimit.Limiter
	now      func() time.Time
	handler  http.Handler
}

// Option customizes a Server.
type Option func(*Server)

// WithLimiter throttles requests per client address.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// WithClock replaces the time source of the health endpoint.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New assembles the router and its middleware chain.
// HEAD requests are served by the GET handlers.
func New(opts Options, pipeline Pipeline, options ...Option) *Server {
	s := &Server{
		opts:     opts,
		pipeline: pipeline,
		limiter:  ratelimit.Unlimited{},
		now:      time.Now,
	}
	for _, opt := range options {
		opt(s)
	}

	if s.pipeline.Validator == nil {
		s.pipeline.Validator = validator.New(nil)
	}
	if s.pipeline.Enforcer == nil {
		s.pipeline.Enforcer = policy.NewEnforcer(policy.Policy{})
	}
	if s.pipeline.Relay == nil {
		s.pipeline.Relay = relay.New(nil)
	}

	r := chi.NewRouter()
	r.Use(
		requestIDMiddleware,
		loggingMiddleware,
		recoveryMiddleware,
		securityMiddleware,
		corsMiddleware(opts.CorsOrigins),
		rateLimitMiddleware(s.limiter),
		middleware.GetHead,
	)
	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)
	r.Get(constant.RouteDownload, s.handleDownload)
	r.Get(constant.RouteHealth, s.handleHealth)

	s.handler = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run listens on the configured address until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errs := make(chan error, 1)
	go func() {
		log.Infof("server running at %s", ln.Addr())
		errs <- srv.Serve(ln)
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down gracefully")
	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		// Downloads still running past the deadline are cut.
		_ = srv.Close()
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("server closed")
	return nil
}
