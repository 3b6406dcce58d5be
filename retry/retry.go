// Package retry re-runs a fallible operation with linearly growing delays.
package retry

import (
	"context"
	"errors"
	"time"
)

// Defaults used when a Controller field is left zero.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

// Sleeper waits for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real-time Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// State is the progress of one Do call, passed to the OnRetry hook.
type State struct {
	// Attempt is the 0-based index of the attempt that just failed.
	Attempt     int
	MaxAttempts int
	BaseDelay   time.Duration

	// Err is the failure of that attempt.
	Err error
}

// Delay is the wait before the next attempt.
func (s State) Delay() time.Duration {
	return s.BaseDelay * time.Duration(s.Attempt+1)
}

// Controller runs an operation up to MaxRetries+1 times.
// The wait before retry n (1-based) is BaseDelay*n.
type Controller struct {
	MaxRetries int
	BaseDelay  time.Duration

	// Sleep defaults to the real-time Sleep.
	Sleep Sleeper

	// Retryable decides whether a failure is worth another attempt. Nil retries everything.
	Retryable func(error) bool

	// OnRetry is called before each wait.
	OnRetry func(State)
}

// Permanent marks err as not retryable regardless of Retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanent{err: err}
}

type permanent struct{ err error }

func (p *permanent) Error() string { return p.err.Error() }
func (p *permanent) Unwrap() error { return p.err }

// Do calls op until it succeeds, the attempts are exhausted, the failure is not retryable,
// or ctx is done. It returns the last operation error.
func (c Controller) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	maxRetries := c.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	sleep := c.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var last error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		last = op(ctx, attempt)
		if last == nil {
			return nil
		}

		var p *permanent
		if errors.As(last, &p) {
			return p.err
		}

		if attempt == maxRetries || (c.Retryable != nil && !c.Retryable(last)) {
			break
		}

		state := State{Attempt: attempt, MaxAttempts: maxRetries + 1, BaseDelay: c.BaseDelay, Err: last}
		if c.OnRetry != nil {
			c.OnRetry(state)
		}

		if err := sleep(ctx, state.Delay()); err != nil {
			return last
		}
	}

	return last
}
