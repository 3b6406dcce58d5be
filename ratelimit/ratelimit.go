// Package ratelimit bounds how many requests a single client may issue within a time window.
//
// Both implementations count requests in fixed windows aligned to the epoch, so a client never gets more
// than Max requests within one window: Memory keeps the counters in process, Redis shares them between
// relay instances and degrades to Memory whenever the store is unreachable.
package ratelimit

import (
	"context"
	"time"
)

// Defaults mirror a budget of 100 requests per 15 minutes.
const (
	DefaultMax    = 100
	DefaultWindow = 15 * time.Minute
)

// Config is the immutable limiter configuration.
type Config struct {
	Enabled bool
	Max     int
	Window  time.Duration
}

// normalize fills zero values with defaults.
func (c Config) normalize() Config {
	if c.Max <= 0 {
		c.Max = DefaultMax
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int

	// Reset is how long until the client regains quota.
	Reset time.Duration
}

// Limiter decides whether the client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) Decision
}

// Unlimited allows everything.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) Decision {
	return Decision{Allowed: true}
}

// windowAt returns the index of the window containing now and the time left until it closes.
func windowAt(window time.Duration, now time.Time) (int64, time.Duration) {
	size := int64(window / time.Millisecond)
	ms := now.UnixMilli()
	index := ms / size
	return index, time.Duration((index+1)*size-ms) * time.Millisecond
}

// decide turns the request count of a window into a Decision.
func decide(max int, count int64, left time.Duration) Decision {
	remaining := max - int(count)
	if remaining < 0 {
		remaining = 0
	}

	d := Decision{Allowed: count <= int64(max), Limit: max, Remaining: remaining}
	if !d.Allowed {
		d.Reset = left
	}
	return d
}
