package ratelimit

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	window int64
	count  int64
}

// Memory counts requests per client in process.
type Memory struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	counters map[string]*counter
	swept    int64
}

// NewMemory returns an in-process limiter.
func NewMemory(cfg Config) *Memory {
	cfg = cfg.normalize()
	return &Memory{
		cfg:      cfg,
		now:      time.Now,
		counters: make(map[string]*counter),
	}
}

// Allow counts one request for key in the current window.
func (m *Memory) Allow(_ context.Context, key string) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	index, left := windowAt(m.cfg.Window, m.now())
	m.sweep(index)

	c, ok := m.counters[key]
	if !ok || c.window != index {
		c = &counter{window: index}
		m.counters[key] = c
	}
	c.count++

	return decide(m.cfg.Max, c.count, left)
}

// sweep drops counters of closed windows, once per window.
func (m *Memory) sweep(index int64) {
	if index == m.swept {
		return
	}
	m.swept = index

	for key, c := range m.counters {
		if c.window != index {
			delete(m.counters, key)
		}
	}
}

// Len reports the number of tracked clients.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.counters)
}
