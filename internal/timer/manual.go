package timer

import (
	"sync"
	"time"
)

// Manual is a deterministic Clock for tests. Nothing fires until Advance.
type Manual struct {
	mu      sync.Mutex
	handles []*manualHandle
	armed   int
}

// NewManual returns an empty manual clock.
func NewManual() *Manual {
	return &Manual{}
}

type manualHandle struct {
	clock    *Manual
	interval time.Duration
	elapsed  time.Duration
	stopped  bool
	fn       func()
}

// Every registers fn; it fires from Advance once per elapsed interval.
func (m *Manual) Every(interval time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := &manualHandle{clock: m, interval: positive(interval), fn: fn}
	m.handles = append(m.handles, h)
	m.armed++
	return h
}

// Advance moves time forward by d, firing due callbacks in registration
// order. Callbacks run without the clock lock held.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	handles := append([]*manualHandle(nil), m.handles...)
	m.mu.Unlock()

	for _, h := range handles {
		m.mu.Lock()
		if h.stopped {
			m.mu.Unlock()
			continue
		}
		h.elapsed += d
		m.mu.Unlock()

		for {
			m.mu.Lock()
			if h.stopped || h.elapsed < h.interval {
				m.mu.Unlock()
				break
			}
			h.elapsed -= h.interval
			m.mu.Unlock()
			h.fn()
		}
	}
}

// Active returns the number of handles that are armed.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, h := range m.handles {
		if !h.stopped {
			n++
		}
	}
	return n
}

// Created returns how many times Every has been called.
func (m *Manual) Created() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed
}

func (h *manualHandle) SetInterval(d time.Duration) {
	h.clock.mu.Lock()
	defer h.clock.mu.Unlock()
	h.interval = positive(d)
	h.elapsed = 0
}

func (h *manualHandle) Stop() {
	h.clock.mu.Lock()
	defer h.clock.mu.Unlock()
	h.stopped = true
}
