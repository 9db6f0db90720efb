// Package timer provides the periodic callback primitive that drives window
// retries and z-order enforcement.
package timer

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

// Handle controls one armed periodic callback.
type Handle interface {
	// SetInterval changes the period; the next tick is one new interval away.
	SetInterval(d time.Duration)
	// Stop disarms the callback. It is idempotent, does not wait for an
	// in-flight tick and may be called from inside the callback.
	Stop()
}

// Clock arms periodic callbacks. Ticks of a single handle never overlap.
type Clock interface {
	Every(interval time.Duration, fn func()) Handle
}

// TickerClock runs each handle on its own goroutine driven by time.Ticker.
type TickerClock struct {
	logger *slog.Logger
}

// NewTickerClock creates a clock backed by time.Ticker. Panics raised by a
// tick are logged and do not disarm the handle.
func NewTickerClock(logger *slog.Logger) *TickerClock {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &TickerClock{logger: logger}
}

type tickerHandle struct {
	mu      sync.Mutex
	ticker  *time.Ticker
	stopped bool
	done    chan struct{}
	fn      func()
	logger  *slog.Logger
}

// Every arms fn to run every interval until the returned handle is stopped.
func (c *TickerClock) Every(interval time.Duration, fn func()) Handle {
	h := &tickerHandle{
		ticker: time.NewTicker(positive(interval)),
		done:   make(chan struct{}),
		fn:     fn,
		logger: c.logger,
	}
	go h.run()
	return h
}

func (h *tickerHandle) run() {
	defer h.ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-h.ticker.C:
			if h.isStopped() {
				return
			}
			h.tick()
		}
	}
}

func (h *tickerHandle) tick() {
	defer func() {
		if err := recover(); err != nil {
			h.logger.Error("timer tick panic recovered", "error", err)
		}
	}()
	h.fn()
}

func (h *tickerHandle) isStopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

func (h *tickerHandle) SetInterval(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.ticker.Reset(positive(d))
}

func (h *tickerHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	close(h.done)
}

func positive(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Millisecond
	}
	return d
}
