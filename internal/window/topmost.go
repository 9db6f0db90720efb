package window

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/winpin/internal/platform"
	"github.com/1broseidon/winpin/internal/timer"
)

// ZState is the z-order a Topmost controller keeps a window in.
type ZState int

const (
	PinnedAbove ZState = iota
	PinnedBelowNormal
)

func (s ZState) String() string {
	switch s {
	case PinnedAbove:
		return "pinned-above"
	case PinnedBelowNormal:
		return "normal"
	default:
		return "unknown"
	}
}

// Flip returns the opposite state.
func (s ZState) Flip() ZState {
	if s == PinnedAbove {
		return PinnedBelowNormal
	}
	return PinnedAbove
}

func (s ZState) order() platform.ZOrder {
	if s == PinnedAbove {
		return platform.ZOrderTopmost
	}
	return platform.ZOrderNoTopmost
}

// Topmost applies a z-order state to a window and optionally re-applies it
// periodically, since window managers drop "always on top" when another
// window takes focus.
type Topmost struct {
	backend platform.Backend
	clock   timer.Clock
	logger  *slog.Logger

	// mu is held across every z-order call so that a tick of a disarmed
	// timer cannot land after a later SetState.
	mu       sync.Mutex
	handle   timer.Handle
	gen      uint64
	window   platform.WindowID
	state    ZState
	interval time.Duration
}

// NewTopmost creates a controller in the PinnedBelowNormal state with no
// enforcement armed.
func NewTopmost(backend platform.Backend, clock timer.Clock, logger *slog.Logger) *Topmost {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Topmost{
		backend: backend,
		clock:   clock,
		logger:  logger,
		state:   PinnedBelowNormal,
	}
}

// SetState records state and issues one z-order change that keeps the
// window's size and position.
func (t *Topmost) SetState(id platform.WindowID, state ZState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.window = id
	t.state = state
	return t.apply(id, state)
}

// StartEnforcement re-applies the current state every interval, starting
// from initial. An armed timer is reused.
func (t *Topmost) StartEnforcement(id platform.WindowID, interval time.Duration, initial ZState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.window = id
	t.state = initial
	t.interval = interval
	if t.handle != nil {
		t.handle.SetInterval(interval)
	} else {
		t.gen++
		gen := t.gen
		t.handle = t.clock.Every(interval, func() { t.tick(gen) })
	}
	t.logger.Debug("z-order enforcement started", "window", id, "interval", interval, "state", initial)
}

// StopEnforcement disarms the timer. Safe when not armed.
func (t *Topmost) StopEnforcement() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.handle != nil {
		t.handle.Stop()
		t.handle = nil
		t.gen++
		t.logger.Debug("z-order enforcement stopped", "window", t.window)
	}
}

// Toggle flips the desired state. The change reaches the window on the
// next enforcement tick, so nothing changes on screen while enforcement is
// disarmed.
func (t *Topmost) Toggle() ZState {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = t.state.Flip()
	return t.state
}

// ToggleNow flips the desired state and applies it immediately.
func (t *Topmost) ToggleNow() (ZState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = t.state.Flip()
	return t.state, t.apply(t.window, t.state)
}

// State returns the desired state.
func (t *Topmost) State() ZState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Enforcing reports whether periodic enforcement is armed.
func (t *Topmost) Enforcing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handle != nil
}

func (t *Topmost) tick(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.handle == nil || gen != t.gen {
		return
	}

	// Failures keep the timer armed; the next tick retries.
	_ = t.apply(t.window, t.state)
}

// apply must be called with t.mu held.
func (t *Topmost) apply(id platform.WindowID, state ZState) error {
	if err := t.backend.SetZOrder(id, state.order(), platform.NoMove|platform.NoSize); err != nil {
		t.logger.Debug("z-order change failed", "window", id, "state", state, "error", err)
		return fmt.Errorf("failed to set %s: %w", state, err)
	}
	return nil
}
