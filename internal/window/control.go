package window

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/1broseidon/winpin/internal/platform"
	"github.com/1broseidon/winpin/internal/timer"
)

const (
	DefaultMoveInterval    = time.Second
	DefaultMoveRetries     = 60
	DefaultEnforceInterval = time.Second
)

// ControlConfig configures a Control.
type ControlConfig struct {
	// PID selects the process whose window is managed. Zero means this
	// process.
	PID int
	// EnforceInterval is the z-order re-assertion period.
	EnforceInterval time.Duration
	Logger          *slog.Logger
	// OnMoveFinish is forwarded to the Mover.
	OnMoveFinish func(MoveResult)
}

// Status is a snapshot of a Control.
type Status struct {
	Window    platform.WindowID
	PID       int
	Move      MoveStatus
	ZState    ZState
	Enforcing bool
}

// Control owns one resolved window and exposes move and pin operations on
// it. The handle is resolved once; if the window is replaced, build a new
// Control.
type Control struct {
	backend  platform.Backend
	locator  *Locator
	mover    *Mover
	topmost  *Topmost
	logger   *slog.Logger
	window   platform.WindowID
	pid      int
	interval time.Duration
}

// NewControl resolves the managed window and returns a controller for it.
// A missing window is not an error: the handle is NullWindow and every
// operation reports ErrNullWindow.
func NewControl(backend platform.Backend, clock timer.Clock, cfg ControlConfig) *Control {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	interval := cfg.EnforceInterval
	if interval <= 0 {
		interval = DefaultEnforceInterval
	}
	pid := cfg.PID
	if pid == 0 {
		pid = backend.CurrentPID()
	}

	locator := NewLocator(backend)
	window := locator.FindByPID(pid)
	if window == platform.NullWindow {
		logger.Warn("no window found for process", "pid", pid)
	} else {
		logger.Info("managing window", "pid", pid, "window", window)
	}

	mover := NewMover(backend, clock, logger)
	mover.OnFinish = cfg.OnMoveFinish
	topmost := NewTopmost(backend, clock, logger)
	topmost.window = window

	return &Control{
		backend:  backend,
		locator:  locator,
		mover:    mover,
		topmost:  topmost,
		logger:   logger,
		window:   window,
		pid:      pid,
		interval: interval,
	}
}

// Window returns the resolved handle (NullWindow if none was found).
func (c *Control) Window() platform.WindowID {
	return c.window
}

// Rect returns the current rectangle of the managed window.
func (c *Control) Rect() (platform.Rect, error) {
	return c.backend.WindowRect(c.window)
}

// Target fills a missing axis from the window's current position. With
// both axes given no OS call is made.
func (c *Control) Target(x, y *int) (int, int, error) {
	if x != nil && y != nil {
		return *x, *y, nil
	}
	rect, err := c.Rect()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read current position: %w", err)
	}
	tx, ty := rect.Left, rect.Top
	if x != nil {
		tx = *x
	}
	if y != nil {
		ty = *y
	}
	return tx, ty, nil
}

// RequestMove starts (or retargets) the retrying move.
func (c *Control) RequestMove(x, y int, interval time.Duration, budget Budget) {
	if interval <= 0 {
		interval = DefaultMoveInterval
	}
	c.mover.Start(c.window, x, y, interval, budget)
}

// MoveOnce issues a single move without retries.
func (c *Control) MoveOnce(x, y int) error {
	return c.mover.MoveOnce(c.window, x, y)
}

// CancelMove stops any retrying move.
func (c *Control) CancelMove() {
	c.mover.Cancel()
}

// RequestTopmost pins the window and starts enforcement, or stops
// enforcement and returns the window to the normal band once.
func (c *Control) RequestTopmost(enable bool) error {
	if enable {
		err := c.topmost.SetState(c.window, PinnedAbove)
		c.topmost.StartEnforcement(c.window, c.interval, PinnedAbove)
		return err
	}
	c.topmost.StopEnforcement()
	return c.topmost.SetState(c.window, PinnedBelowNormal)
}

// Toggle flips the pinned state. With immediate the new state is applied
// now; otherwise it lands on the next enforcement tick.
func (c *Control) Toggle(immediate bool) (ZState, error) {
	if immediate {
		state, err := c.topmost.ToggleNow()
		if err != nil {
			return state, fmt.Errorf("toggle: %w", err)
		}
		return state, nil
	}
	state := c.topmost.Toggle()
	if !c.topmost.Enforcing() {
		c.logger.Info("deferred toggle not applied: z-order enforcement is off",
			"window", c.window, "state", state)
	}
	return state, nil
}

// Status returns a snapshot of the mover and z-order controller.
func (c *Control) Status() Status {
	return Status{
		Window:    c.window,
		PID:       c.pid,
		Move:      c.mover.Status(),
		ZState:    c.topmost.State(),
		Enforcing: c.topmost.Enforcing(),
	}
}

// Close disarms both timers.
func (c *Control) Close() {
	c.mover.Cancel()
	c.topmost.StopEnforcement()
}
