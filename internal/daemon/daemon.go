// Package daemon wires the window controller to its startup settings and
// keeps it bound to the target process's window.
package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/winpin/internal/config"
	"github.com/1broseidon/winpin/internal/platform"
	"github.com/1broseidon/winpin/internal/timer"
	"github.com/1broseidon/winpin/internal/window"
)

// Options configures a Daemon.
type Options struct {
	Config   *config.Config
	Settings Settings
	// PID is the process whose window is managed. Zero means this process.
	PID    int
	Clock  timer.Clock
	Logger *slog.Logger
}

// Daemon owns the current window.Control for the target process. Callers
// go through the Daemon so a rebind is invisible to them.
type Daemon struct {
	backend  platform.Backend
	locator  *window.Locator
	clock    timer.Clock
	logger   *slog.Logger
	settings Settings
	pid      int

	mu  sync.RWMutex
	cfg *config.Config
	ctl *window.Control
}

// New creates a daemon. Start must be called before any other method.
func New(backend platform.Backend, opts Options) *Daemon {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clock := opts.Clock
	if clock == nil {
		clock = timer.NewTickerClock(logger)
	}
	pid := opts.PID
	if pid == 0 {
		pid = backend.CurrentPID()
	}

	return &Daemon{
		backend:  backend,
		locator:  window.NewLocator(backend),
		clock:    clock,
		logger:   logger,
		settings: opts.Settings,
		pid:      pid,
		cfg:      cfg,
	}
}

// Start waits for the target window, builds the controller and applies the
// startup settings. A window that never shows up is logged and left to the
// reconciler; only ctx cancellation is an error.
func (d *Daemon) Start(ctx context.Context) error {
	cfg := d.Config()

	if _, err := WaitForWindow(ctx, d.locator, d.pid, cfg.WaitForWindow); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("interrupted while waiting for window: %w", err)
		}
		d.logger.Warn("window not found yet; will keep looking", "pid", d.pid, "error", err)
	}

	d.mu.Lock()
	d.ctl = d.newControl(cfg)
	ctl := d.ctl
	d.mu.Unlock()

	if ctl.Window() != platform.NullWindow {
		d.apply(ctl, cfg)
	}
	return nil
}

func (d *Daemon) newControl(cfg *config.Config) *window.Control {
	return window.NewControl(d.backend, d.clock, window.ControlConfig{
		PID:             d.pid,
		EnforceInterval: cfg.TopmostInterval,
		Logger:          d.logger,
		OnMoveFinish: func(r window.MoveResult) {
			if r.Err != nil {
				d.logger.Warn("move finished", "state", r.State, "attempts", r.Attempts, "error", r.Err)
				return
			}
			d.logger.Info("move finished", "state", r.State, "attempts", r.Attempts)
		},
	})
}

func (d *Daemon) apply(ctl *window.Control, cfg *config.Config) {
	if err := Apply(ctl, d.settings, cfg, d.logger); err != nil {
		d.logger.Warn("startup settings partly applied", "error", err)
	}
}

// Rebind checks the managed window. If it is gone or was never found, the
// process's window is looked up again and, when it differs, the controller
// is replaced and the startup settings re-applied.
func (d *Daemon) Rebind() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctl == nil {
		return false, fmt.Errorf("daemon not started")
	}

	current := d.ctl.Window()
	if current != platform.NullWindow && d.owned(current) {
		return false, nil
	}

	found := d.locator.FindByPID(d.pid)
	if found == current {
		return false, nil
	}

	if found == platform.NullWindow {
		d.logger.Warn("managed window disappeared", "window", current, "pid", d.pid)
	}

	cfg := d.cfg
	d.ctl.Close()
	d.ctl = d.newControl(cfg)
	if d.ctl.Window() != platform.NullWindow {
		d.apply(d.ctl, cfg)
	}
	return true, nil
}

func (d *Daemon) owned(id platform.WindowID) bool {
	if _, err := d.backend.WindowRect(id); err != nil {
		return false
	}
	pid, err := d.backend.WindowPID(id)
	return err == nil && pid == d.pid
}

func (d *Daemon) current() *window.Control {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ctl
}

// PID returns the target process id.
func (d *Daemon) PID() int {
	return d.pid
}

// Config returns the current config (thread-safe)
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// UpdateConfig swaps the config. Intervals baked into a running controller
// take effect at the next rebind.
func (d *Daemon) UpdateConfig(cfg *config.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
}

func (d *Daemon) Status() window.Status {
	return d.current().Status()
}

func (d *Daemon) Rect() (platform.Rect, error) {
	return d.current().Rect()
}

func (d *Daemon) Target(x, y *int) (int, int, error) {
	return d.current().Target(x, y)
}

func (d *Daemon) RequestMove(x, y int, interval time.Duration, budget window.Budget) {
	d.current().RequestMove(x, y, interval, budget)
}

func (d *Daemon) MoveOnce(x, y int) error {
	return d.current().MoveOnce(x, y)
}

func (d *Daemon) CancelMove() {
	d.current().CancelMove()
}

func (d *Daemon) RequestTopmost(enable bool) error {
	return d.current().RequestTopmost(enable)
}

func (d *Daemon) Toggle(immediate bool) (window.ZState, error) {
	return d.current().Toggle(immediate)
}

// Close disarms the controller's timers. The target process is left alone.
func (d *Daemon) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctl != nil {
		d.ctl.Close()
	}
}
