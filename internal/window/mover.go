package window

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/winpin/internal/platform"
	"github.com/1broseidon/winpin/internal/timer"
)

var (
	// ErrExhausted reports a move that used its retry budget without the
	// window reaching the target.
	ErrExhausted = errors.New("retry budget exhausted before window reached target")
	// ErrCancelled reports a move replaced or cancelled before it finished.
	ErrCancelled = errors.New("move cancelled")
)

// MoveState is the lifecycle state of a Mover.
type MoveState int

const (
	MoveIdle MoveState = iota
	MoveMoving
	MoveConverged
	MoveExhausted
)

func (s MoveState) String() string {
	switch s {
	case MoveIdle:
		return "idle"
	case MoveMoving:
		return "moving"
	case MoveConverged:
		return "converged"
	case MoveExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Budget is the number of failed convergence checks a move may take.
type Budget struct {
	remaining int
	unbounded bool
}

// Unbounded never runs out. A move with this budget only ends on
// convergence or Cancel.
func Unbounded() Budget { return Budget{unbounded: true} }

// Attempts allows n failed checks. Zero behaves as one.
func Attempts(n int) Budget {
	if n < 0 {
		n = 0
	}
	return Budget{remaining: n}
}

// BudgetFromCount maps a retry count where any negative value means
// "forever".
func BudgetFromCount(n int) Budget {
	if n < 0 {
		return Unbounded()
	}
	return Attempts(n)
}

// Unbounded reports whether the budget never runs out.
func (b Budget) Unbounded() bool { return b.unbounded }

// Remaining returns the remaining attempts, or -1 when unbounded.
func (b Budget) Remaining() int {
	if b.unbounded {
		return -1
	}
	return b.remaining
}

// consume spends one attempt and reports whether the budget is now spent.
func (b *Budget) consume() bool {
	if b.unbounded {
		return false
	}
	b.remaining--
	return b.remaining <= 0
}

// Point is a desktop coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// MoveStatus is a snapshot of a Mover.
type MoveStatus struct {
	State     MoveState
	Window    platform.WindowID
	Target    Point
	Remaining int
	Attempts  int
}

// MoveResult is delivered once per move run that reaches a terminal state.
type MoveResult struct {
	Window   platform.WindowID
	Target   Point
	State    MoveState
	Attempts int
	// Err is nil on convergence, ErrExhausted or ErrCancelled otherwise.
	Err error
}

// Mover drives a window toward a target position, re-issuing the move on
// every tick until the measured rectangle matches or the budget runs out.
// A tick whose rect query fails issues no move, since there is no size to
// keep, and counts as a failed attempt; a window whose rect cannot be read
// never receives move calls.
type Mover struct {
	backend platform.Backend
	clock   timer.Clock
	logger  *slog.Logger

	// OnFinish, if set, is called without the mover lock held after each
	// run ends.
	OnFinish func(MoveResult)

	mu       sync.Mutex
	handle   timer.Handle
	gen      uint64
	window   platform.WindowID
	target   Point
	budget   Budget
	state    MoveState
	attempts int
}

// NewMover creates an idle mover.
func NewMover(backend platform.Backend, clock timer.Clock, logger *slog.Logger) *Mover {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Mover{
		backend: backend,
		clock:   clock,
		logger:  logger,
	}
}

// Start records the target and budget and arms the retry timer. A run
// already in progress is replaced: its timer is reused with the new
// interval and its budget is reset.
func (m *Mover) Start(id platform.WindowID, x, y int, interval time.Duration, budget Budget) {
	m.mu.Lock()
	var replaced *MoveResult
	if m.state == MoveMoving {
		replaced = &MoveResult{
			Window:   m.window,
			Target:   m.target,
			State:    MoveIdle,
			Attempts: m.attempts,
			Err:      ErrCancelled,
		}
	}

	m.window = id
	m.target = Point{X: x, Y: y}
	m.budget = budget
	m.attempts = 0
	m.state = MoveMoving

	if m.handle != nil {
		m.handle.SetInterval(interval)
	} else {
		m.gen++
		gen := m.gen
		m.handle = m.clock.Every(interval, func() { m.tick(gen) })
	}
	m.mu.Unlock()

	m.logger.Debug("move started",
		"window", id,
		"x", x,
		"y", y,
		"interval", interval,
		"budget", budget.Remaining())

	if replaced != nil {
		m.finish(*replaced)
	}
}

// Cancel disarms the timer and returns to Idle. Safe in any state.
func (m *Mover) Cancel() {
	m.mu.Lock()
	wasMoving := m.state == MoveMoving
	result := MoveResult{
		Window:   m.window,
		Target:   m.target,
		State:    MoveIdle,
		Attempts: m.attempts,
		Err:      ErrCancelled,
	}
	m.disarmLocked()
	m.state = MoveIdle
	m.mu.Unlock()

	if wasMoving {
		m.logger.Debug("move cancelled", "window", result.Window, "attempts", result.Attempts)
		m.finish(result)
	}
}

// State returns the current lifecycle state.
func (m *Mover) State() MoveState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns a snapshot of the current run.
func (m *Mover) Status() MoveStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MoveStatus{
		State:     m.state,
		Window:    m.window,
		Target:    m.target,
		Remaining: m.budget.Remaining(),
		Attempts:  m.attempts,
	}
}

// MoveOnce issues a single move to (x, y) keeping the current size. It does
// not touch the retry state machine.
func (m *Mover) MoveOnce(id platform.WindowID, x, y int) error {
	rect, err := m.backend.WindowRect(id)
	if err != nil {
		return fmt.Errorf("failed to read window rect: %w", err)
	}
	if err := m.backend.MoveWindow(id, x, y, rect.Width(), rect.Height(), false); err != nil {
		return fmt.Errorf("failed to move window: %w", err)
	}
	return nil
}

func (m *Mover) tick(gen uint64) {
	m.mu.Lock()
	if m.state != MoveMoving || gen != m.gen {
		m.mu.Unlock()
		return
	}

	m.attempts++
	converged := m.attemptLocked()

	var result *MoveResult
	switch {
	case converged:
		m.state = MoveConverged
		m.disarmLocked()
		result = &MoveResult{Window: m.window, Target: m.target, State: MoveConverged, Attempts: m.attempts}
	case m.budget.consume():
		m.state = MoveExhausted
		m.disarmLocked()
		result = &MoveResult{Window: m.window, Target: m.target, State: MoveExhausted, Attempts: m.attempts, Err: ErrExhausted}
	}
	m.mu.Unlock()

	if result == nil {
		return
	}
	if result.Err != nil {
		m.logger.Warn("move gave up",
			"window", result.Window,
			"x", result.Target.X,
			"y", result.Target.Y,
			"attempts", result.Attempts)
	} else {
		m.logger.Info("window reached target",
			"window", result.Window,
			"x", result.Target.X,
			"y", result.Target.Y,
			"attempts", result.Attempts)
	}
	m.finish(*result)
}

// attemptLocked issues one move and reports whether the window is at the
// target afterwards.
func (m *Mover) attemptLocked() bool {
	x, y := m.target.X, m.target.Y

	rect, err := m.backend.WindowRect(m.window)
	if err != nil {
		m.logger.Debug("move skipped: rect unavailable", "window", m.window, "error", err)
		return false
	}
	if err := m.backend.MoveWindow(m.window, x, y, rect.Width(), rect.Height(), false); err != nil {
		m.logger.Debug("move call failed", "window", m.window, "error", err)
	}

	rect, err = m.backend.WindowRect(m.window)
	if err != nil {
		return false
	}
	return rect.Left == x && rect.Top == y
}

func (m *Mover) disarmLocked() {
	if m.handle != nil {
		m.handle.Stop()
		m.handle = nil
	}
}

func (m *Mover) finish(result MoveResult) {
	if m.OnFinish != nil {
		m.OnFinish(result)
	}
}
