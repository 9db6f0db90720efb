package window

import (
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/winpin/internal/platform"
	"github.com/1broseidon/winpin/internal/platform/platformtest"
	"github.com/1broseidon/winpin/internal/timer"
)

const tick = 100 * time.Millisecond

func newMoverFixture() (*platformtest.Backend, *timer.Manual, *Mover) {
	fake := platformtest.New(1)
	fake.AddWindow(10, "Kiosk", true, 1, platform.Rect{Left: 0, Top: 0, Right: 800, Bottom: 600})
	clock := timer.NewManual()
	return fake, clock, NewMover(fake, clock, nil)
}

func TestMover_ConvergesOnThirdMove(t *testing.T) {
	fake, clock, m := newMoverFixture()
	fake.IgnoreMoves = 2

	m.Start(10, 100, 50, tick, Unbounded())
	for i := 0; i < 3; i++ {
		clock.Advance(tick)
	}

	if m.State() != MoveConverged {
		t.Fatalf("state = %s, want converged", m.State())
	}
	if clock.Active() != 0 {
		t.Fatalf("timer still armed after convergence")
	}
	clock.Advance(10 * tick)
	if n := len(fake.Moves()); n != 3 {
		t.Fatalf("move calls = %d, want 3", n)
	}
}

func TestMover_ExhaustsFiniteBudget(t *testing.T) {
	fake, clock, m := newMoverFixture()
	fake.IgnoreMoves = -1

	var results []MoveResult
	m.OnFinish = func(r MoveResult) { results = append(results, r) }

	m.Start(10, 100, 50, tick, Attempts(2))
	clock.Advance(tick)
	if m.State() != MoveMoving {
		t.Fatalf("state after 1 tick = %s, want moving", m.State())
	}
	clock.Advance(tick)

	if m.State() != MoveExhausted {
		t.Fatalf("state = %s, want exhausted", m.State())
	}
	if clock.Active() != 0 {
		t.Fatal("timer still armed after exhaustion")
	}
	clock.Advance(5 * tick)
	if n := len(fake.Moves()); n != 2 {
		t.Fatalf("move calls = %d, want 2", n)
	}
	if len(results) != 1 || !errors.Is(results[0].Err, ErrExhausted) || results[0].Attempts != 2 {
		t.Fatalf("unexpected finish results: %+v", results)
	}
}

func TestMover_PreservesSizeMeasuredBeforeEachMove(t *testing.T) {
	fake, clock, m := newMoverFixture()
	fake.IgnoreMoves = -1

	m.Start(10, 100, 50, tick, Attempts(3))
	clock.Advance(tick)
	fake.SetRect(10, platform.Rect{Left: 5, Top: 5, Right: 1029, Bottom: 773})
	clock.Advance(tick)

	moves := fake.Moves()
	if len(moves) != 2 {
		t.Fatalf("move calls = %d, want 2", len(moves))
	}
	if moves[0].Width != 800 || moves[0].Height != 600 {
		t.Fatalf("first move size = %dx%d, want 800x600", moves[0].Width, moves[0].Height)
	}
	if moves[1].Width != 1024 || moves[1].Height != 768 {
		t.Fatalf("second move size = %dx%d, want 1024x768", moves[1].Width, moves[1].Height)
	}
	for _, mv := range moves {
		if mv.X != 100 || mv.Y != 50 || mv.Repaint {
			t.Fatalf("unexpected move call %+v", mv)
		}
	}
}

func TestMover_RestartReusesTimerAndResetsBudget(t *testing.T) {
	fake, clock, m := newMoverFixture()
	fake.IgnoreMoves = -1

	var results []MoveResult
	m.OnFinish = func(r MoveResult) { results = append(results, r) }

	m.Start(10, 100, 50, tick, Attempts(2))
	clock.Advance(tick)
	m.Start(10, 300, 200, tick, Attempts(2))

	if clock.Created() != 1 {
		t.Fatalf("Every called %d times, want 1", clock.Created())
	}
	if len(results) != 1 || !errors.Is(results[0].Err, ErrCancelled) {
		t.Fatalf("replaced run should finish cancelled, got %+v", results)
	}

	st := m.Status()
	if st.Target != (Point{X: 300, Y: 200}) || st.Remaining != 2 || st.Attempts != 0 {
		t.Fatalf("unexpected status after restart: %+v", st)
	}

	clock.Advance(tick)
	if m.State() != MoveMoving {
		t.Fatalf("budget was not reset: state = %s", m.State())
	}
	clock.Advance(tick)
	if m.State() != MoveExhausted {
		t.Fatalf("state = %s, want exhausted", m.State())
	}
	last := fake.Moves()[len(fake.Moves())-1]
	if last.X != 300 || last.Y != 200 {
		t.Fatalf("last move targeted (%d,%d), want (300,200)", last.X, last.Y)
	}
}

func TestMover_StartAfterConvergenceArmsNewTimer(t *testing.T) {
	_, clock, m := newMoverFixture()

	m.Start(10, 100, 50, tick, Unbounded())
	clock.Advance(tick)
	if m.State() != MoveConverged {
		t.Fatalf("state = %s, want converged", m.State())
	}

	m.Start(10, 0, 0, tick, Unbounded())
	if clock.Active() != 1 {
		t.Fatalf("Active() = %d, want 1", clock.Active())
	}
	clock.Advance(tick)
	if m.State() != MoveConverged {
		t.Fatalf("state = %s, want converged", m.State())
	}
}

func TestMover_CancelStopsFurtherMoves(t *testing.T) {
	fake, clock, m := newMoverFixture()
	fake.IgnoreMoves = -1

	m.Cancel() // idle: no-op
	if m.State() != MoveIdle {
		t.Fatalf("state = %s, want idle", m.State())
	}

	m.Start(10, 100, 50, tick, Unbounded())
	clock.Advance(tick)
	m.Cancel()
	m.Cancel()
	clock.Advance(10 * tick)

	if m.State() != MoveIdle {
		t.Fatalf("state = %s, want idle", m.State())
	}
	if n := len(fake.Moves()); n != 1 {
		t.Fatalf("move calls = %d, want 1", n)
	}
	if clock.Active() != 0 {
		t.Fatal("timer still armed after cancel")
	}
}

func TestMover_NullWindowRunsUntilBudgetExhausted(t *testing.T) {
	fake, clock, m := newMoverFixture()

	m.Start(platform.NullWindow, 100, 50, tick, Attempts(3))
	clock.Advance(tick)
	clock.Advance(tick)
	if m.State() != MoveMoving {
		t.Fatalf("state = %s, want moving", m.State())
	}
	clock.Advance(tick)
	if m.State() != MoveExhausted {
		t.Fatalf("state = %s, want exhausted", m.State())
	}
	if n := len(fake.Moves()); n != 0 {
		t.Fatalf("null handle reached the backend %d times", n)
	}
}

func TestMover_MoveFailureDoesNotStopLoop(t *testing.T) {
	fake, clock, m := newMoverFixture()
	fake.MoveErr = errors.New("access denied")

	m.Start(10, 100, 50, tick, Unbounded())
	for i := 0; i < 5; i++ {
		clock.Advance(tick)
	}
	if m.State() != MoveMoving {
		t.Fatalf("state = %s, want moving", m.State())
	}
	if n := len(fake.Moves()); n != 5 {
		t.Fatalf("move calls = %d, want 5", n)
	}
	m.Cancel()
}

func TestMover_NegativeTargetAcceptedAsIs(t *testing.T) {
	fake, clock, m := newMoverFixture()

	m.Start(10, -1920, -40, tick, Attempts(1))
	clock.Advance(tick)

	if m.State() != MoveConverged {
		t.Fatalf("state = %s, want converged", m.State())
	}
	if r := fake.Rect(10); r.Left != -1920 || r.Top != -40 {
		t.Fatalf("rect = %+v, want origin (-1920,-40)", r)
	}
}

func TestMover_MoveOnce(t *testing.T) {
	fake, clock, m := newMoverFixture()

	if err := m.MoveOnce(10, 30, 40); err != nil {
		t.Fatalf("MoveOnce: %v", err)
	}
	if clock.Created() != 0 {
		t.Fatal("MoveOnce should not arm a timer")
	}
	if r := fake.Rect(10); r != (platform.Rect{Left: 30, Top: 40, Right: 830, Bottom: 640}) {
		t.Fatalf("rect = %+v", r)
	}
	if err := m.MoveOnce(platform.NullWindow, 0, 0); !errors.Is(err, platform.ErrNullWindow) {
		t.Fatalf("MoveOnce(null) err = %v, want ErrNullWindow", err)
	}
}

func TestBudget(t *testing.T) {
	tests := []struct {
		name      string
		budget    Budget
		unbounded bool
		remaining int
	}{
		{"unbounded", Unbounded(), true, -1},
		{"from negative count", BudgetFromCount(-1), true, -1},
		{"from count", BudgetFromCount(60), false, 60},
		{"negative attempts clamp", Attempts(-5), false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.budget.Unbounded() != tt.unbounded || tt.budget.Remaining() != tt.remaining {
				t.Fatalf("got unbounded=%v remaining=%d, want %v/%d",
					tt.budget.Unbounded(), tt.budget.Remaining(), tt.unbounded, tt.remaining)
			}
		})
	}

	zero := Attempts(0)
	if !zero.consume() {
		t.Fatal("a zero budget should be spent after one attempt")
	}
	forever := Unbounded()
	for i := 0; i < 1000; i++ {
		if forever.consume() {
			t.Fatal("unbounded budget ran out")
		}
	}
}

func TestMover_UnreadableRectNeverMoves(t *testing.T) {
	fake, clock, m := newMoverFixture()
	fake.RectErr = errors.New("bad window")

	m.Start(10, 100, 50, tick, Attempts(3))
	for i := 0; i < 3; i++ {
		clock.Advance(tick)
	}

	if m.State() != MoveExhausted {
		t.Fatalf("state = %s, want exhausted", m.State())
	}
	if got := m.Status().Attempts; got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}
	if n := len(fake.Moves()); n != 0 {
		t.Fatalf("move calls = %d, want 0 when the rect cannot be read", n)
	}
}
