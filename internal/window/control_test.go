package window

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/winpin/internal/platform"
	"github.com/1broseidon/winpin/internal/platform/platformtest"
	"github.com/1broseidon/winpin/internal/timer"
)

func newControlFixture(t *testing.T) (*platformtest.Backend, *timer.Manual, *Control) {
	t.Helper()
	fake := platformtest.New(4242)
	fake.AddWindow(1, "Desktop", true, 1, platform.Rect{Right: 1920, Bottom: 1080})
	fake.AddWindow(7, "Kiosk", true, 4242, platform.Rect{Left: 0, Top: 0, Right: 800, Bottom: 600})
	fake.SetShell(1)
	clock := timer.NewManual()
	ctl := NewControl(fake, clock, ControlConfig{EnforceInterval: time.Second})
	if ctl.Window() != 7 {
		t.Fatalf("resolved window = %d, want 7", ctl.Window())
	}
	return fake, clock, ctl
}

func TestControl_MoveAndPinScenario(t *testing.T) {
	fake, clock, ctl := newControlFixture(t)

	ctl.RequestMove(100, 50, time.Second, BudgetFromCount(DefaultMoveRetries))
	if err := ctl.RequestTopmost(true); err != nil {
		t.Fatalf("RequestTopmost: %v", err)
	}
	if z, _ := fake.ZOrderOf(7); z != platform.ZOrderTopmost {
		t.Fatalf("window not pinned immediately: %s", z)
	}

	clock.Advance(time.Second)

	moves := fake.Moves()
	if len(moves) != 1 {
		t.Fatalf("move calls = %d, want 1", len(moves))
	}
	want := platformtest.MoveCall{ID: 7, X: 100, Y: 50, Width: 800, Height: 600}
	if moves[0] != want {
		t.Fatalf("move call = %+v, want %+v", moves[0], want)
	}
	if r := fake.Rect(7); r != (platform.Rect{Left: 100, Top: 50, Right: 900, Bottom: 650}) {
		t.Fatalf("rect = %+v", r)
	}

	st := ctl.Status()
	if st.Move.State != MoveConverged {
		t.Fatalf("move state = %s, want converged", st.Move.State)
	}
	if st.ZState != PinnedAbove || !st.Enforcing || st.PID != 4242 {
		t.Fatalf("unexpected status %+v", st)
	}

	before := len(fake.ZOrderCalls())
	clock.Advance(5 * time.Second)
	if got := len(fake.ZOrderCalls()) - before; got != 5 {
		t.Fatalf("enforcement ticks = %d, want 5", got)
	}
	if len(fake.Moves()) != 1 {
		t.Fatal("mover kept running after convergence")
	}

	ctl.Close()
	if clock.Active() != 0 {
		t.Fatalf("Close left %d timers armed", clock.Active())
	}
}

func TestControl_RequestTopmostDisable(t *testing.T) {
	fake, clock, ctl := newControlFixture(t)

	if err := ctl.RequestTopmost(true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if err := ctl.RequestTopmost(false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if ctl.Status().Enforcing {
		t.Fatal("enforcement still armed")
	}
	if z, _ := fake.ZOrderOf(7); z != platform.ZOrderNoTopmost {
		t.Fatalf("z-order = %s, want no-topmost", z)
	}

	calls := len(fake.ZOrderCalls())
	clock.Advance(3 * time.Second)
	if len(fake.ZOrderCalls()) != calls {
		t.Fatal("z-order re-applied after disable")
	}
}

func TestControl_Toggle(t *testing.T) {
	tests := []struct {
		name      string
		immediate bool
		wantNow   platform.ZOrder
	}{
		{"deferred", false, platform.ZOrderTopmost},
		{"immediate", true, platform.ZOrderNoTopmost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, clock, ctl := newControlFixture(t)
			if err := ctl.RequestTopmost(true); err != nil {
				t.Fatalf("RequestTopmost: %v", err)
			}

			state, err := ctl.Toggle(tt.immediate)
			if err != nil {
				t.Fatalf("Toggle: %v", err)
			}
			if state != PinnedBelowNormal {
				t.Fatalf("Toggle() = %s, want normal", state)
			}
			if z, _ := fake.ZOrderOf(7); z != tt.wantNow {
				t.Fatalf("z-order before tick = %s, want %s", z, tt.wantNow)
			}

			clock.Advance(time.Second)
			if z, _ := fake.ZOrderOf(7); z != platform.ZOrderNoTopmost {
				t.Fatalf("z-order after tick = %s, want no-topmost", z)
			}
		})
	}
}

func TestControl_MissingWindow(t *testing.T) {
	fake := platformtest.New(99)
	fake.AddWindow(7, "Kiosk", true, 4242, platform.Rect{Right: 800, Bottom: 600})
	clock := timer.NewManual()

	var results []MoveResult
	ctl := NewControl(fake, clock, ControlConfig{
		OnMoveFinish: func(r MoveResult) { results = append(results, r) },
	})
	if ctl.Window() != platform.NullWindow {
		t.Fatalf("Window() = %d, want NullWindow", ctl.Window())
	}

	if err := ctl.RequestTopmost(true); !errors.Is(err, platform.ErrNullWindow) {
		t.Fatalf("RequestTopmost err = %v, want ErrNullWindow", err)
	}
	if err := ctl.MoveOnce(1, 1); !errors.Is(err, platform.ErrNullWindow) {
		t.Fatalf("MoveOnce err = %v, want ErrNullWindow", err)
	}
	if _, err := ctl.Rect(); !errors.Is(err, platform.ErrNullWindow) {
		t.Fatalf("Rect err = %v, want ErrNullWindow", err)
	}

	ctl.RequestMove(10, 10, time.Second, Attempts(2))
	clock.Advance(2 * time.Second)
	if len(results) != 1 || results[0].State != MoveExhausted {
		t.Fatalf("unexpected results %+v", results)
	}
	if len(fake.Moves()) != 0 || len(fake.ZOrderCalls()) != 0 {
		t.Fatal("null window reached the backend")
	}
	ctl.Close()
}

func TestControl_ExplicitPID(t *testing.T) {
	fake := platformtest.New(1)
	fake.AddWindow(3, "Other", true, 555, platform.Rect{Right: 100, Bottom: 100})
	ctl := NewControl(fake, timer.NewManual(), ControlConfig{PID: 555})
	if ctl.Window() != 3 || ctl.Status().PID != 555 {
		t.Fatalf("resolved window %d for pid %d", ctl.Window(), ctl.Status().PID)
	}
}

func TestControl_TargetKeepsMissingAxis(t *testing.T) {
	fake, _, ctl := newControlFixture(t)
	fake.SetRect(7, platform.Rect{Left: 30, Top: 40, Right: 830, Bottom: 640})
	x, y := 100, 50

	tests := []struct {
		name         string
		x, y         *int
		wantX, wantY int
	}{
		{"both axes", &x, &y, 100, 50},
		{"only x", &x, nil, 100, 40},
		{"only y", nil, &y, 30, 50},
		{"neither", nil, nil, 30, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotX, gotY, err := ctl.Target(tt.x, tt.y)
			if err != nil {
				t.Fatalf("Target: %v", err)
			}
			if gotX != tt.wantX || gotY != tt.wantY {
				t.Fatalf("Target = (%d,%d), want (%d,%d)", gotX, gotY, tt.wantX, tt.wantY)
			}
		})
	}

	missing := NewControl(platformtest.New(1), timer.NewManual(), ControlConfig{})
	if _, _, err := missing.Target(&x, nil); !errors.Is(err, platform.ErrNullWindow) {
		t.Fatalf("Target on missing window err = %v, want ErrNullWindow", err)
	}
	if gx, gy, err := missing.Target(&x, &y); err != nil || gx != 100 || gy != 50 {
		t.Fatalf("Target with both axes = (%d,%d,%v)", gx, gy, err)
	}
}

func TestControl_DeferredToggleWithoutEnforcementIsLogged(t *testing.T) {
	fake := platformtest.New(4242)
	fake.AddWindow(7, "Kiosk", true, 4242, platform.Rect{Right: 800, Bottom: 600})
	clock := timer.NewManual()
	var logs bytes.Buffer
	ctl := NewControl(fake, clock, ControlConfig{
		EnforceInterval: time.Second,
		Logger:          slog.New(slog.NewTextHandler(&logs, nil)),
	})

	state, err := ctl.Toggle(false)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if state != PinnedAbove {
		t.Fatalf("Toggle() = %s, want pinned-above", state)
	}
	if !strings.Contains(logs.String(), "deferred toggle not applied") {
		t.Fatalf("expected a log line for the unapplied toggle, got:\n%s", logs.String())
	}
	clock.Advance(10 * time.Second)
	if n := len(fake.ZOrderCalls()); n != 0 {
		t.Fatalf("z-order calls = %d, want 0 without enforcement", n)
	}

	logs.Reset()
	if err := ctl.RequestTopmost(true); err != nil {
		t.Fatalf("RequestTopmost: %v", err)
	}
	if _, err := ctl.Toggle(false); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if strings.Contains(logs.String(), "deferred toggle not applied") {
		t.Fatalf("unexpected log while enforcing:\n%s", logs.String())
	}
}
