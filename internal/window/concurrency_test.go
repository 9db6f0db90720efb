package window

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/1broseidon/winpin/internal/platform"
	"github.com/1broseidon/winpin/internal/platform/platformtest"
	"github.com/1broseidon/winpin/internal/timer"
)

// gatedZOrder blocks the first SetZOrder(Topmost) until release is closed.
type gatedZOrder struct {
	*platformtest.Backend
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedZOrder) SetZOrder(id platform.WindowID, order platform.ZOrder, flags platform.PosFlags) error {
	if order == platform.ZOrderTopmost {
		first := false
		g.once.Do(func() { first = true })
		if first {
			close(g.entered)
			<-g.release
		}
	}
	return g.Backend.SetZOrder(id, order, flags)
}

func TestTopmost_InFlightTickCannotOverrideUnpin(t *testing.T) {
	fake := platformtest.New(1)
	fake.AddWindow(10, "Kiosk", true, 1, platform.Rect{Right: 800, Bottom: 600})
	g := &gatedZOrder{Backend: fake, entered: make(chan struct{}), release: make(chan struct{})}
	tm := NewTopmost(g, timer.NewTickerClock(nil), nil)

	tm.StartEnforcement(10, time.Millisecond, PinnedAbove)
	select {
	case <-g.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("enforcement tick never reached the backend")
	}

	// Same sequence as Control.RequestTopmost(false).
	done := make(chan error, 1)
	go func() {
		tm.StopEnforcement()
		done <- tm.SetState(10, PinnedBelowNormal)
	}()
	time.Sleep(20 * time.Millisecond)
	close(g.release)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("SetState: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("unpin did not complete")
	}
	time.Sleep(20 * time.Millisecond)

	if tm.Enforcing() || tm.State() != PinnedBelowNormal {
		t.Fatalf("controller state=%s enforcing=%v", tm.State(), tm.Enforcing())
	}
	if z, _ := fake.ZOrderOf(10); z != platform.ZOrderNoTopmost {
		t.Fatalf("window z-order = %s after unpin, want no-topmost", z)
	}
}

// overlapBackend counts calls of one kind that start while another of the
// same kind is still running. Moves block on moveGate.
type overlapBackend struct {
	*platformtest.Backend
	moveGate chan struct{}
	moveBusy atomic.Int32
	zBusy    atomic.Int32
	zDone    atomic.Int32
	overlaps atomic.Int32
}

func (b *overlapBackend) MoveWindow(id platform.WindowID, x, y, width, height int, repaint bool) error {
	if b.moveBusy.Add(1) > 1 {
		b.overlaps.Add(1)
	}
	defer b.moveBusy.Add(-1)
	<-b.moveGate
	return b.Backend.MoveWindow(id, x, y, width, height, repaint)
}

func (b *overlapBackend) SetZOrder(id platform.WindowID, order platform.ZOrder, flags platform.PosFlags) error {
	if b.zBusy.Add(1) > 1 {
		b.overlaps.Add(1)
	}
	defer b.zBusy.Add(-1)
	time.Sleep(100 * time.Microsecond)
	defer b.zDone.Add(1)
	return b.Backend.SetZOrder(id, order, flags)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestMoverAndTopmost_IndependentTimersOnTickerClock(t *testing.T) {
	fake := platformtest.New(1)
	fake.AddWindow(10, "Kiosk", true, 1, platform.Rect{Right: 800, Bottom: 600})
	fake.IgnoreMoves = -1
	b := &overlapBackend{Backend: fake, moveGate: make(chan struct{})}
	clock := timer.NewTickerClock(nil)

	m := NewMover(b, clock, nil)
	tm := NewTopmost(b, clock, nil)
	m.Start(10, 100, 50, time.Millisecond, Unbounded())
	tm.StartEnforcement(10, time.Millisecond, PinnedAbove)

	// The mover is stuck inside its first move; enforcement keeps going.
	waitFor(t, "z-order ticks while a move is blocked", func() bool { return b.zDone.Load() >= 10 })
	if n := len(fake.Moves()); n != 0 {
		t.Fatalf("moves completed while gated: %d", n)
	}

	close(b.moveGate)
	waitFor(t, "moves after release", func() bool { return len(fake.Moves()) >= 5 })

	m.Cancel()
	tm.StopEnforcement()

	if n := b.overlaps.Load(); n != 0 {
		t.Fatalf("%d ticks overlapped a tick of the same timer", n)
	}
	if z, _ := fake.ZOrderOf(10); z != platform.ZOrderTopmost {
		t.Fatalf("z-order = %s, want topmost", z)
	}
}
