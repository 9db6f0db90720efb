package daemon

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/winpin/internal/platform"
	"github.com/1broseidon/winpin/internal/platform/platformtest"
	"github.com/1broseidon/winpin/internal/window"
)

func fastPoll(t *testing.T) {
	t.Helper()
	prev := windowPollInterval
	windowPollInterval = 5 * time.Millisecond
	t.Cleanup(func() { windowPollInterval = prev })
}

func TestWaitForWindow_AlreadyPresent(t *testing.T) {
	fake := platformtest.New(1)
	fake.AddWindow(9, "App", true, 77, platform.Rect{Right: 10, Bottom: 10})

	id, err := WaitForWindow(context.Background(), window.NewLocator(fake), 77, 0)
	if err != nil || id != 9 {
		t.Fatalf("WaitForWindow = (%d, %v), want (9, nil)", id, err)
	}
}

func TestWaitForWindow_AppearsLater(t *testing.T) {
	fastPoll(t)
	fake := platformtest.New(1)

	go func() {
		time.Sleep(20 * time.Millisecond)
		fake.AddWindow(9, "App", true, 77, platform.Rect{Right: 10, Bottom: 10})
	}()

	id, err := WaitForWindow(context.Background(), window.NewLocator(fake), 77, 2*time.Second)
	if err != nil || id != 9 {
		t.Fatalf("WaitForWindow = (%d, %v), want (9, nil)", id, err)
	}
}

func TestWaitForWindow_Timeout(t *testing.T) {
	fastPoll(t)
	fake := platformtest.New(1)
	fake.AddWindow(9, "Hidden", false, 77, platform.Rect{Right: 10, Bottom: 10})

	id, err := WaitForWindow(context.Background(), window.NewLocator(fake), 77, 20*time.Millisecond)
	if id != platform.NullWindow {
		t.Fatalf("id = %d, want NullWindow", id)
	}
	if err == nil || !strings.Contains(err.Error(), "timeout waiting") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestWaitForWindow_Cancelled(t *testing.T) {
	fastPoll(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WaitForWindow(ctx, window.NewLocator(platformtest.New(1)), 77, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
