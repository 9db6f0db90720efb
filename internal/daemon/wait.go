package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/1broseidon/winpin/internal/platform"
	"github.com/1broseidon/winpin/internal/window"
)

var windowPollInterval = 150 * time.Millisecond

// WaitForWindow polls until pid owns a visible top-level window. It returns
// NullWindow and an error when timeout elapses first or ctx is cancelled. A
// zero timeout checks once.
func WaitForWindow(ctx context.Context, locator *window.Locator, pid int, timeout time.Duration) (platform.WindowID, error) {
	deadline := time.Now().Add(timeout)

	ticker := time.NewTicker(windowPollInterval)
	defer ticker.Stop()

	for {
		if id := locator.FindByPID(pid); id != platform.NullWindow {
			return id, nil
		}

		if !time.Now().Before(deadline) {
			return platform.NullWindow, fmt.Errorf("timeout waiting for a window owned by pid %d after %s", pid, timeout)
		}

		select {
		case <-ctx.Done():
			return platform.NullWindow, ctx.Err()
		case <-ticker.C:
		}
	}
}
