package window

import (
	"fmt"

	"github.com/1broseidon/winpin/internal/platform"
)

// EnumeratedWindow is one visible, titled top-level window and its owner.
type EnumeratedWindow struct {
	ID    platform.WindowID
	Title string
	// PID is 0 when the owning process could not be determined.
	PID     int
	Visible bool
}

// Locator finds top-level windows by owning process.
type Locator struct {
	backend platform.Backend
}

// NewLocator creates a locator over backend.
func NewLocator(backend platform.Backend) *Locator {
	return &Locator{backend: backend}
}

// EnumerateVisible returns every top-level window except the shell window,
// invisible windows and windows with an empty title, in host order.
// Minimized windows count as visible on every backend.
func (l *Locator) EnumerateVisible() ([]EnumeratedWindow, error) {
	all, err := l.backend.TopLevelWindows()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate windows: %w", err)
	}

	shell := l.backend.ShellWindow()
	out := make([]EnumeratedWindow, 0, len(all))
	for _, w := range all {
		if w.ID == platform.NullWindow || w.ID == shell || !w.Visible || len(w.Title) == 0 {
			continue
		}
		pid, err := l.backend.WindowPID(w.ID)
		if err != nil {
			pid = 0
		}
		out = append(out, EnumeratedWindow{
			ID:      w.ID,
			Title:   w.Title,
			PID:     pid,
			Visible: w.Visible,
		})
	}
	return out, nil
}

// FindByPID returns the first visible window owned by pid, or NullWindow.
// When a process owns several top-level windows the choice follows host
// enumeration order and is not guaranteed stable across calls.
func (l *Locator) FindByPID(pid int) platform.WindowID {
	if pid <= 0 {
		return platform.NullWindow
	}
	windows, err := l.EnumerateVisible()
	if err != nil {
		return platform.NullWindow
	}
	for _, w := range windows {
		if w.PID == pid {
			return w.ID
		}
	}
	return platform.NullWindow
}

// FindCurrent returns the window owned by this process.
func (l *Locator) FindCurrent() platform.WindowID {
	return l.FindByPID(l.backend.CurrentPID())
}
