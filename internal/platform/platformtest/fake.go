// Package platformtest provides a scriptable in-memory platform.Backend.
package platformtest

import (
	"fmt"
	"sync"

	"github.com/1broseidon/winpin/internal/platform"
)

// MoveCall records one MoveWindow invocation.
type MoveCall struct {
	ID      platform.WindowID
	X, Y    int
	Width   int
	Height  int
	Repaint bool
}

// ZOrderCall records one SetZOrder invocation.
type ZOrderCall struct {
	ID    platform.WindowID
	Order platform.ZOrder
	Flags platform.PosFlags
}

// Backend is a fake window system. The zero value is not usable; call New.
type Backend struct {
	mu sync.Mutex

	windows []platform.Window
	shell   platform.WindowID
	rects   map[platform.WindowID]platform.Rect
	pids    map[platform.WindowID]int
	zorder  map[platform.WindowID]platform.ZOrder
	pid     int

	// IgnoreMoves is the number of MoveWindow calls that succeed without
	// changing the rectangle before moves start taking effect. A negative
	// value means moves never take effect.
	IgnoreMoves int
	// MoveErr, ZOrderErr, EnumErr and RectErr are returned by the matching
	// calls when set. RectErr leaves the window enumerable.
	MoveErr   error
	ZOrderErr error
	EnumErr   error
	RectErr   error

	moves  []MoveCall
	zcalls []ZOrderCall
	seen   int
}

// New returns a fake whose current process id is pid.
func New(pid int) *Backend {
	return &Backend{
		rects:  make(map[platform.WindowID]platform.Rect),
		pids:   make(map[platform.WindowID]int),
		zorder: make(map[platform.WindowID]platform.ZOrder),
		pid:    pid,
	}
}

// AddWindow appends a window to the enumeration order.
func (b *Backend) AddWindow(id platform.WindowID, title string, visible bool, ownerPID int, r platform.Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.windows = append(b.windows, platform.Window{ID: id, Title: title, Visible: visible})
	b.pids[id] = ownerPID
	b.rects[id] = r
}

// RemoveWindow simulates id being destroyed.
func (b *Backend) RemoveWindow(id platform.WindowID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, w := range b.windows {
		if w.ID == id {
			b.windows = append(b.windows[:i], b.windows[i+1:]...)
			break
		}
	}
	delete(b.rects, id)
	delete(b.pids, id)
	delete(b.zorder, id)
}

// SetShell marks id as the shell/desktop window.
func (b *Backend) SetShell(id platform.WindowID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shell = id
}

// SetRect simulates an external agent moving or resizing a window.
func (b *Backend) SetRect(id platform.WindowID, r platform.Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rects[id] = r
}

// Rect returns the current rectangle of id.
func (b *Backend) Rect(id platform.WindowID) platform.Rect {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rects[id]
}

// ZOrderOf returns the last z-order applied to id.
func (b *Backend) ZOrderOf(id platform.WindowID) (platform.ZOrder, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	z, ok := b.zorder[id]
	return z, ok
}

// Moves returns a copy of all recorded MoveWindow calls.
func (b *Backend) Moves() []MoveCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]MoveCall(nil), b.moves...)
}

// ZOrderCalls returns a copy of all recorded SetZOrder calls.
func (b *Backend) ZOrderCalls() []ZOrderCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ZOrderCall(nil), b.zcalls...)
}

func (b *Backend) TopLevelWindows() ([]platform.Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.EnumErr != nil {
		return nil, b.EnumErr
	}
	return append([]platform.Window(nil), b.windows...), nil
}

func (b *Backend) ShellWindow() platform.WindowID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shell
}

func (b *Backend) WindowRect(id platform.WindowID) (platform.Rect, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id == platform.NullWindow {
		return platform.Rect{}, platform.ErrNullWindow
	}
	if b.RectErr != nil {
		return platform.Rect{}, b.RectErr
	}
	r, ok := b.rects[id]
	if !ok {
		return platform.Rect{}, fmt.Errorf("window %d: no such window", id)
	}
	return r, nil
}

func (b *Backend) MoveWindow(id platform.WindowID, x, y, width, height int, repaint bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id == platform.NullWindow {
		return platform.ErrNullWindow
	}
	b.moves = append(b.moves, MoveCall{ID: id, X: x, Y: y, Width: width, Height: height, Repaint: repaint})
	if b.MoveErr != nil {
		return b.MoveErr
	}
	if _, ok := b.rects[id]; !ok {
		return fmt.Errorf("window %d: no such window", id)
	}
	b.seen++
	if b.IgnoreMoves < 0 || b.seen <= b.IgnoreMoves {
		return nil
	}
	b.rects[id] = platform.Rect{Left: x, Top: y, Right: x + width, Bottom: y + height}
	return nil
}

func (b *Backend) SetZOrder(id platform.WindowID, order platform.ZOrder, flags platform.PosFlags) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id == platform.NullWindow {
		return platform.ErrNullWindow
	}
	b.zcalls = append(b.zcalls, ZOrderCall{ID: id, Order: order, Flags: flags})
	if b.ZOrderErr != nil {
		return b.ZOrderErr
	}
	b.zorder[id] = order
	return nil
}

func (b *Backend) WindowPID(id platform.WindowID) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id == platform.NullWindow {
		return 0, platform.ErrNullWindow
	}
	pid, ok := b.pids[id]
	if !ok {
		return 0, fmt.Errorf("window %d: no such window", id)
	}
	return pid, nil
}

func (b *Backend) CurrentPID() int {
	return b.pid
}

var _ platform.Backend = (*Backend)(nil)
