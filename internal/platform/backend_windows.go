//go:build windows

package platform

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	swpNoSize     = 0x0001
	swpNoMove     = 0x0002
	swpNoActivate = 0x0010

	hwndTopmost   = ^uintptr(0) // (HWND)-1
	hwndNoTopmost = ^uintptr(1) // (HWND)-2
)

type rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procEnumWindows              = user32.NewProc("EnumWindows")
	procGetShellWindow           = user32.NewProc("GetShellWindow")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procMoveWindow               = user32.NewProc("MoveWindow")
	procSetWindowPos             = user32.NewProc("SetWindowPos")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
)

var (
	enumMu       sync.Mutex
	enumFound    []WindowID
	enumCallback uintptr
	enumOnce     sync.Once
)

func enumWindowsProc(hwnd uintptr, _ uintptr) uintptr {
	enumFound = append(enumFound, WindowID(hwnd))
	return 1 // continue enumeration
}

// WindowsBackend calls user32 directly.
type WindowsBackend struct{}

var _ Native = (*WindowsBackend)(nil)

// NewNative opens the native backend for this platform. There is one
// desktop per session, so display is ignored.
func NewNative(display string) (Native, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("failed to load user32.dll: %w", err)
	}
	return &WindowsBackend{}, nil
}

// EventLoop returns immediately; user32 calls need no message pump here.
func (b *WindowsBackend) EventLoop() {}

// Disconnect is a no-op.
func (b *WindowsBackend) Disconnect() {}

// TopLevelWindows enumerates every top-level window in EnumWindows order.
func (b *WindowsBackend) TopLevelWindows() ([]Window, error) {
	enumOnce.Do(func() {
		enumCallback = windows.NewCallback(enumWindowsProc)
	})

	enumMu.Lock()
	enumFound = nil
	ret, _, callErr := procEnumWindows.Call(enumCallback, 0)
	handles := make([]WindowID, len(enumFound))
	copy(handles, enumFound)
	enumMu.Unlock()

	if ret == 0 {
		return nil, fmt.Errorf("EnumWindows failed: %w", callErr)
	}

	out := make([]Window, 0, len(handles))
	for _, id := range handles {
		visible, _, _ := procIsWindowVisible.Call(uintptr(id))
		out = append(out, Window{
			ID:      id,
			Title:   windowText(uintptr(id)),
			Visible: visible != 0,
		})
	}
	return out, nil
}

// ShellWindow returns GetShellWindow().
func (b *WindowsBackend) ShellWindow() WindowID {
	hwnd, _, _ := procGetShellWindow.Call()
	return WindowID(hwnd)
}

// WindowRect returns GetWindowRect.
func (b *WindowsBackend) WindowRect(id WindowID) (Rect, error) {
	if id == NullWindow {
		return Rect{}, ErrNullWindow
	}
	var r rect
	ret, _, err := procGetWindowRect.Call(uintptr(id), uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return Rect{}, fmt.Errorf("GetWindowRect failed: %w", err)
	}
	return Rect{Left: int(r.Left), Top: int(r.Top), Right: int(r.Right), Bottom: int(r.Bottom)}, nil
}

// MoveWindow calls MoveWindow.
func (b *WindowsBackend) MoveWindow(id WindowID, x, y, width, height int, repaint bool) error {
	if id == NullWindow {
		return ErrNullWindow
	}
	var bRepaint uintptr
	if repaint {
		bRepaint = 1
	}
	ret, _, err := procMoveWindow.Call(
		uintptr(id),
		uintptr(int32(x)),
		uintptr(int32(y)),
		uintptr(int32(width)),
		uintptr(int32(height)),
		bRepaint,
	)
	if ret == 0 {
		return fmt.Errorf("MoveWindow failed: %w", err)
	}
	return nil
}

// SetZOrder calls SetWindowPos with HWND_TOPMOST or HWND_NOTOPMOST.
func (b *WindowsBackend) SetZOrder(id WindowID, order ZOrder, flags PosFlags) error {
	if id == NullWindow {
		return ErrNullWindow
	}

	var after uintptr
	switch order {
	case ZOrderTopmost:
		after = hwndTopmost
	case ZOrderNoTopmost:
		after = hwndNoTopmost
	default:
		return fmt.Errorf("unknown z-order %d", order)
	}

	swp := uintptr(swpNoActivate)
	if flags.Has(NoSize) {
		swp |= swpNoSize
	}
	if flags.Has(NoMove) {
		swp |= swpNoMove
	}

	ret, _, err := procSetWindowPos.Call(uintptr(id), after, 0, 0, 0, 0, swp)
	if ret == 0 {
		return fmt.Errorf("SetWindowPos failed: %w", err)
	}
	return nil
}

// WindowPID calls GetWindowThreadProcessId.
func (b *WindowsBackend) WindowPID(id WindowID) (int, error) {
	if id == NullWindow {
		return 0, ErrNullWindow
	}
	var pid uint32
	ret, _, err := procGetWindowThreadProcessId.Call(uintptr(id), uintptr(unsafe.Pointer(&pid)))
	if ret == 0 {
		return 0, fmt.Errorf("GetWindowThreadProcessId failed: %w", err)
	}
	return int(pid), nil
}

// CurrentPID returns GetCurrentProcessId().
func (b *WindowsBackend) CurrentPID() int {
	return int(windows.GetCurrentProcessId())
}

func windowText(hwnd uintptr) string {
	length, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if length == 0 {
		return ""
	}
	buf := make([]uint16, length+1)
	procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf)
}
