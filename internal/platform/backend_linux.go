//go:build linux

package platform

import (
	"fmt"
	"os"

	"github.com/1broseidon/winpin/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxBackend wraps an X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Native = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay opens a fresh X11 connection to display ("" for
// $DISPLAY).
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// NewNative opens the native backend for this platform. display selects the
// X server; empty means $DISPLAY.
func NewNative(display string) (Native, error) {
	return NewLinuxBackendFromDisplay(display)
}

// Disconnect stops the event loop and closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// TopLevelWindows lists client windows in window-manager order.
func (b *LinuxBackend) TopLevelWindows() ([]Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := conn.ClientWindows()
	if err != nil {
		return nil, err
	}

	windows := make([]Window, 0, len(clients))
	for _, win := range clients {
		windows = append(windows, Window{
			ID:      WindowID(win),
			Title:   conn.WindowTitle(win),
			Visible: conn.IsViewable(win),
		})
	}
	return windows, nil
}

// ShellWindow returns the desktop window (or the root window).
func (b *LinuxBackend) ShellWindow() WindowID {
	conn, err := b.connection()
	if err != nil {
		return NullWindow
	}
	return WindowID(conn.DesktopWindow())
}

// WindowRect returns the outer frame rectangle of a window.
func (b *LinuxBackend) WindowRect(id WindowID) (Rect, error) {
	conn, err := b.window(id)
	if err != nil {
		return Rect{}, err
	}

	x, y, w, h, err := conn.FrameGeometry(xproto.Window(id))
	if err != nil {
		return Rect{}, err
	}
	return Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}, nil
}

// MoveWindow places the outer frame at (x, y) with the given outer size. X11
// has no repaint option; the server always sends Expose as needed.
func (b *LinuxBackend) MoveWindow(id WindowID, x, y, width, height int, repaint bool) error {
	conn, err := b.window(id)
	if err != nil {
		return err
	}
	return conn.MoveResizeFrame(xproto.Window(id), x, y, width, height)
}

// SetZOrder toggles _NET_WM_STATE_ABOVE. The EWMH state request never moves
// or resizes, so flags are always satisfied.
func (b *LinuxBackend) SetZOrder(id WindowID, order ZOrder, flags PosFlags) error {
	conn, err := b.window(id)
	if err != nil {
		return err
	}
	switch order {
	case ZOrderTopmost:
		return conn.SetAbove(xproto.Window(id), true)
	case ZOrderNoTopmost:
		return conn.SetAbove(xproto.Window(id), false)
	default:
		return fmt.Errorf("unknown z-order %d", order)
	}
}

// WindowPID returns the owning process id from _NET_WM_PID.
func (b *LinuxBackend) WindowPID(id WindowID) (int, error) {
	conn, err := b.window(id)
	if err != nil {
		return 0, err
	}
	return conn.WindowPID(xproto.Window(id))
}

// CurrentPID returns the id of this process.
func (b *LinuxBackend) CurrentPID() int {
	return os.Getpid()
}

func (b *LinuxBackend) window(id WindowID) (*x11.Connection, error) {
	if id == NullWindow {
		return nil, ErrNullWindow
	}
	return b.connection()
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}
