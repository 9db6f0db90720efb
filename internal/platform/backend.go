package platform

import "errors"

// WindowID is a platform-neutral top-level window handle. It is borrowed
// from the window system and only valid while the window exists.
type WindowID uint64

// NullWindow is the "not found" handle.
const NullWindow WindowID = 0

// ErrNullWindow is returned by every Backend method that is given NullWindow.
var ErrNullWindow = errors.New("null window handle")

// Rect describes a window rectangle in desktop coordinates.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Width returns Right-Left.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns Bottom-Top.
func (r Rect) Height() int { return r.Bottom - r.Top }

// Window is one entry of a top-level window enumeration.
type Window struct {
	ID      WindowID
	Title   string
	Visible bool
}

// ZOrder selects the z-order band a window is placed into.
type ZOrder int

const (
	// ZOrderTopmost pins the window above all non-topmost windows.
	ZOrderTopmost ZOrder = iota
	// ZOrderNoTopmost places the window back among normal windows.
	ZOrderNoTopmost
)

func (z ZOrder) String() string {
	switch z {
	case ZOrderTopmost:
		return "topmost"
	case ZOrderNoTopmost:
		return "no-topmost"
	default:
		return "unknown"
	}
}

// PosFlags modify a z-order change.
type PosFlags uint32

const (
	// NoSize keeps the current window size.
	NoSize PosFlags = 1 << iota
	// NoMove keeps the current window position.
	NoMove
)

// Has reports whether all bits of f2 are set in f.
func (f PosFlags) Has(f2 PosFlags) bool { return f&f2 == f2 }

// Backend abstracts the window-system primitives winpin needs.
type Backend interface {
	TopLevelWindows() ([]Window, error)
	ShellWindow() WindowID
	WindowRect(id WindowID) (Rect, error)
	MoveWindow(id WindowID, x, y, width, height int, repaint bool) error
	SetZOrder(id WindowID, order ZOrder, flags PosFlags) error
	WindowPID(id WindowID) (int, error)
	CurrentPID() int
}

// Native is a Backend bound to a live display connection.
type Native interface {
	Backend
	// EventLoop dispatches window-system events until Disconnect. Backends
	// without an event queue return immediately.
	EventLoop()
	Disconnect()
}
