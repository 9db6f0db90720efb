package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

const (
	stateRemove = 0
	stateAdd    = 1

	stateAbove  = "_NET_WM_STATE_ABOVE"
	stateHidden = "_NET_WM_STATE_HIDDEN"
	typeDesktop = "_NET_WM_WINDOW_TYPE_DESKTOP"
)

// ClientWindows returns the top-level windows known to the window manager in
// _NET_CLIENT_LIST order. Without an EWMH window manager it falls back to the
// children of the root window.
func (c *Connection) ClientWindows() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err == nil && len(clients) > 0 {
		return clients, nil
	}

	tree, treeErr := xproto.QueryTree(c.XUtil.Conn(), c.Root).Reply()
	if treeErr != nil {
		if err != nil {
			return nil, fmt.Errorf("failed to get client list: %w", err)
		}
		return nil, fmt.Errorf("failed to query root window tree: %w", treeErr)
	}
	return tree.Children, nil
}

// DesktopWindow returns the window drawing the desktop background, or the
// root window when no client advertises _NET_WM_WINDOW_TYPE_DESKTOP.
func (c *Connection) DesktopWindow() xproto.Window {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return c.Root
	}
	for _, win := range clients {
		types, err := ewmh.WmWindowTypeGet(c.XUtil, win)
		if err != nil {
			continue
		}
		for _, t := range types {
			if t == typeDesktop {
				return win
			}
		}
	}
	return c.Root
}

// IsViewable reports whether a window is shown, counting minimized windows
// as shown the way Win32 IsWindowVisible does. Withdrawn windows are not.
func (c *Connection) IsViewable(windowID xproto.Window) bool {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	if err != nil {
		return false
	}
	if attrs.MapState == xproto.MapStateViewable {
		return true
	}
	iconic := false
	if st, err := icccm.WmStateGet(c.XUtil, windowID); err == nil && st != nil {
		iconic = st.State == icccm.StateIconic
	}
	return shown(attrs.MapState, iconic, c.hasState(windowID, stateHidden))
}

// shown decides visibility from the map state and the minimized hints.
func shown(mapState byte, iconic, hidden bool) bool {
	return mapState == xproto.MapStateViewable || iconic || hidden
}

// WindowTitle returns _NET_WM_NAME, falling back to WM_NAME.
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// WindowPID returns the _NET_WM_PID of a window.
func (c *Connection) WindowPID(windowID xproto.Window) (int, error) {
	pid, err := ewmh.WmPidGet(c.XUtil, windowID)
	if err != nil {
		return 0, fmt.Errorf("failed to get _NET_WM_PID: %w", err)
	}
	return int(pid), nil
}

// FrameGeometry returns the outer (decorated) geometry of a window in root
// coordinates.
func (c *Connection) FrameGeometry(windowID xproto.Window) (x, y, width, height int, err error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to get geometry: %w", err)
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to translate coordinates: %w", err)
	}

	left, right, top, bottom := c.FrameExtents(windowID)
	return int(translate.DstX) - left,
		int(translate.DstY) - top,
		int(geom.Width) + left + right,
		int(geom.Height) + top + bottom,
		nil
}

// FrameExtents returns the window decoration sizes, or zeros when the window
// manager does not publish _NET_FRAME_EXTENTS.
func (c *Connection) FrameExtents(windowID xproto.Window) (left, right, top, bottom int) {
	extents, err := ewmh.FrameExtentsGet(c.XUtil, windowID)
	if err != nil {
		return 0, 0, 0, 0
	}
	return int(extents.Left), int(extents.Right), int(extents.Top), int(extents.Bottom)
}

// MoveResizeFrame places a window so that its outer frame occupies the given
// geometry.
func (c *Connection) MoveResizeFrame(windowID xproto.Window, x, y, width, height int) error {
	left, right, top, bottom := c.FrameExtents(windowID)
	clientWidth := width - left - right
	clientHeight := height - top - bottom
	if clientWidth < 1 || clientHeight < 1 {
		return fmt.Errorf("invalid client size %dx%d", clientWidth, clientHeight)
	}

	// A maximized window ignores move requests on most window managers.
	c.unmaximizeWindow(windowID)

	// NorthWest gravity: x/y address the frame origin.
	if err := ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, clientWidth, clientHeight); err != nil {
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, clientWidth, clientHeight)
	}
	return nil
}

// SetAbove adds or removes _NET_WM_STATE_ABOVE. The request never changes
// the window geometry.
func (c *Connection) SetAbove(windowID xproto.Window, above bool) error {
	action := stateRemove
	if above {
		action = stateAdd
	}
	if err := ewmh.WmStateReq(c.XUtil, windowID, action, stateAbove); err != nil {
		return fmt.Errorf("failed to request %s: %w", stateAbove, err)
	}
	return nil
}

// unmaximizeWindow removes maximized state from a window
func (c *Connection) unmaximizeWindow(windowID xproto.Window) {
	if c.hasState(windowID, "_NET_WM_STATE_MAXIMIZED_HORZ") {
		ewmh.WmStateReq(c.XUtil, windowID, stateRemove, "_NET_WM_STATE_MAXIMIZED_HORZ")
	}
	if c.hasState(windowID, "_NET_WM_STATE_MAXIMIZED_VERT") {
		ewmh.WmStateReq(c.XUtil, windowID, stateRemove, "_NET_WM_STATE_MAXIMIZED_VERT")
	}
}

func (c *Connection) hasState(windowID xproto.Window, name string) bool {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, state := range states {
		if state == name {
			return true
		}
	}
	return false
}
