package x11

import (
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection holds an X11 connection and the root window of its default
// screen.
type Connection struct {
	XUtil   *xgbutil.XUtil
	Root    xproto.Window
	Display string

	closeOnce sync.Once
}

// NewConnection opens display, or $DISPLAY when display is empty. The keybind
// module is initialised so the toggle hotkey can grab keys.
func NewConnection(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		if display == "" {
			display = os.Getenv("DISPLAY")
		}
		return nil, fmt.Errorf("open display %q: %w", display, err)
	}
	keybind.Initialize(xu)

	return &Connection{
		XUtil:   xu,
		Root:    xu.RootWin(),
		Display: display,
	}, nil
}

// EventLoop dispatches X events until Close.
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Close stops the event loop and disconnects. Calling it again is a no-op.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		xevent.Quit(c.XUtil)
		c.XUtil.Conn().Close()
	})
}
