package hotkeys

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/1broseidon/winpin/internal/platform"
	"github.com/1broseidon/winpin/internal/window"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Toggler flips the pinned state of the managed window.
type Toggler interface {
	Toggle(immediate bool) (window.ZState, error)
}

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	toggler Toggler
	logger  *slog.Logger
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler. Backends without X11 access yield a
// handler whose Register calls fail.
func NewHandler(backend platform.Backend, toggler Toggler, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var xu *xgbutil.XUtil
	var root xproto.Window
	if accessor, ok := backend.(x11Accessor); ok {
		xu = accessor.XUtil()
		root = accessor.RootWindow()
	}

	if xu != nil {
		ignoreModsOnce.Do(func() {
			configureIgnoreMods(xu)
		})
	}

	return &Handler{
		xu:      xu,
		root:    root,
		toggler: toggler,
		logger:  logger,
	}
}

// RegisterToggle binds keySequence (e.g. "Mod4-t") to a z-order toggle.
func (h *Handler) RegisterToggle(keySequence string, immediate bool) error {
	if err := h.RegisterFunc(keySequence, h.toggleFunc(immediate)); err != nil {
		return fmt.Errorf("failed to register toggle hotkey %q: %w", keySequence, err)
	}
	return nil
}

func (h *Handler) toggleFunc(immediate bool) func() {
	return func() {
		state, err := h.toggler.Toggle(immediate)
		if err != nil {
			h.logger.Warn("toggle hotkey failed", "error", err)
			return
		}
		h.logger.Info("toggle hotkey triggered", "state", state, "immediate", immediate)
	}
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	if h.xu == nil {
		return fmt.Errorf("global hotkeys need an X11 backend")
	}
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)
	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	xevent.IgnoreMods = ignoreMasks(caps, numLock, scrollLock)
}

// ignoreMasks returns every combination of the distinct non-zero lock
// masks, including the empty one.
func ignoreMasks(locks ...uint16) []uint16 {
	var base []uint16
	for _, mask := range locks {
		if mask == 0 {
			continue
		}
		dup := false
		for _, b := range base {
			if b == mask {
				dup = true
				break
			}
		}
		if !dup {
			base = append(base, mask)
		}
	}

	masks := make([]uint16, 0, 1<<len(base))
	for subset := 0; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		masks = append(masks, mask)
	}
	return masks
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
