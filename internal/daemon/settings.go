package daemon

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/1broseidon/winpin/internal/cliargs"
	"github.com/1broseidon/winpin/internal/config"
	"github.com/1broseidon/winpin/internal/window"
)

// Settings are the window settings supplied at startup. A nil field was not
// supplied.
type Settings struct {
	X       *int
	Y       *int
	Topmost *bool
}

// HasPosition reports whether either axis was supplied.
func (s Settings) HasPosition() bool {
	return s.X != nil || s.Y != nil
}

// Pinned reports whether topmost was requested.
func (s Settings) Pinned() bool {
	return s.Topmost != nil && *s.Topmost
}

// ArgKeys maps the configured key names onto argument names.
func ArgKeys(cfg *config.Config) cliargs.Keys {
	keys := cliargs.DefaultKeys()
	if cfg == nil {
		return keys
	}
	if cfg.Keys.PosX != "" {
		keys.PosX = cfg.Keys.PosX
	}
	if cfg.Keys.PosY != "" {
		keys.PosY = cfg.Keys.PosY
	}
	if cfg.Keys.Topmost != "" {
		keys.Topmost = cfg.Keys.Topmost
	}
	return keys
}

// SettingsFromArgs reads the window settings out of parsed arguments.
func SettingsFromArgs(args *cliargs.Args, keys cliargs.Keys) Settings {
	var s Settings
	if v, ok := args.GetInt(keys.PosX); ok {
		s.X = &v
	}
	if v, ok := args.GetInt(keys.PosY); ok {
		s.Y = &v
	}
	if v, ok := args.GetBool(keys.Topmost); ok {
		s.Topmost = &v
	}
	return s
}

// Applier is the part of the window controller that startup settings drive.
type Applier interface {
	Target(x, y *int) (int, int, error)
	RequestMove(x, y int, interval time.Duration, budget window.Budget)
	MoveOnce(x, y int) error
	RequestTopmost(enable bool) error
}

// Apply pushes startup settings onto ctl. A position is retried only when
// the window is also pinned; otherwise it gets a single move. Without
// topmost the window is never pinned.
func Apply(ctl Applier, s Settings, cfg *config.Config, logger *slog.Logger) error {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var errs []error
	pinned := s.Pinned()

	if s.HasPosition() {
		x, y, err := ctl.Target(s.X, s.Y)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("failed to resolve start position: %w", err))
		case pinned:
			ctl.RequestMove(x, y, cfg.MoveInterval, window.BudgetFromCount(cfg.MoveRetries))
			logger.Info("retrying move", "x", x, "y", y, "interval", cfg.MoveInterval, "retries", cfg.MoveRetries)
		default:
			if err := ctl.MoveOnce(x, y); err != nil {
				errs = append(errs, fmt.Errorf("failed to move window: %w", err))
			} else {
				logger.Info("moved window", "x", x, "y", y)
			}
		}
	}

	if pinned {
		if err := ctl.RequestTopmost(true); err != nil {
			errs = append(errs, fmt.Errorf("failed to pin window: %w", err))
		} else {
			logger.Info("window pinned above others", "interval", cfg.TopmostInterval)
		}
	}

	return errors.Join(errs...)
}
