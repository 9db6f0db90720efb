package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML path and where it
// came from.
//
// Supported paths:
//
//	move_interval
//	move_retries
//	topmost_interval
//	toggle_hotkey
//	immediate_toggle
//	wait_for_window
//	keys.pos_x
//	keys.pos_y
//	keys.topmost
//	log_level
//	display
//	xauthority
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	switch path {
	case "move_interval":
		return cfg.MoveInterval.String(), nil
	case "move_retries":
		return cfg.MoveRetries, nil
	case "topmost_interval":
		return cfg.TopmostInterval.String(), nil
	case "toggle_hotkey":
		return cfg.ToggleHotkey, nil
	case "immediate_toggle":
		return cfg.ImmediateToggle, nil
	case "wait_for_window":
		return cfg.WaitForWindow.String(), nil
	case "keys":
		return cfg.Keys, nil
	case "keys.pos_x":
		return cfg.Keys.PosX, nil
	case "keys.pos_y":
		return cfg.Keys.PosY, nil
	case "keys.topmost":
		return cfg.Keys.Topmost, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "display":
		return cfg.Display, nil
	case "xauthority":
		return cfg.XAuthority, nil
	default:
		return nil, fmt.Errorf("unknown config path %q", path)
	}
}

// FormatSource renders src for humans.
func FormatSource(src Source) string {
	switch src.Kind {
	case SourceFile:
		return fmt.Sprintf("%s:%d:%d", src.File, src.Line, src.Column)
	default:
		return "default"
	}
}
