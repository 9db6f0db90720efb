package config

import "time"

// RawConfig mirrors the YAML file with every field optional so that absent
// values fall back to defaults rather than zero values.
type RawConfig struct {
	MoveInterval    *time.Duration `yaml:"move_interval"`
	MoveRetries     *int           `yaml:"move_retries"`
	TopmostInterval *time.Duration `yaml:"topmost_interval"`
	ToggleHotkey    *string        `yaml:"toggle_hotkey"`
	ImmediateToggle *bool          `yaml:"immediate_toggle"`
	WaitForWindow   *time.Duration `yaml:"wait_for_window"`
	Keys            *RawKeys       `yaml:"keys"`
	LogLevel        *string        `yaml:"log_level"`
	Display         *string        `yaml:"display"`
	XAuthority      *string        `yaml:"xauthority"`
}

type RawKeys struct {
	PosX    *string `yaml:"pos_x"`
	PosY    *string `yaml:"pos_y"`
	Topmost *string `yaml:"topmost"`
}

// merge overlays non-nil fields of overlay onto c.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	if overlay.MoveInterval != nil {
		out.MoveInterval = overlay.MoveInterval
	}
	if overlay.MoveRetries != nil {
		out.MoveRetries = overlay.MoveRetries
	}
	if overlay.TopmostInterval != nil {
		out.TopmostInterval = overlay.TopmostInterval
	}
	if overlay.ToggleHotkey != nil {
		out.ToggleHotkey = overlay.ToggleHotkey
	}
	if overlay.ImmediateToggle != nil {
		out.ImmediateToggle = overlay.ImmediateToggle
	}
	if overlay.WaitForWindow != nil {
		out.WaitForWindow = overlay.WaitForWindow
	}
	if overlay.Keys != nil {
		keys := RawKeys{}
		if out.Keys != nil {
			keys = *out.Keys
		}
		if overlay.Keys.PosX != nil {
			keys.PosX = overlay.Keys.PosX
		}
		if overlay.Keys.PosY != nil {
			keys.PosY = overlay.Keys.PosY
		}
		if overlay.Keys.Topmost != nil {
			keys.Topmost = overlay.Keys.Topmost
		}
		out.Keys = &keys
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.XAuthority != nil {
		out.XAuthority = overlay.XAuthority
	}
	return out
}
