package config

import (
	"fmt"
	"strings"
)

// ValidationError ties a validation failure to a YAML path and, when known,
// the file position that set it.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig applies raw on top of DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.MoveInterval != nil {
		cfg.MoveInterval = *raw.MoveInterval
	}
	if raw.MoveRetries != nil {
		cfg.MoveRetries = *raw.MoveRetries
	}
	if raw.TopmostInterval != nil {
		cfg.TopmostInterval = *raw.TopmostInterval
	}
	if raw.ToggleHotkey != nil {
		cfg.ToggleHotkey = strings.TrimSpace(*raw.ToggleHotkey)
	}
	if raw.ImmediateToggle != nil {
		cfg.ImmediateToggle = *raw.ImmediateToggle
	}
	if raw.WaitForWindow != nil {
		cfg.WaitForWindow = *raw.WaitForWindow
	}
	if raw.Keys != nil {
		if raw.Keys.PosX != nil {
			cfg.Keys.PosX = strings.TrimSpace(*raw.Keys.PosX)
		}
		if raw.Keys.PosY != nil {
			cfg.Keys.PosY = strings.TrimSpace(*raw.Keys.PosY)
		}
		if raw.Keys.Topmost != nil {
			cfg.Keys.Topmost = strings.TrimSpace(*raw.Keys.Topmost)
		}
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}

	return cfg
}
