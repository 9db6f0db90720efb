package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMoveInterval    = time.Second
	DefaultMoveRetries     = 60
	DefaultTopmostInterval = time.Second
	DefaultWaitForWindow   = 10 * time.Second
)

// Keys names the startup arguments that carry window settings.
type Keys struct {
	PosX    string `yaml:"pos_x"`
	PosY    string `yaml:"pos_y"`
	Topmost string `yaml:"topmost"`
}

// Config holds the application configuration.
type Config struct {
	// MoveInterval is the delay between move retries.
	MoveInterval time.Duration `yaml:"move_interval"`
	// MoveRetries is the retry budget for a pinned move; -1 retries forever.
	MoveRetries int `yaml:"move_retries"`
	// TopmostInterval is the z-order re-assertion period.
	TopmostInterval time.Duration `yaml:"topmost_interval"`
	// ToggleHotkey flips the pinned state, e.g. "Mod4-t". Empty disables it.
	ToggleHotkey    string        `yaml:"toggle_hotkey"`
	ImmediateToggle bool          `yaml:"immediate_toggle"`
	WaitForWindow   time.Duration `yaml:"wait_for_window"`
	Keys            Keys          `yaml:"keys"`
	LogLevel        string        `yaml:"log_level"`
	Display         string        `yaml:"display,omitempty"`
	XAuthority      string        `yaml:"xauthority,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		MoveInterval:    DefaultMoveInterval,
		MoveRetries:     DefaultMoveRetries,
		TopmostInterval: DefaultTopmostInterval,
		ToggleHotkey:    "",
		ImmediateToggle: true,
		WaitForWindow:   DefaultWaitForWindow,
		Keys: Keys{
			PosX:    "pos-x",
			PosY:    "pos-y",
			Topmost: "topmost",
		},
		LogLevel: "info",
	}
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "winpin", "config.yaml"), nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if c.MoveInterval <= 0 {
		return &ValidationError{Path: "move_interval", Err: fmt.Errorf("move_interval must be > 0")}
	}
	if c.MoveRetries < -1 {
		return &ValidationError{Path: "move_retries", Err: fmt.Errorf("move_retries must be >= -1 (-1 retries forever)")}
	}
	if c.TopmostInterval <= 0 {
		return &ValidationError{Path: "topmost_interval", Err: fmt.Errorf("topmost_interval must be > 0")}
	}
	if c.WaitForWindow < 0 {
		return &ValidationError{Path: "wait_for_window", Err: fmt.Errorf("wait_for_window must be >= 0")}
	}

	keys := map[string]string{
		"keys.pos_x":   c.Keys.PosX,
		"keys.pos_y":   c.Keys.PosY,
		"keys.topmost": c.Keys.Topmost,
	}
	seen := make(map[string]string, len(keys))
	for _, path := range []string{"keys.pos_x", "keys.pos_y", "keys.topmost"} {
		key := keys[path]
		if err := validateKeyName(key); err != nil {
			return &ValidationError{Path: path, Err: err}
		}
		if other, ok := seen[key]; ok {
			return &ValidationError{Path: path, Err: fmt.Errorf("key %q already used by %s", key, other)}
		}
		seen[key] = path
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return &ValidationError{Path: "log_level", Err: err}
	}
	return nil
}

func validateKeyName(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("key name is required")
	}
	if strings.HasPrefix(key, "-") {
		return fmt.Errorf("key name %q must not start with '-'", key)
	}
	if len(key) < 2 {
		return fmt.Errorf("key name %q must be at least two characters", key)
	}
	if strings.ContainsAny(key, " =\t") {
		return fmt.Errorf("key name %q must not contain spaces or '='", key)
	}
	return nil
}

// ParseLogLevel maps a log_level value to a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level must be one of: debug, info, warning, error")
	}
}

// SlogLevel returns the configured level, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	level, _ := ParseLogLevel(c.LogLevel)
	return level
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Save writes the configuration to path, creating parent directories.
//
// Note: this marshals the effective config; comments in an existing file
// are lost.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
