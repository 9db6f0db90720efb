package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/1broseidon/winpin/internal/config"
	"github.com/1broseidon/winpin/internal/hotkeys"
	"github.com/1broseidon/winpin/internal/ipc"
	"github.com/1broseidon/winpin/internal/platform"
	"github.com/1broseidon/winpin/internal/runtimepath"
)

// RunOptions extends Options with the daemon's outer surfaces.
type RunOptions struct {
	Options
	// SocketPath overrides the runtime control socket.
	SocketPath string
	// PIDFile overrides the runtime pid file. "-" disables it.
	PIDFile string
	// LoadConfig reloads configuration on SIGHUP and RELOAD. Defaults to
	// config.Load.
	LoadConfig func() (*config.Config, error)
}

// Run starts the daemon on native and blocks until ctx is cancelled. The
// caller owns native and disconnects it after Run returns.
func Run(ctx context.Context, native platform.Native, opts RunOptions) error {
	d := New(native, opts.Options)
	logger := d.logger
	loadConfig := opts.LoadConfig
	if loadConfig == nil {
		loadConfig = config.Load
	}

	if err := d.Start(ctx); err != nil {
		return err
	}
	defer d.Close()

	cfg := d.Config()
	if cfg.ToggleHotkey != "" {
		h := hotkeys.NewHandler(native, d, logger)
		if err := h.RegisterToggle(cfg.ToggleHotkey, cfg.ImmediateToggle); err != nil {
			logger.Warn("toggle hotkey unavailable", "error", err)
		} else {
			logger.Info("toggle hotkey registered", "hotkey", cfg.ToggleHotkey, "immediate", cfg.ImmediateToggle)
		}
	}

	pidFile, err := writePIDFile(opts.PIDFile)
	if err != nil {
		logger.Warn("failed to write pid file", "error", err)
	} else if pidFile != "" {
		defer os.Remove(pidFile)
	}

	reloadChan := make(chan struct{}, 1)
	var server *ipc.Server
	if opts.SocketPath != "" {
		server = ipc.NewServerAt(opts.SocketPath, cfg, d, logger, reloadChan)
	} else {
		s, err := ipc.NewServer(cfg, d, logger, reloadChan)
		if err != nil {
			return err
		}
		server = s
	}
	server.SetConfigLoader(loadConfig)
	if err := server.Start(); err != nil {
		return err
	}
	defer server.Stop()

	reconciler := NewReconciler(ReconcilerConfig{Logger: logger}, d)
	go reconciler.Run(ctx)

	go native.EventLoop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	logger.Info("winpin daemon running", "pid", d.PID(), "window", d.Status().Window)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down winpin daemon")
			return nil

		case <-hup:
			newCfg, err := loadConfig()
			if err != nil {
				logger.Error("config reload failed", "error", err)
				continue
			}
			server.UpdateConfig(newCfg)
			d.UpdateConfig(newCfg)
			logger.Info("config reloaded")

		case <-reloadChan:
			// Reloaded via IPC; the server already holds the new config.
			d.UpdateConfig(server.GetConfig())
		}
	}
}

func writePIDFile(path string) (string, error) {
	if path == "-" {
		return "", nil
	}
	if path == "" {
		p, err := runtimepath.PIDFilePath()
		if err != nil {
			return "", err
		}
		path = p
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0600); err != nil {
		return "", fmt.Errorf("failed to write pid file: %w", err)
	}
	return path, nil
}
