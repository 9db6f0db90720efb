package daemon

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"

	"github.com/1broseidon/winpin/internal/config"
)

// Spawn starts argv and returns the running child. The child is not tied
// to the daemon's lifetime: shutting the daemon down leaves it running.
func Spawn(argv []string, cfg *config.Config, logger *slog.Logger) (*exec.Cmd, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("no command to spawn")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if runtime.GOOS == "linux" {
		env, err := childEnv(cmd.Environ(), cfg)
		if err != nil {
			return nil, err
		}
		cmd.Env = env
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}
	logger.Info("spawned child", "command", argv[0], "pid", cmd.Process.Pid)

	go func() {
		err := cmd.Wait()
		if err != nil {
			logger.Warn("child exited", "pid", cmd.Process.Pid, "error", err)
			return
		}
		logger.Info("child exited", "pid", cmd.Process.Pid)
	}()

	return cmd, nil
}
