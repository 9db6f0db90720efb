// Package runtimepath locates the per-user files a running daemon exposes.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SocketEnv names a control socket path that replaces the default, so that
// one daemon per managed window can run side by side. The pid file follows
// it.
const SocketEnv = "WINPIN_SOCKET"

const (
	socketName  = "winpin.sock"
	pidFileName = "winpin.pid"
)

// Dir returns the runtime directory. Candidates, in order:
// 1) XDG_RUNTIME_DIR (if set)
// 2) /run/user/<uid> (if present)
// 3) /tmp/winpin-runtime-<uid> (created 0700)
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}

	uid := os.Getuid()
	if dir := fmt.Sprintf("/run/user/%d", uid); isDir(dir) {
		return dir, nil
	}

	dir := filepath.Join(os.TempDir(), fmt.Sprintf("winpin-runtime-%d", uid))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return dir, nil
}

// SocketPath returns the daemon control socket path, honouring SocketEnv.
func SocketPath() (string, error) {
	if p := os.Getenv(SocketEnv); p != "" {
		return p, nil
	}
	return inDir(socketName)
}

// PIDFilePath returns where the daemon records its process id: next to an
// overridden socket, else in the runtime dir.
func PIDFilePath() (string, error) {
	if p := os.Getenv(SocketEnv); p != "" {
		return strings.TrimSuffix(p, filepath.Ext(p)) + ".pid", nil
	}
	return inDir(pidFileName)
}

func inDir(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
