package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/1broseidon/winpin/internal/config"
)

const x11SocketDir = "/tmp/.X11-unix"

// Probes used to find an X display when the daemon was started without one.
// Tests swap them out.
var (
	commandOutputFn  = commandOutput
	readFileFn       = os.ReadFile
	readDirFn        = os.ReadDir
	sessionDisplayFn = sessionDisplay
	socketDisplayFn  = socketDisplay
)

// childEnv returns env with DISPLAY and XAUTHORITY filled in so a spawned
// child can open its window on the same display the daemon manages.
// Resolution order per variable: env, config, the user's login session,
// the highest X socket (DISPLAY) or ~/.Xauthority (XAUTHORITY).
func childEnv(env []string, cfg *config.Config) ([]string, error) {
	display := strings.TrimSpace(lookupEnv(env, "DISPLAY"))
	xauth := strings.TrimSpace(lookupEnv(env, "XAUTHORITY"))

	if cfg != nil {
		if display == "" {
			display = strings.TrimSpace(cfg.Display)
		}
		if xauth == "" {
			xauth = strings.TrimSpace(cfg.XAuthority)
		}
	}

	if display == "" || xauth == "" {
		d, a := sessionDisplayFn()
		if display == "" {
			display = strings.TrimSpace(d)
		}
		if xauth == "" {
			xauth = strings.TrimSpace(a)
		}
	}
	if display == "" {
		display = socketDisplayFn(x11SocketDir)
	}
	if display == "" {
		return nil, fmt.Errorf("no X display found for the child; export DISPLAY or set display in config")
	}

	if xauth == "" {
		home := lookupEnv(env, "HOME")
		if home == "" {
			home, _ = os.UserHomeDir()
		}
		if home != "" {
			if p := filepath.Join(home, ".Xauthority"); fileExists(p) {
				xauth = p
			}
		}
	}

	env = setEnv(env, "DISPLAY", display)
	if xauth != "" {
		env = setEnv(env, "XAUTHORITY", xauth)
	}
	return env, nil
}

// sessionDisplay asks logind for a graphical session of the current user
// and reads DISPLAY/XAUTHORITY from its leader's environment.
func sessionDisplay() (string, string) {
	out, err := commandOutputFn("loginctl", "list-sessions", "--no-legend")
	if err != nil {
		return "", ""
	}
	for _, id := range userSessions(out, strconv.Itoa(os.Getuid())) {
		display := sessionProperty(id, "Display")
		if display == "" || strings.EqualFold(display, "n/a") {
			continue
		}
		var xauth string
		if leader := sessionProperty(id, "Leader"); leader != "" && leader != "0" {
			if env, err := processEnv(leader); err == nil {
				if d := strings.TrimSpace(env["DISPLAY"]); d != "" {
					display = d
				}
				xauth = strings.TrimSpace(env["XAUTHORITY"])
			}
		}
		return display, xauth
	}
	return "", ""
}

// userSessions picks the session ids owned by uid out of
// `loginctl list-sessions --no-legend` output.
func userSessions(out, uid string) []string {
	var ids []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == uid {
			ids = append(ids, fields[0])
		}
	}
	return ids
}

func sessionProperty(id, prop string) string {
	out, err := commandOutputFn("loginctl", "show-session", id, "-p", prop, "--value")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func processEnv(pid string) (map[string]string, error) {
	data, err := readFileFn(filepath.Join("/proc", pid, "environ"))
	if err != nil {
		return nil, err
	}
	env := make(map[string]string)
	for _, kv := range strings.Split(string(data), "\x00") {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env, nil
}

// socketDisplay returns ":N" for the highest-numbered XN socket in dir.
func socketDisplay(dir string) string {
	entries, err := readDirFn(dir)
	if err != nil {
		return ""
	}
	var nums []int
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "X") {
			continue
		}
		if n, err := strconv.Atoi(name[1:]); err == nil {
			nums = append(nums, n)
		}
	}
	if len(nums) == 0 {
		return ""
	}
	sort.Ints(nums)
	return ":" + strconv.Itoa(nums[len(nums)-1])
}

func commandOutput(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	return string(out), err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func lookupEnv(env []string, key string) string {
	prefix := key + "="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], prefix) {
			return env[i][len(prefix):]
		}
	}
	return ""
}

func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
