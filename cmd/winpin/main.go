package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/1broseidon/winpin/internal/cliargs"
	"github.com/1broseidon/winpin/internal/config"
	"github.com/1broseidon/winpin/internal/daemon"
	"github.com/1broseidon/winpin/internal/ipc"
	"github.com/1broseidon/winpin/internal/platform"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "move":
		os.Exit(runMove(os.Args[2:]))
	case "topmost":
		os.Exit(runTopmost(os.Args[2:]))
	case "toggle":
		os.Exit(runToggle(os.Args[2:]))
	case "cancel":
		os.Exit(runCancel(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "list":
		os.Exit(runList(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: winpin <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Manage a process's window (foreground)")
	fmt.Fprintln(w, "  status              Show the managed window")
	fmt.Fprintln(w, "  move                Move the managed window")
	fmt.Fprintln(w, "  topmost on|off      Pin or unpin the managed window")
	fmt.Fprintln(w, "  toggle              Flip the pinned state")
	fmt.Fprintln(w, "  cancel              Stop a retrying move")
	fmt.Fprintln(w, "  reload              Reload daemon configuration")
	fmt.Fprintln(w, "  list                List visible windows")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "  config init         Write a default config file")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winpin <command> --help' for command-specific options.")
	fmt.Fprintln(w, "Set WINPIN_SOCKET to run or address a second daemon.")
}

func printDaemonUsage(w io.Writer, keys cliargs.Keys) {
	fmt.Fprintln(w, "Usage: winpin daemon [options] [-- command [args...]]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Find the target process's window, apply the start settings and keep")
	fmt.Fprintln(w, "them enforced. The target is --pid, else the spawned command, else")
	fmt.Fprintln(w, "winpin itself.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Options:")
	fmt.Fprintf(w, "  -x, --%s N        Left edge in desktop pixels\n", keys.PosX)
	fmt.Fprintf(w, "  -y, --%s N        Top edge in desktop pixels\n", keys.PosY)
	fmt.Fprintf(w, "  -t, --%s 0|1    Pin above other windows; also retries the move\n", keys.Topmost)
	fmt.Fprintln(w, "  -p, --pid N           Manage this process's window")
	fmt.Fprintln(w, "  -c, --config PATH     Config file (default: ~/.config/winpin/config.yaml)")
	fmt.Fprintln(w, "      --log-level LEVEL debug, info, warn or error")
}

// daemonArgs is the parsed command line of `winpin daemon`.
type daemonArgs struct {
	Settings daemon.Settings
	PID      int
	Command  []string
	LogLevel string
}

// configPathArg finds --config/-c ahead of the full parse, which needs the
// configured key names.
func configPathArg(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		for _, name := range []string{"--config", "-c"} {
			if a == name && i+1 < len(args) {
				return args[i+1]
			}
			if v, ok := strings.CutPrefix(a, name+"="); ok {
				return v
			}
		}
	}
	return ""
}

func parseDaemonArgs(args []string, cfg *config.Config) (daemonArgs, error) {
	keys := daemon.ArgKeys(cfg)
	a := cliargs.New("daemon")
	a.WindowKeys(keys)
	fs := a.FlagSet()
	pid := fs.Int("pid", 0, "process id whose window is managed")
	fs.Alias("p", "pid")
	fs.String("config", "", "config file path")
	fs.Alias("c", "config")
	logLevel := fs.String("log-level", "", "log level override")

	if err := a.Parse(args); err != nil {
		return daemonArgs{}, err
	}

	out := daemonArgs{
		Settings: daemon.SettingsFromArgs(a, keys),
		PID:      *pid,
		Command:  a.Args(),
		LogLevel: *logLevel,
	}
	if out.PID < 0 {
		return daemonArgs{}, fmt.Errorf("--pid must be positive")
	}
	if out.PID != 0 && len(out.Command) > 0 {
		return daemonArgs{}, fmt.Errorf("--pid and a command are mutually exclusive")
	}
	if out.LogLevel != "" {
		if _, err := config.ParseLogLevel(out.LogLevel); err != nil {
			return daemonArgs{}, err
		}
	}
	return out, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

func runDaemon(args []string) int {
	for _, a := range args {
		if a == "--" {
			break
		}
		if a == "help" || a == "-h" || a == "--help" {
			printDaemonUsage(os.Stdout, daemon.ArgKeys(nil))
			return 0
		}
	}

	configPath := configPathArg(args)
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	parsed, err := parseDaemonArgs(args, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "")
		printDaemonUsage(os.Stderr, daemon.ArgKeys(cfg))
		return 2
	}

	level := cfg.SlogLevel()
	if parsed.LogLevel != "" {
		level, _ = config.ParseLogLevel(parsed.LogLevel)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	native, err := platform.NewNative(cfg.Display)
	if err != nil {
		logger.Error("no window system available; winpin is disabled", "error", err)
		return 1
	}
	defer native.Disconnect()

	pid := parsed.PID
	if len(parsed.Command) > 0 {
		child, err := daemon.Spawn(parsed.Command, cfg, logger)
		if err != nil {
			logger.Error("failed to spawn target", "error", err)
			return 1
		}
		pid = child.Process.Pid
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = daemon.Run(ctx, native, daemon.RunOptions{
		Options: daemon.Options{
			Config:   cfg,
			Settings: parsed.Settings,
			PID:      pid,
			Logger:   logger,
		},
		LoadConfig: func() (*config.Config, error) { return loadConfig(configPath) },
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("daemon failed", "error", err)
		return 1
	}
	return 0
}

func newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		hasFlags := false
		fs.VisitAll(func(*flag.Flag) { hasFlags = true })
		if hasFlags {
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
	}
	return fs
}

func parseExit(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	return 2
}

func runStatus(args []string) int {
	fs := newFlagSet("status", "Usage: winpin status\n\nShow the managed window via IPC.")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printStatus(os.Stdout, status)
	return 0
}

func printStatus(w io.Writer, status *ipc.StatusData) {
	fmt.Fprintf(w, "daemon_running: %v\n", status.DaemonRunning)
	fmt.Fprintf(w, "pid:            %d\n", status.PID)
	if !status.Found {
		fmt.Fprintln(w, "window:         (not found)")
	} else {
		fmt.Fprintf(w, "window:         0x%x\n", status.Window)
	}
	if r := status.Rect; r != nil {
		fmt.Fprintf(w, "rect:           %d,%d %dx%d\n", r.Left, r.Top, r.Right-r.Left, r.Bottom-r.Top)
	}
	fmt.Fprintf(w, "move:           %s", status.Move.State)
	if status.Move.State != "idle" {
		fmt.Fprintf(w, " -> %d,%d (attempts %d, remaining %s)",
			status.Move.TargetX, status.Move.TargetY, status.Move.Attempts, formatRemaining(status.Move.Remaining))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "z_state:        %s\n", status.ZState)
	fmt.Fprintf(w, "enforcing:      %v\n", status.Enforcing)
	fmt.Fprintf(w, "uptime_seconds: %d\n", status.UptimeSeconds)
}

func formatRemaining(n int) string {
	if n < 0 {
		return "unbounded"
	}
	return strconv.Itoa(n)
}

// optionalInt is a flag.Value that remembers whether it was set.
type optionalInt struct {
	value *int
}

func (o *optionalInt) String() string {
	if o.value == nil {
		return ""
	}
	return strconv.Itoa(*o.value)
}

func (o *optionalInt) Set(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not an integer: %q", s)
	}
	o.value = &v
	return nil
}

func runMove(args []string) int {
	fs := newFlagSet("move", "Usage: winpin move [--x N] [--y N] [--once] [--retries N] [--interval D]\n\nMove the managed window. An omitted axis keeps its current value.")
	var x, y, retries optionalInt
	fs.Var(&x, "x", "left edge in desktop pixels")
	fs.Var(&y, "y", "top edge in desktop pixels")
	fs.Var(&retries, "retries", "retry budget; -1 retries until cancelled (default: move_retries)")
	once := fs.Bool("once", false, "single move without retries")
	interval := fs.Duration("interval", 0, "delay between retries (default: move_interval)")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	if x.value == nil && y.value == nil {
		fmt.Fprintln(os.Stderr, "move needs --x or --y")
		fs.Usage()
		return 2
	}
	if *interval < 0 {
		fmt.Fprintln(os.Stderr, "--interval must be positive")
		return 2
	}

	res, err := ipc.NewClient().Move(ipc.MovePayload{
		X:          x.value,
		Y:          y.value,
		Once:       *once,
		Retries:    retries.value,
		IntervalMS: int(*interval / time.Millisecond),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	mode := "retrying"
	if res.Once {
		mode = "once"
	}
	fmt.Printf("moving to %d,%d (%s)\n", res.X, res.Y, mode)
	return 0
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func runTopmost(args []string) int {
	fs := newFlagSet("topmost", "Usage: winpin topmost on|off\n\nPin the managed window above others (re-asserted periodically), or unpin it.")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	enable, err := parseOnOff(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	res, err := ipc.NewClient().SetTopmost(enable)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("z_state: %s (enforcing: %v)\n", res.ZState, res.Enforcing)
	return 0
}

func runToggle(args []string) int {
	fs := newFlagSet("toggle", "Usage: winpin toggle [--immediate | --deferred]\n\nFlip the managed window's pinned state.")
	immediate := fs.Bool("immediate", false, "apply now")
	deferred := fs.Bool("deferred", false, "apply on the next enforcement tick")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	if *immediate && *deferred {
		fmt.Fprintln(os.Stderr, "--immediate and --deferred are mutually exclusive")
		return 2
	}

	var mode *bool
	switch {
	case *immediate:
		mode = immediate
	case *deferred:
		v := false
		mode = &v
	}

	res, err := ipc.NewClient().Toggle(mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("z_state: %s (immediate: %v)\n", res.ZState, res.Immediate)
	return 0
}

func runCancel(args []string) int {
	fs := newFlagSet("cancel", "Usage: winpin cancel\n\nStop a retrying move.")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	if err := ipc.NewClient().CancelMove(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("move cancelled")
	return 0
}

func runReload(args []string) int {
	fs := newFlagSet("reload", "Usage: winpin reload\n\nAsk the daemon to reload its configuration.")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
}
