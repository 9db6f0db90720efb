package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/1broseidon/winpin/internal/platform"
	"github.com/1broseidon/winpin/internal/window"
)

type listedWindow struct {
	ID    uint64 `json:"id"`
	PID   int    `json:"pid"`
	Title string `json:"title"`
}

func runList(args []string) int {
	fs := newFlagSet("list", "Usage: winpin list [--pid N] [--json]\n\nList visible top-level windows with their owning process.")
	pid := fs.Int("pid", 0, "only windows owned by this process")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}

	native, err := platform.NewNative("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer native.Disconnect()

	all, err := window.NewLocator(native).EnumerateVisible()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	windows := make([]listedWindow, 0, len(all))
	for _, w := range all {
		if *pid != 0 && w.PID != *pid {
			continue
		}
		windows = append(windows, listedWindow{ID: uint64(w.ID), PID: w.PID, Title: w.Title})
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(windows); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	writeWindowTable(os.Stdout, windows, outputWidth())
	return 0
}

// outputWidth is the terminal width when stdout is a TTY, else 0 (no
// truncation).
func outputWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

func writeWindowTable(w io.Writer, windows []listedWindow, width int) {
	const header = "WINDOW      PID      TITLE"
	fmt.Fprintln(w, header)
	for _, win := range windows {
		prefix := fmt.Sprintf("0x%-9x %-8d ", win.ID, win.PID)
		title := win.Title
		if width > 0 {
			title = truncate(title, width-utf8.RuneCountInString(prefix))
		}
		fmt.Fprintln(w, prefix+title)
	}
}

// truncate shortens s to at most max runes, marking the cut with "…".
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
