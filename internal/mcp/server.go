// Package mcp exposes the winpin daemon as Model Context Protocol tools over
// stdio.
package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winpin/internal/ipc"
	"github.com/1broseidon/winpin/internal/window"
)

const (
	ServerName    = "winpin"
	ServerVersion = "0.1.0"
)

// DaemonClient is the control socket surface the tools drive.
// *ipc.Client implements it.
type DaemonClient interface {
	GetStatus() (*ipc.StatusData, error)
	Move(payload ipc.MovePayload) (*ipc.MoveResultData, error)
	SetTopmost(enable bool) (*ipc.TopmostData, error)
	Toggle(immediate *bool) (*ipc.ToggleData, error)
	CancelMove() error
}

// WindowLister enumerates visible windows. *window.Locator implements it.
type WindowLister interface {
	EnumerateVisible() ([]window.EnumeratedWindow, error)
}

// Server is the MCP server for winpin window control.
type Server struct {
	mcpServer *mcpsdk.Server
	client    DaemonClient
	windows   WindowLister
	logger    *slog.Logger
}

// NewServer creates an MCP server. windows may be nil when no windowing
// backend could be opened; list_windows then reports an error.
func NewServer(client DaemonClient, windows WindowLister, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		client:  client,
		windows: windows,
		logger:  logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List visible top-level windows with their id, title and owning process id. Pass pid to list only one process's windows.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "window_status",
		Description: "Report the window managed by the winpin daemon: its rectangle, the retrying mover's state and the pinned z-order state.",
	}, s.handleWindowStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_window",
		Description: "Move the managed window to (x, y), keeping its size. An omitted axis keeps its current value. The move is retried until the window lands or the retry budget runs out unless once is true.",
	}, s.handleMoveWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_topmost",
		Description: "Pin the managed window above other windows (re-asserted periodically), or unpin it.",
	}, s.handleSetTopmost)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_topmost",
		Description: "Flip the managed window between pinned-above and the normal band.",
	}, s.handleToggleTopmost)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "cancel_move",
		Description: "Stop a retrying move of the managed window. Safe when no move is running.",
	}, s.handleCancelMove)
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	if s.windows == nil {
		return nil, ListWindowsOutput{}, fmt.Errorf("no windowing backend available")
	}
	all, err := s.windows.EnumerateVisible()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}

	out := ListWindowsOutput{Windows: make([]WindowInfo, 0, len(all))}
	for _, w := range all {
		if args.PID != 0 && w.PID != args.PID {
			continue
		}
		out.Windows = append(out.Windows, WindowInfo{ID: uint64(w.ID), Title: w.Title, PID: w.PID})
	}
	s.logger.Debug("list_windows", "pid", args.PID, "count", len(out.Windows))
	return nil, out, nil
}

func (s *Server) handleWindowStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ WindowStatusInput) (*mcpsdk.CallToolResult, WindowStatusOutput, error) {
	st, err := s.client.GetStatus()
	if err != nil {
		return nil, WindowStatusOutput{}, err
	}
	out := WindowStatusOutput{
		Window:        st.Window,
		PID:           st.PID,
		Found:         st.Found,
		MoveState:     st.Move.State,
		TargetX:       st.Move.TargetX,
		TargetY:       st.Move.TargetY,
		Remaining:     st.Move.Remaining,
		Attempts:      st.Move.Attempts,
		ZState:        st.ZState,
		Enforcing:     st.Enforcing,
		UptimeSeconds: st.UptimeSeconds,
	}
	if st.Rect != nil {
		out.Rect = &Rect{Left: st.Rect.Left, Top: st.Rect.Top, Right: st.Rect.Right, Bottom: st.Rect.Bottom}
	}
	return nil, out, nil
}

func (s *Server) handleMoveWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveWindowInput) (*mcpsdk.CallToolResult, MoveWindowOutput, error) {
	if args.X == nil && args.Y == nil {
		return nil, MoveWindowOutput{}, fmt.Errorf("move_window needs x or y")
	}
	if args.Retries != nil && *args.Retries < -1 {
		return nil, MoveWindowOutput{}, fmt.Errorf("retries must be >= -1, got %d", *args.Retries)
	}
	if args.IntervalMS < 0 {
		return nil, MoveWindowOutput{}, fmt.Errorf("interval_ms must be >= 0, got %d", args.IntervalMS)
	}

	res, err := s.client.Move(ipc.MovePayload{
		X:          args.X,
		Y:          args.Y,
		Once:       args.Once,
		Retries:    args.Retries,
		IntervalMS: args.IntervalMS,
	})
	if err != nil {
		return nil, MoveWindowOutput{}, err
	}
	s.logger.Info("move_window", "x", res.X, "y", res.Y, "once", res.Once)
	return nil, MoveWindowOutput{X: res.X, Y: res.Y, Once: res.Once}, nil
}

func (s *Server) handleSetTopmost(_ context.Context, _ *mcpsdk.CallToolRequest, args SetTopmostInput) (*mcpsdk.CallToolResult, SetTopmostOutput, error) {
	res, err := s.client.SetTopmost(args.Enable)
	if err != nil {
		return nil, SetTopmostOutput{}, err
	}
	return nil, SetTopmostOutput{ZState: res.ZState, Enforcing: res.Enforcing}, nil
}

func (s *Server) handleToggleTopmost(_ context.Context, _ *mcpsdk.CallToolRequest, args ToggleTopmostInput) (*mcpsdk.CallToolResult, ToggleTopmostOutput, error) {
	res, err := s.client.Toggle(args.Immediate)
	if err != nil {
		return nil, ToggleTopmostOutput{}, err
	}
	return nil, ToggleTopmostOutput{ZState: res.ZState, Immediate: res.Immediate}, nil
}

func (s *Server) handleCancelMove(_ context.Context, _ *mcpsdk.CallToolRequest, _ CancelMoveInput) (*mcpsdk.CallToolResult, CancelMoveOutput, error) {
	if err := s.client.CancelMove(); err != nil {
		return nil, CancelMoveOutput{}, err
	}
	return nil, CancelMoveOutput{Cancelled: true}, nil
}
