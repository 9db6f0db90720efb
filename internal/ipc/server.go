package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/winpin/internal/config"
	"github.com/1broseidon/winpin/internal/platform"
	"github.com/1broseidon/winpin/internal/runtimepath"
	"github.com/1broseidon/winpin/internal/window"
)

// Controller is the window control surface the server drives.
// *window.Control implements it.
type Controller interface {
	Status() window.Status
	Rect() (platform.Rect, error)
	Target(x, y *int) (int, int, error)
	RequestMove(x, y int, interval time.Duration, budget window.Budget)
	MoveOnce(x, y int) error
	CancelMove()
	RequestTopmost(enable bool) error
	Toggle(immediate bool) (window.ZState, error)
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	ctl          Controller
	cfg          *config.Config
	cfgMu        sync.RWMutex
	loadConfig   func() (*config.Config, error)
	logger       *slog.Logger
	startTime    time.Time
	reloadChan   chan struct{}
	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a server on the default runtime socket path.
func NewServer(cfg *config.Config, ctl Controller, logger *slog.Logger, reloadChan chan struct{}) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, cfg, ctl, logger, reloadChan), nil
}

// NewServerAt creates a server listening on socketPath once started.
func NewServerAt(socketPath string, cfg *config.Config, ctl Controller, logger *slog.Logger, reloadChan chan struct{}) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		ctl:        ctl,
		cfg:        cfg,
		loadConfig: config.Load,
		logger:     logger,
		startTime:  time.Now(),
		reloadChan: reloadChan,
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// SetConfigLoader replaces the function RELOAD reads configuration with.
func (s *Server) SetConfigLoader(load func() (*config.Config, error)) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.loadConfig = load
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal IPC response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send IPC response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("IPC command", "command", req.Command)

	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandMove:
		return s.handleMove(req.Payload)
	case CommandTopmost:
		return s.handleTopmost(req.Payload)
	case CommandToggle:
		return s.handleToggle(req.Payload)
	case CommandCancelMove:
		return s.handleCancelMove()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleReload reloads the configuration
func (s *Server) handleReload() *Response {
	s.cfgMu.RLock()
	load := s.loadConfig
	s.cfgMu.RUnlock()

	newCfg, err := load()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	s.UpdateConfig(newCfg)

	// Notify the main daemon via channel (non-blocking)
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	s.logger.Info("config reloaded via IPC")
	return okResponse(nil)
}

// handleGetStatus returns the managed window's status
func (s *Server) handleGetStatus() *Response {
	st := s.ctl.Status()
	status := StatusData{
		Window: uint64(st.Window),
		PID:    st.PID,
		Found:  st.Window != platform.NullWindow,
		Move: MoveData{
			State:     st.Move.State.String(),
			TargetX:   st.Move.Target.X,
			TargetY:   st.Move.Target.Y,
			Remaining: st.Move.Remaining,
			Attempts:  st.Move.Attempts,
		},
		ZState:        st.ZState.String(),
		Enforcing:     st.Enforcing,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}
	if rect, err := s.ctl.Rect(); err == nil {
		status.Rect = &RectData{Left: rect.Left, Top: rect.Top, Right: rect.Right, Bottom: rect.Bottom}
	}
	return okResponse(status)
}

func (s *Server) handleMove(payload json.RawMessage) *Response {
	var req MovePayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
		}
	}
	if req.X == nil && req.Y == nil {
		return NewErrorResponse("at least one of x or y is required")
	}
	if req.Retries != nil && *req.Retries < -1 {
		return NewErrorResponse("retries must be >= -1")
	}

	x, y, err := s.ctl.Target(req.X, req.Y)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to resolve target: %v", err))
	}

	if req.Once {
		if err := s.ctl.MoveOnce(x, y); err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to move window: %v", err))
		}
	} else {
		cfg := s.GetConfig()
		interval := cfg.MoveInterval
		if req.IntervalMS > 0 {
			interval = time.Duration(req.IntervalMS) * time.Millisecond
		}
		retries := cfg.MoveRetries
		if req.Retries != nil {
			retries = *req.Retries
		}
		s.ctl.RequestMove(x, y, interval, window.BudgetFromCount(retries))
	}

	s.logger.Info("move requested via IPC", "x", x, "y", y, "once", req.Once)
	return okResponse(MoveResultData{X: x, Y: y, Once: req.Once})
}

func (s *Server) handleTopmost(payload json.RawMessage) *Response {
	var req TopmostPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid topmost payload: %v", err))
	}
	if err := s.ctl.RequestTopmost(req.Enable); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to set topmost: %v", err))
	}
	st := s.ctl.Status()
	return okResponse(TopmostData{ZState: st.ZState.String(), Enforcing: st.Enforcing})
}

func (s *Server) handleToggle(payload json.RawMessage) *Response {
	var req TogglePayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid toggle payload: %v", err))
		}
	}
	immediate := s.GetConfig().ImmediateToggle
	if req.Immediate != nil {
		immediate = *req.Immediate
	}

	state, err := s.ctl.Toggle(immediate)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to toggle: %v", err))
	}
	return okResponse(ToggleData{ZState: state.String(), Immediate: immediate})
}

func (s *Server) handleCancelMove() *Response {
	s.ctl.CancelMove()
	return okResponse(nil)
}

func okResponse(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
		s.wg.Wait()
	}
	os.Remove(s.socketPath)
}

// GetConfig returns the current config (thread-safe)
func (s *Server) GetConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig updates the config (thread-safe)
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.cfg = cfg
}
