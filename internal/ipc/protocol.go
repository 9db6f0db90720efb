package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload     CommandType = "RELOAD"
	CommandGetStatus  CommandType = "GET_STATUS"
	CommandMove       CommandType = "MOVE"
	CommandTopmost    CommandType = "TOPMOST"
	CommandToggle     CommandType = "TOGGLE"
	CommandCancelMove CommandType = "CANCEL_MOVE"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// RectData is a window rectangle in desktop coordinates.
type RectData struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// MoveData describes the retrying mover.
type MoveData struct {
	State     string `json:"state"`
	TargetX   int    `json:"target_x"`
	TargetY   int    `json:"target_y"`
	Remaining int    `json:"remaining"` // -1 when unbounded
	Attempts  int    `json:"attempts"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Window        uint64    `json:"window"`
	PID           int       `json:"pid"`
	Found         bool      `json:"found"`
	Rect          *RectData `json:"rect,omitempty"`
	Move          MoveData  `json:"move"`
	ZState        string    `json:"z_state"`
	Enforcing     bool      `json:"enforcing"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	DaemonRunning bool      `json:"daemon_running"`
}

// MovePayload is the payload for MOVE. A nil axis keeps the window's
// current coordinate on that axis.
type MovePayload struct {
	X *int `json:"x,omitempty"`
	Y *int `json:"y,omitempty"`
	// Once issues a single move without retries.
	Once bool `json:"once,omitempty"`
	// Retries overrides the configured budget; -1 retries forever.
	Retries *int `json:"retries,omitempty"`
	// IntervalMS overrides the configured retry interval.
	IntervalMS int `json:"interval_ms,omitempty"`
}

// MoveResultData is returned by MOVE with the resolved target.
type MoveResultData struct {
	X    int  `json:"x"`
	Y    int  `json:"y"`
	Once bool `json:"once"`
}

// TopmostPayload is the payload for TOPMOST.
type TopmostPayload struct {
	Enable bool `json:"enable"`
}

// TopmostData is returned by TOPMOST.
type TopmostData struct {
	ZState    string `json:"z_state"`
	Enforcing bool   `json:"enforcing"`
}

// TogglePayload is the payload for TOGGLE. A nil Immediate uses the
// configured immediate_toggle.
type TogglePayload struct {
	Immediate *bool `json:"immediate,omitempty"`
}

// ToggleData is returned by TOGGLE.
type ToggleData struct {
	ZState    string `json:"z_state"`
	Immediate bool   `json:"immediate"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
