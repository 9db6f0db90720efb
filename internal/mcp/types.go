package mcp

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	PID int `json:"pid,omitempty" jsonschema:"Only list windows owned by this process id (default: all)"`
}

// WindowInfo describes one visible top-level window.
type WindowInfo struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
	PID   int    `json:"pid"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowInfo `json:"windows"`
}

// WindowStatusInput is the input for the window_status tool.
type WindowStatusInput struct{}

// Rect is a window rectangle in desktop coordinates.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// WindowStatusOutput is the output for the window_status tool.
type WindowStatusOutput struct {
	Window        uint64 `json:"window"`
	PID           int    `json:"pid"`
	Found         bool   `json:"found"`
	Rect          *Rect  `json:"rect,omitempty"`
	MoveState     string `json:"move_state"`
	TargetX       int    `json:"target_x"`
	TargetY       int    `json:"target_y"`
	Remaining     int    `json:"remaining"`
	Attempts      int    `json:"attempts"`
	ZState        string `json:"z_state"`
	Enforcing     bool   `json:"enforcing"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// MoveWindowInput is the input for the move_window tool.
type MoveWindowInput struct {
	X          *int `json:"x,omitempty" jsonschema:"Target left edge in desktop pixels; omitted keeps the current left edge"`
	Y          *int `json:"y,omitempty" jsonschema:"Target top edge in desktop pixels; omitted keeps the current top edge"`
	Once       bool `json:"once,omitempty" jsonschema:"Issue a single move without retrying (default: false)"`
	Retries    *int `json:"retries,omitempty" jsonschema:"Retry budget; -1 retries until cancelled (default: move_retries from config)"`
	IntervalMS int  `json:"interval_ms,omitempty" jsonschema:"Delay between retries in milliseconds (default: move_interval from config)"`
}

// MoveWindowOutput is the output for the move_window tool.
type MoveWindowOutput struct {
	X    int  `json:"x"`
	Y    int  `json:"y"`
	Once bool `json:"once"`
}

// SetTopmostInput is the input for the set_topmost tool.
type SetTopmostInput struct {
	Enable bool `json:"enable" jsonschema:"true pins the window above others and keeps re-asserting it; false returns it to the normal band"`
}

// SetTopmostOutput is the output for the set_topmost tool.
type SetTopmostOutput struct {
	ZState    string `json:"z_state"`
	Enforcing bool   `json:"enforcing"`
}

// ToggleTopmostInput is the input for the toggle_topmost tool.
type ToggleTopmostInput struct {
	Immediate *bool `json:"immediate,omitempty" jsonschema:"Apply the flipped state now instead of on the next enforcement tick (default: immediate_toggle from config)"`
}

// ToggleTopmostOutput is the output for the toggle_topmost tool.
type ToggleTopmostOutput struct {
	ZState    string `json:"z_state"`
	Immediate bool   `json:"immediate"`
}

// CancelMoveInput is the input for the cancel_move tool.
type CancelMoveInput struct{}

// CancelMoveOutput is the output for the cancel_move tool.
type CancelMoveOutput struct {
	Cancelled bool `json:"cancelled"`
}
