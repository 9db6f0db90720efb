package ipc

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/winpin/internal/config"
	"github.com/1broseidon/winpin/internal/platform"
	"github.com/1broseidon/winpin/internal/platform/platformtest"
	"github.com/1broseidon/winpin/internal/timer"
	"github.com/1broseidon/winpin/internal/window"
)

type fixture struct {
	fake   *platformtest.Backend
	clock  *timer.Manual
	ctl    *window.Control
	server *Server
	client *Client
}

func startServer(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()

	// Unix socket paths are length-limited; keep the directory short.
	dir, err := os.MkdirTemp("", "winpin-ipc")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	socket := filepath.Join(dir, "s.sock")

	fake := platformtest.New(4242)
	fake.AddWindow(7, "Kiosk", true, 4242, platform.Rect{Right: 800, Bottom: 600})
	clock := timer.NewManual()
	ctl := window.NewControl(fake, clock, window.ControlConfig{EnforceInterval: time.Second})

	server := NewServerAt(socket, cfg, ctl, nil, make(chan struct{}, 1))
	if err := server.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(server.Stop)

	return &fixture{
		fake:   fake,
		clock:  clock,
		ctl:    ctl,
		server: server,
		client: NewClientAt(socket),
	}
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestServer_StatusRoundTrip(t *testing.T) {
	f := startServer(t, nil)

	status, err := f.client.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !status.DaemonRunning || !status.Found || status.Window != 7 || status.PID != 4242 {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.Rect == nil || *status.Rect != (RectData{Right: 800, Bottom: 600}) {
		t.Fatalf("unexpected rect %+v", status.Rect)
	}
	if status.Move.State != "idle" || status.ZState != "normal" || status.Enforcing {
		t.Fatalf("unexpected initial state %+v", status)
	}
	if err := f.client.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestServer_MoveKeepsMissingAxis(t *testing.T) {
	f := startServer(t, nil)
	f.fake.SetRect(7, platform.Rect{Left: 10, Top: 20, Right: 810, Bottom: 620})

	res, err := f.client.Move(MovePayload{X: intPtr(300), Retries: intPtr(2)})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if res.X != 300 || res.Y != 20 || res.Once {
		t.Fatalf("unexpected move result %+v", res)
	}

	f.clock.Advance(config.DefaultMoveInterval)

	status, err := f.client.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Move.State != "converged" || status.Move.TargetX != 300 || status.Move.TargetY != 20 {
		t.Fatalf("unexpected move status %+v", status.Move)
	}
}

func TestServer_MoveOnceAndValidation(t *testing.T) {
	f := startServer(t, nil)

	if _, err := f.client.Move(MovePayload{X: intPtr(5), Y: intPtr(6), Once: true}); err != nil {
		t.Fatalf("Move once: %v", err)
	}
	if r := f.fake.Rect(7); r.Left != 5 || r.Top != 6 {
		t.Fatalf("rect = %+v after single move", r)
	}
	if f.clock.Created() != 0 {
		t.Fatal("single move armed a timer")
	}

	if _, err := f.client.Move(MovePayload{}); err == nil || !strings.Contains(err.Error(), "x or y") {
		t.Fatalf("expected missing axis error, got %v", err)
	}
	if _, err := f.client.Move(MovePayload{X: intPtr(1), Retries: intPtr(-3)}); err == nil {
		t.Fatal("expected retries validation error")
	}
}

func TestServer_TopmostToggleAndCancel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ImmediateToggle = false
	f := startServer(t, cfg)

	top, err := f.client.SetTopmost(true)
	if err != nil {
		t.Fatalf("SetTopmost: %v", err)
	}
	if top.ZState != "pinned-above" || !top.Enforcing {
		t.Fatalf("unexpected topmost result %+v", top)
	}

	toggled, err := f.client.Toggle(nil)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if toggled.ZState != "normal" || toggled.Immediate {
		t.Fatalf("unexpected toggle result %+v", toggled)
	}
	if z, _ := f.fake.ZOrderOf(7); z != platform.ZOrderTopmost {
		t.Fatalf("deferred toggle applied immediately: %s", z)
	}

	toggled, err = f.client.Toggle(boolPtr(true))
	if err != nil {
		t.Fatalf("Toggle immediate: %v", err)
	}
	if toggled.ZState != "pinned-above" || !toggled.Immediate {
		t.Fatalf("unexpected toggle result %+v", toggled)
	}

	if _, err := f.client.Move(MovePayload{X: intPtr(1), Y: intPtr(1), Retries: intPtr(-1)}); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if err := f.client.CancelMove(); err != nil {
		t.Fatalf("CancelMove: %v", err)
	}
	if st := f.ctl.Status(); st.Move.State != window.MoveIdle {
		t.Fatalf("move state = %s after cancel", st.Move.State)
	}
}

func TestServer_ReloadAndUnknownCommand(t *testing.T) {
	f := startServer(t, nil)

	reloaded := config.DefaultConfig()
	reloaded.MoveRetries = 1
	f.server.SetConfigLoader(func() (*config.Config, error) { return reloaded, nil })

	if err := f.client.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if f.server.GetConfig().MoveRetries != 1 {
		t.Fatal("config not swapped on reload")
	}
	select {
	case <-f.server.reloadChan:
	default:
		t.Fatal("reload not signalled")
	}

	f.server.SetConfigLoader(func() (*config.Config, error) { return nil, errors.New("bad yaml") })
	if err := f.client.Reload(); err == nil || !strings.Contains(err.Error(), "bad yaml") {
		t.Fatalf("expected reload error, got %v", err)
	}

	if err := f.client.call("NOPE", nil, nil); err == nil || !strings.Contains(err.Error(), "Unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestClient_NoDaemon(t *testing.T) {
	c := NewClientAt(filepath.Join(t.TempDir(), "missing.sock"))
	if err := c.Ping(); err == nil || !strings.Contains(err.Error(), "is the daemon running") {
		t.Fatalf("expected connection error, got %v", err)
	}
}
