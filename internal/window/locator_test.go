package window

import (
	"errors"
	"testing"

	"github.com/1broseidon/winpin/internal/platform"
	"github.com/1broseidon/winpin/internal/platform/platformtest"
)

func newDesktop() *platformtest.Backend {
	fake := platformtest.New(4242)
	rect := platform.Rect{Left: 0, Top: 0, Right: 800, Bottom: 600}
	fake.AddWindow(1, "Desktop", true, 1, rect)
	fake.AddWindow(2, "", true, 4242, rect)
	fake.AddWindow(3, "Hidden kiosk", false, 4242, rect)
	fake.AddWindow(4, "Browser", true, 777, rect)
	fake.AddWindow(5, "Kiosk", true, 4242, rect)
	fake.AddWindow(6, "Kiosk settings", true, 4242, rect)
	fake.SetShell(1)
	return fake
}

func TestEnumerateVisible_ExcludesShellHiddenAndUntitled(t *testing.T) {
	loc := NewLocator(newDesktop())

	windows, err := loc.EnumerateVisible()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []platform.WindowID
	for _, w := range windows {
		ids = append(ids, w.ID)
		if w.ID == 1 || w.Title == "" || !w.Visible {
			t.Errorf("window %d (%q, visible=%v) should have been excluded", w.ID, w.Title, w.Visible)
		}
	}
	want := []platform.WindowID{4, 5, 6}
	if len(ids) != len(want) {
		t.Fatalf("got ids %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got ids %v, want %v (host order)", ids, want)
		}
	}
	if windows[0].PID != 777 {
		t.Fatalf("expected owner pid 777 for window 4, got %d", windows[0].PID)
	}
}

func TestEnumerateVisible_PropagatesEnumerationError(t *testing.T) {
	fake := newDesktop()
	fake.EnumErr = errors.New("display gone")

	if _, err := NewLocator(fake).EnumerateVisible(); err == nil {
		t.Fatal("expected enumeration error")
	}
	if got := NewLocator(fake).FindByPID(4242); got != platform.NullWindow {
		t.Fatalf("FindByPID on failing backend = %d, want NullWindow", got)
	}
}

func TestFindByPID(t *testing.T) {
	loc := NewLocator(newDesktop())

	tests := []struct {
		name string
		pid  int
		want platform.WindowID
	}{
		{"first of several windows in host order", 4242, 5},
		{"single window", 777, 4},
		{"no match", 9999, platform.NullWindow},
		{"shell owner is never matched", 1, platform.NullWindow},
		{"zero pid", 0, platform.NullWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := loc.FindByPID(tt.pid); got != tt.want {
				t.Errorf("FindByPID(%d) = %d, want %d", tt.pid, got, tt.want)
			}
		})
	}
}

func TestFindCurrent_UsesBackendProcessID(t *testing.T) {
	loc := NewLocator(newDesktop())
	if got := loc.FindCurrent(); got != 5 {
		t.Fatalf("FindCurrent() = %d, want 5", got)
	}
}
