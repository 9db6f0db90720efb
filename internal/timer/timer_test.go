package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManual_FiresPerInterval(t *testing.T) {
	clock := NewManual()
	var fast, slow int
	clock.Every(100*time.Millisecond, func() { fast++ })
	clock.Every(250*time.Millisecond, func() { slow++ })

	clock.Advance(100 * time.Millisecond)
	clock.Advance(100 * time.Millisecond)
	clock.Advance(100 * time.Millisecond)

	if fast != 3 {
		t.Fatalf("fast handle fired %d times, want 3", fast)
	}
	if slow != 1 {
		t.Fatalf("slow handle fired %d times, want 1", slow)
	}
}

func TestManual_StopFromInsideCallback(t *testing.T) {
	clock := NewManual()
	var calls int
	var h Handle
	h = clock.Every(10*time.Millisecond, func() {
		calls++
		if calls == 2 {
			h.Stop()
		}
	})

	clock.Advance(100 * time.Millisecond)
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if clock.Active() != 0 {
		t.Fatalf("Active() = %d, want 0", clock.Active())
	}
}

func TestManual_SetIntervalResetsElapsed(t *testing.T) {
	clock := NewManual()
	var calls int
	h := clock.Every(100*time.Millisecond, func() { calls++ })

	clock.Advance(90 * time.Millisecond)
	h.SetInterval(50 * time.Millisecond)
	clock.Advance(40 * time.Millisecond)
	if calls != 0 {
		t.Fatalf("calls = %d after reset, want 0", calls)
	}
	clock.Advance(10 * time.Millisecond)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestTickerClock_StopIsIdempotentAndHalts(t *testing.T) {
	clock := NewTickerClock(nil)
	var calls atomic.Int32
	h := clock.Every(2*time.Millisecond, func() { calls.Add(1) })

	deadline := time.Now().Add(time.Second)
	for calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if calls.Load() < 2 {
		t.Fatalf("expected at least 2 ticks, got %d", calls.Load())
	}

	h.Stop()
	h.Stop()
	// Allow an in-flight tick to finish.
	time.Sleep(10 * time.Millisecond)
	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != after {
		t.Fatalf("ticks continued after Stop: %d -> %d", after, calls.Load())
	}
}

func TestTickerClock_RecoversPanics(t *testing.T) {
	clock := NewTickerClock(nil)
	var calls atomic.Int32
	h := clock.Every(2*time.Millisecond, func() {
		if calls.Add(1) == 1 {
			panic("boom")
		}
	})
	defer h.Stop()

	deadline := time.Now().Add(time.Second)
	for calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if calls.Load() < 3 {
		t.Fatalf("handle stopped ticking after panic, calls=%d", calls.Load())
	}
}
