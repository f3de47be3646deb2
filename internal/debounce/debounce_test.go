package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

// manualTimers makes afterFunc record callbacks instead of scheduling them.
func manualTimers(t *testing.T) *[]func() {
	t.Helper()
	orig := afterFunc
	t.Cleanup(func() { afterFunc = orig })

	var fired []func()
	afterFunc = func(_ time.Duration, f func()) *time.Timer {
		fired = append(fired, f)
		timer := time.NewTimer(time.Hour)
		timer.Stop()
		return timer
	}
	return &fired
}

func TestBurstRunsOnce(t *testing.T) {
	timers := manualTimers(t)
	calls := 0
	d := New(time.Second, func() { calls++ })

	for range 3 {
		d.Trigger()
	}
	if len(*timers) != 3 {
		t.Fatalf("timers = %d, want one per trigger", len(*timers))
	}
	for _, fire := range *timers {
		fire()
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 for the burst", calls)
	}

	(*timers)[2]()
	if calls != 1 {
		t.Fatalf("calls = %d after a repeated expiry", calls)
	}
}

func TestEveryBurstRuns(t *testing.T) {
	timers := manualTimers(t)
	calls := 0
	d := New(time.Second, func() { calls++ })

	for burst := 1; burst <= 3; burst++ {
		d.Trigger()
		d.Trigger()
		(*timers)[len(*timers)-1]()
		if calls != burst {
			t.Fatalf("calls = %d after burst %d", calls, burst)
		}
	}
}

func TestStopDropsPendingCall(t *testing.T) {
	timers := manualTimers(t)
	calls := 0
	d := New(time.Second, func() { calls++ })

	d.Trigger()
	d.Stop()
	(*timers)[0]()
	if calls != 0 {
		t.Fatalf("calls = %d after Stop", calls)
	}

	d.Trigger()
	(*timers)[1]()
	if calls != 1 {
		t.Fatalf("calls = %d, want a trigger after Stop to run", calls)
	}
}

func TestBurstWithRealTimers(t *testing.T) {
	var calls atomic.Int32
	ran := make(chan struct{}, 4)
	d := New(20*time.Millisecond, func() {
		calls.Add(1)
		ran <- struct{}{}
	})
	defer d.Stop()

	for range 5 {
		d.Trigger()
		time.Sleep(time.Millisecond)
	}
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("burst never ran")
	}
	time.Sleep(40 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}
