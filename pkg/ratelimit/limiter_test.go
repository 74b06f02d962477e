package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/vango-dev/sliderbind/pkg/binding"
)

type recorder struct {
	mu  sync.Mutex
	got []int
}

func (r *recorder) deliver(v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, v)
}

func (r *recorder) values() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.got...)
}

const window = 250 * time.Millisecond

func TestDebounceCoalescesBurst(t *testing.T) {
	clock := NewManualClock()
	rec := &recorder{}
	d := NewDebouncer(window, rec.deliver, clock)

	for v := 1; v <= 5; v++ {
		d.Normal(v)
		clock.Advance(100 * time.Millisecond)
	}
	if got := rec.values(); len(got) != 0 {
		t.Fatalf("delivered during burst: %v", got)
	}
	if !d.Pending() {
		t.Error("Pending() = false during burst")
	}

	clock.Advance(150 * time.Millisecond)
	if diff := cmp.Diff([]int{5}, rec.values()); diff != "" {
		t.Errorf("delivered (-want +got):\n%s", diff)
	}
	if d.Pending() {
		t.Error("Pending() = true after delivery")
	}

	clock.Advance(time.Second)
	if got := rec.values(); len(got) != 1 {
		t.Errorf("extra deliveries: %v", got)
	}
}

func TestDebounceSeparateWindows(t *testing.T) {
	clock := NewManualClock()
	rec := &recorder{}
	d := NewDebouncer(window, rec.deliver, clock)

	d.Normal(1)
	clock.Advance(window)
	d.Normal(2)
	d.Normal(3)
	clock.Advance(window)

	if diff := cmp.Diff([]int{1, 3}, rec.values()); diff != "" {
		t.Errorf("delivered (-want +got):\n%s", diff)
	}
}

func TestDebounceImmediate(t *testing.T) {
	clock := NewManualClock()
	rec := &recorder{}
	d := NewDebouncer(window, rec.deliver, clock)

	d.Normal(1)
	d.Immediate(2)
	if diff := cmp.Diff([]int{2}, rec.values()); diff != "" {
		t.Fatalf("Immediate (-want +got):\n%s", diff)
	}
	clock.Advance(time.Second)
	if diff := cmp.Diff([]int{2}, rec.values()); diff != "" {
		t.Errorf("pending value delivered after Immediate (-want +got):\n%s", diff)
	}
}

func TestDebounceStop(t *testing.T) {
	clock := NewManualClock()
	rec := &recorder{}
	d := NewDebouncer(window, rec.deliver, clock)

	d.Normal(1)
	d.Stop()
	clock.Advance(time.Second)
	d.Normal(2)
	d.Immediate(3)
	clock.Advance(time.Second)

	if got := rec.values(); len(got) != 0 {
		t.Errorf("delivered after Stop: %v", got)
	}
	if clock.Pending() != 0 {
		t.Errorf("timers left: %d", clock.Pending())
	}
}

func TestThrottle(t *testing.T) {
	clock := NewManualClock()
	rec := &recorder{}
	th := NewThrottler(window, rec.deliver, clock)

	th.Normal(1) // leading edge
	th.Normal(2)
	th.Normal(3)
	if diff := cmp.Diff([]int{1}, rec.values()); diff != "" {
		t.Fatalf("leading edge (-want +got):\n%s", diff)
	}

	clock.Advance(window) // trailing edge carries the latest value
	if diff := cmp.Diff([]int{1, 3}, rec.values()); diff != "" {
		t.Fatalf("trailing edge (-want +got):\n%s", diff)
	}

	th.Normal(4) // window reopened by the trailing delivery
	clock.Advance(window)
	clock.Advance(window)
	th.Normal(5) // window closed, goes straight through
	if diff := cmp.Diff([]int{1, 3, 4, 5}, rec.values()); diff != "" {
		t.Errorf("delivered (-want +got):\n%s", diff)
	}
}

func TestThrottleImmediateAndStop(t *testing.T) {
	clock := NewManualClock()
	rec := &recorder{}
	th := NewThrottler(window, rec.deliver, clock)

	th.Normal(1)
	th.Normal(2)
	th.Immediate(9)
	clock.Advance(window)
	if diff := cmp.Diff([]int{1, 9}, rec.values()); diff != "" {
		t.Fatalf("Immediate (-want +got):\n%s", diff)
	}

	th.Normal(10)
	th.Normal(11)
	th.Stop()
	clock.Advance(time.Second)
	th.Normal(12)
	if diff := cmp.Diff([]int{1, 9, 10}, rec.values()); diff != "" {
		t.Errorf("after Stop (-want +got):\n%s", diff)
	}
}

func TestNewSelectsPolicy(t *testing.T) {
	deliver := func(int) {}
	tests := []struct {
		name   string
		policy binding.RatePolicy
		want   string
	}{
		{"debounce", binding.RatePolicy{Policy: binding.PolicyDebounce, Delay: window}, "debounce"},
		{"throttle", binding.RatePolicy{Policy: binding.PolicyThrottle, Delay: window}, "throttle"},
		{"direct", binding.RatePolicy{Policy: binding.PolicyDirect, Delay: window}, "direct"},
		{"zero delay", binding.RatePolicy{Policy: binding.PolicyDebounce}, "direct"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			switch New(tt.policy, deliver, WithClock(NewManualClock())).(type) {
			case *Debouncer[int]:
				got = "debounce"
			case *Throttler[int]:
				got = "throttle"
			case *Invoker[int]:
				got = "direct"
			}
			if got != tt.want {
				t.Errorf("New(%+v) = %s, want %s", tt.policy, got, tt.want)
			}
		})
	}
}

func TestInvoker(t *testing.T) {
	rec := &recorder{}
	inv := NewInvoker(rec.deliver)
	inv.Normal(1)
	inv.Immediate(2)
	inv.Stop()
	inv.Normal(3)
	if diff := cmp.Diff([]int{1, 2}, rec.values()); diff != "" {
		t.Errorf("delivered (-want +got):\n%s", diff)
	}
}

func TestDebounceRealClock(t *testing.T) {
	done := make(chan int, 1)
	d := NewDebouncer(10*time.Millisecond, func(v int) { done <- v }, RealClock)
	d.Normal(1)
	d.Normal(2)

	select {
	case v := <-done:
		if v != 2 {
			t.Errorf("delivered %d, want 2", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debounced value never delivered")
	}
}

func TestManualClockStop(t *testing.T) {
	clock := NewManualClock()
	fired := false
	timer := clock.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Error("Stop() = false on pending timer")
	}
	if timer.Stop() {
		t.Error("second Stop() = true")
	}
	clock.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}
