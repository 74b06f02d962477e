package ratelimit

import (
	"sync"
	"time"

	"github.com/vango-dev/sliderbind/pkg/binding"
)

// Limiter applies a rate policy to a stream of values.
type Limiter[T any] interface {
	// Normal submits a value subject to the policy.
	Normal(v T)

	// Immediate cancels any pending value and delivers v now.
	Immediate(v T)

	// Stop cancels pending deliveries. Later calls are ignored.
	Stop()
}

// Option configures a Limiter.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock sets the clock used for scheduling. Default: RealClock.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// New returns the Limiter for policy. A non-positive delay degrades to
// direct delivery.
func New[T any](policy binding.RatePolicy, deliver func(T), opts ...Option) Limiter[T] {
	o := options{clock: RealClock}
	for _, opt := range opts {
		opt(&o)
	}
	if policy.Delay <= 0 {
		return NewInvoker(deliver)
	}
	switch policy.Policy {
	case binding.PolicyDebounce:
		return NewDebouncer(policy.Delay, deliver, o.clock)
	case binding.PolicyThrottle:
		return NewThrottler(policy.Delay, deliver, o.clock)
	default:
		return NewInvoker(deliver)
	}
}

// Invoker delivers every value synchronously.
type Invoker[T any] struct {
	mu      sync.Mutex
	deliver func(T)
	stopped bool
}

// NewInvoker creates an Invoker.
func NewInvoker[T any](deliver func(T)) *Invoker[T] {
	return &Invoker[T]{deliver: deliver}
}

func (i *Invoker[T]) Normal(v T) { i.Immediate(v) }
func (i *Invoker[T]) Immediate(v T) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.stopped {
		i.deliver(v)
	}
}
func (i *Invoker[T]) Stop() {
	i.mu.Lock()
	i.stopped = true
	i.mu.Unlock()
}

// Debouncer delivers the most recent value once no value has been submitted
// for the delay.
type Debouncer[T any] struct {
	mu      sync.Mutex
	deliver func(T)
	clock   Clock
	delay   time.Duration

	timer      Timer
	seq        uint64
	pending    T
	hasPending bool
	stopped    bool

	deliverMu sync.Mutex
}

// NewDebouncer creates a Debouncer.
func NewDebouncer[T any](delay time.Duration, deliver func(T), clock Clock) *Debouncer[T] {
	return &Debouncer[T]{deliver: deliver, clock: clock, delay: delay}
}

// Normal restarts the quiet window with v as the pending value.
func (d *Debouncer[T]) Normal(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending, d.hasPending = v, true
	d.seq++
	seq := d.seq
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(seq) })
}

// Immediate drops the pending value and delivers v.
func (d *Debouncer[T]) Immediate(v T) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.cancelLocked()
	d.mu.Unlock()
	d.emit(v)
}

// Stop cancels the pending value.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.cancelLocked()
}

// Pending reports whether a value is waiting for the window to close.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hasPending
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	if d.stopped || seq != d.seq || !d.hasPending {
		d.mu.Unlock()
		return
	}
	v := d.pending
	var zero T
	d.pending, d.hasPending, d.timer = zero, false, nil
	d.mu.Unlock()
	d.emit(v)
}

func (d *Debouncer[T]) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	var zero T
	d.pending, d.hasPending = zero, false
	d.seq++
}

func (d *Debouncer[T]) emit(v T) {
	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()
	d.deliver(v)
}

// Throttler delivers the first value at once, then at most one value per
// delay. The value delivered at the end of a window is the latest one.
type Throttler[T any] struct {
	mu      sync.Mutex
	deliver func(T)
	clock   Clock
	delay   time.Duration

	timer      Timer
	seq        uint64
	pending    T
	hasPending bool
	stopped    bool

	deliverMu sync.Mutex
}

// NewThrottler creates a Throttler.
func NewThrottler[T any](delay time.Duration, deliver func(T), clock Clock) *Throttler[T] {
	return &Throttler[T]{deliver: deliver, clock: clock, delay: delay}
}

// Normal delivers v now if no window is open, else keeps it for the end of
// the window.
func (t *Throttler[T]) Normal(v T) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if t.timer != nil {
		t.pending, t.hasPending = v, true
		t.mu.Unlock()
		return
	}
	t.openWindowLocked()
	t.mu.Unlock()
	t.emit(v)
}

// Immediate delivers v now and starts a new window.
func (t *Throttler[T]) Immediate(v T) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	var zero T
	t.pending, t.hasPending = zero, false
	t.openWindowLocked()
	t.mu.Unlock()
	t.emit(v)
}

// Stop cancels the open window and the pending value.
func (t *Throttler[T]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	var zero T
	t.pending, t.hasPending = zero, false
	t.seq++
}

func (t *Throttler[T]) openWindowLocked() {
	t.seq++
	seq := t.seq
	t.timer = t.clock.AfterFunc(t.delay, func() { t.windowClosed(seq) })
}

func (t *Throttler[T]) windowClosed(seq uint64) {
	t.mu.Lock()
	if t.stopped || seq != t.seq {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	if !t.hasPending {
		t.mu.Unlock()
		return
	}
	v := t.pending
	var zero T
	t.pending, t.hasPending = zero, false
	t.openWindowLocked()
	t.mu.Unlock()
	t.emit(v)
}

func (t *Throttler[T]) emit(v T) {
	t.deliverMu.Lock()
	defer t.deliverMu.Unlock()
	t.deliver(v)
}
