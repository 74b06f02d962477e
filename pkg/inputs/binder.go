package inputs

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vango-dev/sliderbind/pkg/binding"
	"github.com/vango-dev/sliderbind/pkg/dom"
	"github.com/vango-dev/sliderbind/pkg/ratelimit"
)

var (
	// ErrInputNotFound is returned by Deliver for ids that are not bound.
	ErrInputNotFound = errors.New("inputs: input not found")

	// ErrDuplicateInput is reported by Bind when two elements share an id.
	ErrDuplicateInput = errors.New("inputs: duplicate input id")
)

// Option configures a Binder.
type Option func(*Binder)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Binder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClock sets the clock rate limiters schedule on.
func WithClock(c ratelimit.Clock) Option {
	return func(b *Binder) {
		b.clock = c
	}
}

type boundInput struct {
	id      string
	name    string
	el      *dom.Element
	binding binding.InputBinding
	sub     binding.Subscription
	limiter ratelimit.Limiter[binding.Value]
}

// Binder connects bound elements to a Sink.
type Binder struct {
	registry *binding.Registry
	sink     *noResend
	logger   *slog.Logger
	clock    ratelimit.Clock

	byElement map[*dom.Element]*boundInput
	byID      map[string]*boundInput
	docs      map[*dom.Document]bool
}

// NewBinder creates a Binder that relays values to sink.
func NewBinder(reg *binding.Registry, sink Sink, opts ...Option) *Binder {
	b := &Binder{
		registry:  reg,
		sink:      newNoResend(sink),
		logger:    slog.Default(),
		clock:     ratelimit.RealClock,
		byElement: make(map[*dom.Element]*boundInput),
		byID:      make(map[string]*boundInput),
		docs:      make(map[*dom.Document]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bind binds every unbound input under scope and sends their initial
// values. It returns the number of newly bound inputs; failures for
// individual elements are joined into the error and do not stop the walk.
func (b *Binder) Bind(scope *dom.Element) (int, error) {
	if doc := scope.Document(); doc != nil && !b.docs[doc] {
		b.docs[doc] = true
		doc.OnRemove(b.elementRemoved)
	}

	var errs []error
	count := 0
	for _, entry := range b.registry.Bindings() {
		for _, el := range entry.Binding.Find(scope) {
			if _, ok := b.byElement[el]; ok {
				continue
			}
			in, err := b.bindOne(entry, el)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			count++
			b.sink.SetInput(in.id, in.binding.Value(el))
		}
	}
	return count, errors.Join(errs...)
}

func (b *Binder) bindOne(entry binding.Entry, el *dom.Element) (*boundInput, error) {
	id := entry.Binding.ID(el)
	if id == "" {
		b.logger.Warn("skipping input without id", "binding", entry.Name)
		return nil, fmt.Errorf("inputs: %s: element without id", entry.Name)
	}
	if other, ok := b.byID[id]; ok && other.el != el {
		b.logger.Warn("duplicate input id", "input", id, "binding", entry.Name)
		return nil, fmt.Errorf("%w: %q", ErrDuplicateInput, id)
	}
	if err := entry.Binding.Initialize(el); err != nil {
		b.logger.Error("input initialization failed", "input", id, "binding", entry.Name, "error", err)
		return nil, fmt.Errorf("inputs: initialize %q: %w", id, err)
	}

	in := &boundInput{id: id, name: entry.Name, el: el, binding: entry.Binding}
	in.limiter = ratelimit.New(entry.Binding.RatePolicy(), func(v binding.Value) {
		b.sink.SetInput(id, v)
	}, ratelimit.WithClock(b.clock))
	in.sub = entry.Binding.Subscribe(el, func(allowDeferred bool) {
		v := in.binding.Value(el)
		if allowDeferred {
			in.limiter.Normal(v)
		} else {
			in.limiter.Immediate(v)
		}
	})

	b.byElement[el] = in
	b.byID[id] = in
	b.logger.Debug("input bound", "input", id, "binding", entry.Name)
	return in, nil
}

// Unbind unsubscribes every bound input under scope (scope included) and
// returns how many were released.
func (b *Binder) Unbind(scope *dom.Element) int {
	var victims []*boundInput
	for el, in := range b.byElement {
		if scope.Contains(el) {
			victims = append(victims, in)
		}
	}
	for _, in := range victims {
		b.release(in)
	}
	return len(victims)
}

func (b *Binder) elementRemoved(el *dom.Element) {
	if in, ok := b.byElement[el]; ok {
		b.release(in)
	}
}

func (b *Binder) release(in *boundInput) {
	in.binding.Unsubscribe(in.el, in.sub)
	in.limiter.Stop()
	delete(b.byElement, in.el)
	delete(b.byID, in.id)
	b.sink.forget(in.id)
	b.logger.Debug("input unbound", "input", in.id)
}

// Deliver applies a server-pushed message to the input bound under id.
func (b *Binder) Deliver(id string, msg binding.Message) error {
	in, ok := b.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInputNotFound, id)
	}
	in.binding.ReceiveMessage(in.el, msg)
	return nil
}

// IDs returns the bound input ids, sorted.
func (b *Binder) IDs() []string {
	ids := make([]string, 0, len(b.byID))
	for id := range b.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Element returns the element bound under id.
func (b *Binder) Element(id string) (*dom.Element, bool) {
	in, ok := b.byID[id]
	if !ok {
		return nil, false
	}
	return in.el, true
}

// Value reads the current value of the input bound under id.
func (b *Binder) Value(id string) (binding.Value, bool) {
	in, ok := b.byID[id]
	if !ok {
		return binding.Value{}, false
	}
	return in.binding.Value(in.el), true
}

// State returns the state snapshot of the input bound under id.
func (b *Binder) State(id string) (binding.State, bool) {
	in, ok := b.byID[id]
	if !ok {
		return binding.State{}, false
	}
	return in.binding.State(in.el), true
}

// States returns the state of every bound input.
func (b *Binder) States() map[string]binding.State {
	out := make(map[string]binding.State, len(b.byID))
	for id, in := range b.byID {
		out[id] = in.binding.State(in.el)
	}
	return out
}

// Close releases every bound input.
func (b *Binder) Close() {
	for _, in := range b.byElement {
		b.release(in)
	}
}
