package binding

import "github.com/vango-dev/sliderbind/pkg/dom"

// InputBinding exposes a kind of DOM widget as a reactive value source and
// sink. All methods run on the goroutine that owns the element's document.
type InputBinding interface {
	// Find returns the elements under scope handled by this binding.
	Find(scope *dom.Element) []*dom.Element

	// ID returns the input id used as the reactive value key.
	ID(el *dom.Element) string

	// Type returns the value type name used for coercion. The second result
	// is false when values pass through uncoerced.
	Type(el *dom.Element) (string, bool)

	// Initialize prepares the widget on el. It is called once per element
	// before any other per-element method.
	Initialize(el *dom.Element) error

	// Value reads the current value.
	Value(el *dom.Element) Value

	// SetValue writes a value without notifying subscribers.
	SetValue(el *dom.Element, v Value)

	// Subscribe registers cb for value changes on el. The callback argument
	// reports whether delivery may be deferred by the rate policy.
	Subscribe(el *dom.Element, cb func(allowDeferred bool)) Subscription

	// Unsubscribe removes exactly the listeners registered by Subscribe.
	// A zero Subscription is a no-op.
	Unsubscribe(el *dom.Element, sub Subscription)

	// ReceiveMessage applies a partial update pushed from the server.
	ReceiveMessage(el *dom.Element, msg Message)

	// RatePolicy tells the host how to rate-limit change notifications.
	RatePolicy() RatePolicy

	// State returns a snapshot of the element's state.
	State(el *dom.Element) State
}

// Subscription identifies the listeners attached by Subscribe.
type Subscription struct {
	handles []dom.Handle
}

// NewSubscription wraps listener handles.
func NewSubscription(handles ...dom.Handle) Subscription {
	return Subscription{handles: handles}
}

// Handles returns the wrapped listener handles.
func (s Subscription) Handles() []dom.Handle {
	return s.handles
}

// IsZero reports whether the subscription holds no listeners.
func (s Subscription) IsZero() bool {
	return len(s.handles) == 0
}

// State is a full snapshot of a slider element.
type State struct {
	Label  string  `json:"label"`
	Value  Value   `json:"value"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Step   float64 `json:"step"`
	Round  int     `json:"round"`
	Format string  `json:"format"`
	Locale string  `json:"locale"`
}
