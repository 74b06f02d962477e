package binding

import (
	"fmt"
	"time"
)

// PolicyKind selects how the host rate-limits change notifications.
type PolicyKind uint8

const (
	// PolicyDirect relays every change immediately.
	PolicyDirect PolicyKind = iota

	// PolicyDebounce relays the last change once no change happened for
	// the policy delay.
	PolicyDebounce

	// PolicyThrottle relays at most one change per delay window.
	PolicyThrottle
)

// String returns the policy name used on the wire.
func (k PolicyKind) String() string {
	switch k {
	case PolicyDirect:
		return "direct"
	case PolicyDebounce:
		return "debounce"
	case PolicyThrottle:
		return "throttle"
	default:
		return fmt.Sprintf("PolicyKind(%d)", uint8(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k PolicyKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *PolicyKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "direct", "":
		*k = PolicyDirect
	case "debounce":
		*k = PolicyDebounce
	case "throttle":
		*k = PolicyThrottle
	default:
		return fmt.Errorf("binding: unknown rate policy %q", text)
	}
	return nil
}

// RatePolicy is a binding's rate-limiting request.
type RatePolicy struct {
	Policy PolicyKind    `json:"policy"`
	Delay  time.Duration `json:"delay"`
}
