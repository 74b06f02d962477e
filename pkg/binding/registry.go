package binding

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrDuplicateBinding is returned when a name is registered twice.
	ErrDuplicateBinding = errors.New("binding: duplicate binding name")

	// ErrInvalidBinding is returned for an empty name or a nil binding.
	ErrInvalidBinding = errors.New("binding: invalid binding")
)

// Entry is a registered binding.
type Entry struct {
	Name     string
	Binding  InputBinding
	Priority int

	seq int
}

// Registry holds the bindings the host uses to discover inputs. It is safe
// for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	byName  map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Register adds b under name. Higher priorities are consulted first.
func (r *Registry) Register(name string, b InputBinding, priority int) error {
	if name == "" || b == nil {
		return fmt.Errorf("%w: name=%q", ErrInvalidBinding, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateBinding, name)
	}
	r.byName[name] = len(r.entries)
	r.entries = append(r.entries, Entry{Name: name, Binding: b, Priority: priority, seq: len(r.entries)})
	return nil
}

// Lookup returns the binding registered under name.
func (r *Registry) Lookup(name string) (InputBinding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.entries[i].Binding, true
}

// Bindings returns the registered entries ordered by descending priority,
// then registration order.
func (r *Registry) Bindings() []Entry {
	r.mu.RLock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Len returns the number of registered bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
