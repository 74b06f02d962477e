package inputs

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/vango-dev/sliderbind/pkg/binding"
)

// Sink receives relayed input values.
type Sink interface {
	SetInput(id string, v binding.Value)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(id string, v binding.Value)

// SetInput calls f.
func (f SinkFunc) SetInput(id string, v binding.Value) { f(id, v) }

// noResend drops values equal to the last one sent for the same input.
// Deliveries for one input reach next in the order they were recorded.
type noResend struct {
	next Sink

	mu    sync.Mutex
	last  map[string]uint64
	order map[string]*sync.Mutex
}

func newNoResend(next Sink) *noResend {
	return &noResend{
		next:  next,
		last:  make(map[string]uint64),
		order: make(map[string]*sync.Mutex),
	}
}

func (n *noResend) SetInput(id string, v binding.Value) {
	sum := fingerprint(v)
	n.mu.Lock()
	lock, ok := n.order[id]
	if !ok {
		lock = new(sync.Mutex)
		n.order[id] = lock
	}
	n.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	n.mu.Lock()
	if prev, ok := n.last[id]; ok && prev == sum {
		n.mu.Unlock()
		return
	}
	n.last[id] = sum
	n.mu.Unlock()
	n.next.SetInput(id, v)
}

// forget clears the last fingerprint of id. The ordering lock is kept so a
// delivery still in flight stays ordered against later ones.
func (n *noResend) forget(id string) {
	n.mu.Lock()
	delete(n.last, id)
	n.mu.Unlock()
}

func fingerprint(v binding.Value) uint64 {
	return xxhash.Sum64String(v.String())
}

// Values holds the server-side copy of every relayed input value and
// notifies observers on change. It is safe for concurrent use.
type Values struct {
	mu        sync.RWMutex
	values    map[string]binding.Value
	observers map[string]map[int]Observer
	nextID    int
}

// Observer is called after an input value is stored. It must not block.
type Observer func(id string, v binding.Value)

// NewValues creates an empty store.
func NewValues() *Values {
	return &Values{
		values:    make(map[string]binding.Value),
		observers: make(map[string]map[int]Observer),
	}
}

// SetInput stores v and notifies observers of id and of all inputs.
func (s *Values) SetInput(id string, v binding.Value) {
	s.mu.Lock()
	s.values[id] = v
	var notify []Observer
	for _, key := range []string{id, ""} {
		ids := make([]int, 0, len(s.observers[key]))
		for oid := range s.observers[key] {
			ids = append(ids, oid)
		}
		sort.Ints(ids)
		for _, oid := range ids {
			notify = append(notify, s.observers[key][oid])
		}
	}
	s.mu.Unlock()

	for _, fn := range notify {
		fn(id, v)
	}
}

// Get returns the stored value for id.
func (s *Values) Get(id string) (binding.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[id]
	return v, ok
}

// Snapshot returns a copy of every stored value.
func (s *Values) Snapshot() map[string]binding.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]binding.Value, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Observe registers fn for changes to id; an empty id observes every input.
// The returned function removes the observer.
func (s *Values) Observe(id string, fn Observer) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	oid := s.nextID
	if s.observers[id] == nil {
		s.observers[id] = make(map[int]Observer)
	}
	s.observers[id][oid] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers[id], oid)
		if len(s.observers[id]) == 0 {
			delete(s.observers, id)
		}
	}
}
