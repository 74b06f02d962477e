package dom

import "sync/atomic"

// Handle identifies a registered listener. The zero Handle is never issued
// and no two listeners share a handle, whatever node or document they are on.
type Handle uint64

var handleSeq atomic.Uint64

// Event is passed to listeners by Trigger.
type Event struct {
	Type   string
	Target *Node
}

// Listener handles an event.
type Listener func(ev *Event)

type listener struct {
	handle Handle
	event  string
	fn     Listener
}

// On registers fn for events of the given type and returns its handle.
func (n *Node) On(event string, fn Listener) Handle {
	h := Handle(handleSeq.Add(1))
	n.listeners = append(n.listeners, listener{handle: h, event: event, fn: fn})
	return h
}

// Off removes the listener registered under h. It reports whether a listener
// was removed; unknown and zero handles are a no-op.
func (n *Node) Off(h Handle) bool {
	if h == 0 {
		return false
	}
	for i, l := range n.listeners {
		if l.handle == h {
			n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// ListenerCount returns the number of listeners registered for event.
// An empty event counts all listeners.
func (n *Node) ListenerCount(event string) int {
	count := 0
	for _, l := range n.listeners {
		if event == "" || l.event == event {
			count++
		}
	}
	return count
}

// Trigger invokes the listeners registered for event on n, in registration
// order. Listeners added or removed while dispatching take effect on the
// next Trigger.
func (n *Node) Trigger(event string) {
	if len(n.listeners) == 0 {
		return
	}
	snapshot := make([]listener, len(n.listeners))
	copy(snapshot, n.listeners)
	ev := &Event{Type: event, Target: n}
	for _, l := range snapshot {
		if l.event == event {
			l.fn(ev)
		}
	}
}
