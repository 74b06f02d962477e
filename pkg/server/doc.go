// Package server hosts pages with bound slider inputs and relays their
// values over WebSocket.
//
// Each WebSocket connection owns a Session. The browser sends "init" with a
// page name; the session builds the page's dom.Document, binds its inputs
// and answers with the rendered HTML. Drag and animate messages are applied
// to the widgets on the session's event loop, and the values the binder
// relays (debounced per input) are pushed back in "values" messages and
// handed to the registered InputHandlers.
//
// # Concurrency
//
// A session's document and binder are only touched from its event loop.
// Other goroutines go through Dispatch:
//
//	s.Dispatch(func() {
//	    // safe to read or mutate the session's document here
//	})
//
// InputHandlers run on the event loop too, so they may call
// SendInputMessage without further synchronization.
//
// # Routes
//
//	GET  /                             page shell (?page=name)
//	GET  /ws                           WebSocket endpoint
//	GET  /static/sliderbind.js         client script
//	GET  /metrics                      Prometheus metrics
//	GET  /healthz                      liveness
//	GET  /api/sessions/{id}/state      live snapshot of a session
//	POST /api/sessions/{id}/inputs     push a protocol.InputMessage
//	POST /api/sessions/{id}/snapshots  save a snapshot to the store
package server
