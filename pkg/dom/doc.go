// Package dom provides the server-side document model that input bindings
// and widget libraries operate on.
//
// A Document is a tree of Nodes. Element nodes carry attributes, a class
// list, an inline style map and a data store with jQuery-like semantics:
// Data("width") returns the explicitly stored value if present, otherwise the
// data-width attribute converted to a bool, number or string.
//
// # Events
//
// Listeners are registered with On and removed with Off. On returns an
// explicit Handle, so a caller removes exactly the listener it attached:
//
//	h := el.On("change", func(ev *dom.Event) { ... })
//	defer el.Off(h)
//
// Trigger invokes listeners synchronously, in registration order. A Document
// is owned by one goroutine at a time; callers that share a Document across
// goroutines must serialize access themselves.
//
// # Selectors
//
// Find supports the selector subset bindings need:
//
//	input.jslider
//	label[for="speed\.max"]
//	div .slider-wrap input
//
// EscapeSelector backslash-escapes selector metacharacters so arbitrary ids
// can be embedded in attribute selectors.
package dom
