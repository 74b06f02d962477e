// Package binding defines the input binding contract between widgets on a
// page and the host framework that relays their values to the server.
//
// An InputBinding knows how to discover its elements in a scope, read and
// write their values, subscribe to their changes and apply partial updates
// pushed from the server. Bindings are registered explicitly at startup:
//
//	reg := binding.NewRegistry()
//	if err := reg.Register("shiny.sliderBS2Input", slider.New(logger), 0); err != nil {
//	    return err
//	}
//
// Values are either a single number or an ordered low/high pair. On the
// wire a single value is a JSON number and a pair is a two-element array.
package binding
