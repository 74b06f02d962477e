// Package inputs is the host side of the input binding protocol.
//
// A Binder walks a scope with every registered binding, initializes and
// subscribes the elements it finds, and relays their values to a Sink
// through each binding's rate policy. Values that equal the last value sent
// for an input are not sent again. Server-pushed updates come back in
// through Deliver.
//
//	values := inputs.NewValues()
//	binder := inputs.NewBinder(reg, values, inputs.WithLogger(logger))
//	n, err := binder.Bind(doc.Root())
//	...
//	err = binder.Deliver("speed", binding.ValueMessage(binding.Single(5)))
//
// Bind, Unbind and Deliver touch the document and must run on the
// goroutine that owns it. Rate-limited deliveries reach the Sink from timer
// goroutines, so Sinks must be safe for concurrent use.
package inputs
