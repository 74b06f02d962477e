// Package ratelimit implements the host-side rate policies applied to input
// change notifications.
//
// A Limiter receives every change through Normal, which is subject to the
// policy, or Immediate, which cancels anything pending and delivers at once:
//
//	l := ratelimit.New(binding.RatePolicy{Policy: binding.PolicyDebounce, Delay: 250 * time.Millisecond},
//	    func(v binding.Value) { sink.SetInput(id, v) })
//	l.Normal(v) // coalesced with other calls in the window
//
// Debounce delivers the last value once the input has been quiet for the
// delay. Throttle delivers the first value at once and then at most one
// value per delay, always ending with the latest value. Direct delivers
// every call.
package ratelimit
