// Package promise implements a single-shot deferred value with a designated
// coordination lane.
//
// A Promise resolves exactly once, to either a success value or a failure,
// and delivers that outcome to observers registered with Then and Catch.
// Delivery always happens on the coordination lane, a single dedicated
// goroutine, regardless of which goroutine produced the outcome. Observers
// fire in registration order, at most once each, and only the list matching
// the outcome ever fires.
//
// Resolution is lazy. A promise built with New holds its resolver until the
// first Then, Catch or Await, runs it at most once, and ignores every report
// after the first. Observers attached after resolution still fire; there is
// no missed-notification window.
//
// Two pitfalls are part of the contract rather than bugs:
//
//   - A failure nobody observes is discarded silently. If a failure matters,
//     attach a Catch or route the chain through CatchMap.
//   - Await blocks the calling goroutine until resolution, so calling it
//     from the coordination lane deadlocks the promise it is waiting on.
//
// Deriving combinators (Map, TryMap, FlatMap, CatchMap) and the subpackages
// stream (single-subscriber reactive bridge) and deferred (ticket-keyed
// registries, in-process and Redis-backed) build on this core.
package promise
