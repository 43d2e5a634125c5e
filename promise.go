package promise

import (
	"github.com/fioman/promise/internal/lane"
)

// ResolverFunc produces the eventual outcome of a promise. It is invoked at
// most once, on the coordination lane, the first time the promise is
// observed. The work itself may hop to any goroutine; report is safe to call
// from anywhere and marshals back onto the coordination lane before touching
// the promise. Calling report more than once is a no-op after the first
// outcome is stored. A resolver that never calls report leaves the promise
// pending forever, with every observer unfired.
type ResolverFunc[T any] func(report func(Outcome[T]))

// Promise is a single-shot deferred value: it resolves to exactly one
// Outcome, at an unspecified future time, and delivers it to observers on
// the coordination lane in registration order.
//
// All mutable state is owned by the coordination lane. Then, Catch and Await
// marshal onto it, so a promise may be shared freely across goroutines
// without locking.
type Promise[T any] struct {
	// consumed (set to nil) when resolution starts, so it cannot run twice.
	resolver ResolverFunc[T]

	// write-once. nil until the resolver reports.
	outcome *Outcome[T]

	// guards against a second resolver start while the first is in flight.
	resolving bool

	// fired at most once each, and only one of the two lists ever fires.
	// both are cleared together at dispatch.
	onSuccess []func(T)
	onFailure []func(error)

	// closed exactly once, when the outcome is stored.
	done chan struct{}
}

// New builds a promise around resolver. Resolution is lazy: the resolver
// does not run until the first Then, Catch or Await.
func New[T any](resolver ResolverFunc[T]) *Promise[T] {
	return &Promise[T]{
		resolver: resolver,
		done:     make(chan struct{}),
	}
}

// Fulfilled builds a promise already resolved to value. Failure observers
// attached to it will never fire.
func Fulfilled[T any](value T) *Promise[T] {
	p := &Promise[T]{done: make(chan struct{})}
	o := Success(value)
	p.outcome = &o
	close(p.done)
	return p
}

// Broken builds a promise already resolved to err. Success observers
// attached to it will never fire.
func Broken[T any](err error) *Promise[T] {
	p := &Promise[T]{done: make(chan struct{})}
	o := Failure[T](err)
	p.outcome = &o
	close(p.done)
	return p
}

// Then registers onSuccess and returns the same promise, so further
// observers can be attached fluently. The observer runs on the coordination
// lane, at most once, only if the promise resolves successfully; attaching
// after resolution still fires it. Attaching the first observer is what
// starts the resolver.
func (p *Promise[T]) Then(onSuccess func(T)) *Promise[T] {
	lane.Coordinate(func() {
		p.onSuccess = append(p.onSuccess, onSuccess)
		p.dispatch()
	})
	return p
}

// Catch registers onFailure, the failure-channel counterpart of Then.
//
// A promise whose failure is never observed discards it silently: no log, no
// panic. Attach a Catch (or use CatchMap) anywhere a failure matters.
func (p *Promise[T]) Catch(onFailure func(error)) *Promise[T] {
	lane.Coordinate(func() {
		p.onFailure = append(p.onFailure, onFailure)
		p.dispatch()
	})
	return p
}

// Await starts resolution if needed, blocks until the outcome is stored and
// returns it.
//
// Await must not be called from the coordination lane: the lane is the one
// place the outcome can be produced, so blocking it deadlocks the promise.
func (p *Promise[T]) Await() (T, error) {
	lane.Coordinate(p.dispatch)
	<-p.done
	return p.outcome.Get()
}

// dispatch runs on the coordination lane only. If the outcome is known it
// flushes the matching observer list and drops both; otherwise it starts the
// resolver, unless one is already in flight or there is none to start.
func (p *Promise[T]) dispatch() {
	if p.outcome != nil {
		success := p.onSuccess
		failure := p.onFailure
		p.onSuccess = nil
		p.onFailure = nil
		if p.outcome.Failed() {
			for _, fn := range failure {
				fn(p.outcome.Err())
			}
		} else {
			for _, fn := range success {
				fn(p.outcome.Value())
			}
		}
		return
	}
	if p.resolving {
		return
	}
	resolver := p.resolver
	p.resolver = nil
	if resolver == nil {
		// no resolver and no outcome: a promise that can never resolve.
		return
	}
	p.resolving = true
	resolver(p.report)
}

// report is handed to the resolver. Safe from any goroutine; every call
// after the first is a no-op.
func (p *Promise[T]) report(o Outcome[T]) {
	lane.Coordinate(func() {
		if p.outcome != nil {
			return
		}
		p.outcome = &o
		p.resolving = false
		close(p.done)
		p.dispatch()
	})
}
