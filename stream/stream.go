// Package stream bridges a promise outward to a push-based, single-subscriber
// subscription protocol (subscribe / request / cancel).
//
// The bridge is one-directional and single-shot: a successful promise emits
// exactly one value followed by a completion signal, a failed promise emits a
// failure signal, and cancelling only drops the subscriber reference; the
// promise's resolver, once started, keeps running either way.
package stream

import (
	"errors"

	"github.com/fioman/promise"
	"github.com/fioman/promise/internal/lane"
)

// ErrSubscribed is signalled to a second subscriber of the same publisher.
var ErrSubscribed = errors.New("stream: publisher already has a subscriber")

// ErrDemand is signalled when Request is called with a non-positive count.
var ErrDemand = errors.New("stream: requested demand must be positive")

// Subscriber receives the bridged outcome. OnSubscribe is invoked once,
// before any other signal; afterwards exactly one of OnNext+OnComplete or
// OnError follows, on the coordination lane.
type Subscriber[T any] interface {
	OnSubscribe(Subscription)
	OnNext(T)
	OnComplete()
	OnError(err error)
}

// Subscription controls the flow of the single bridged value.
type Subscription interface {
	// Request signals demand. The value is delivered once resolution and a
	// positive cumulative demand have both happened, in either order.
	Request(n int64)

	// Cancel drops the subscriber; no further signals are delivered. The
	// underlying resolver is not stopped.
	Cancel()
}

// Publisher adapts one promise to at most one subscriber.
type Publisher[T any] struct {
	source *promise.Promise[T]
	sub    *subscription[T]
}

func New[T any](source *promise.Promise[T]) *Publisher[T] {
	return &Publisher[T]{source: source}
}

// Subscribe attaches s to the publisher. Subscribing also triggers the
// source promise's lazy resolution. A second subscriber is rejected with
// ErrSubscribed.
func (pub *Publisher[T]) Subscribe(s Subscriber[T]) {
	lane.Coordinate(func() {
		if pub.sub != nil {
			s.OnError(ErrSubscribed)
			return
		}
		sub := &subscription[T]{subscriber: s}
		pub.sub = sub
		s.OnSubscribe(sub)

		pub.source.Then(sub.succeed)
		pub.source.Catch(sub.fail)
	})
}

// subscription state is mutated on the coordination lane only.
type subscription[T any] struct {
	subscriber Subscriber[T] // nil once cancelled or terminated
	demand     int64
	value      T
	resolved   bool
}

func (s *subscription[T]) Request(n int64) {
	lane.Coordinate(func() {
		if s.subscriber == nil {
			return
		}
		if n <= 0 {
			sub := s.subscriber
			s.subscriber = nil
			sub.OnError(ErrDemand)
			return
		}
		s.demand += n
		s.emit()
	})
}

func (s *subscription[T]) Cancel() {
	lane.Coordinate(func() {
		s.subscriber = nil
	})
}

func (s *subscription[T]) succeed(v T) {
	s.value = v
	s.resolved = true
	s.emit()
}

// fail delivers immediately: failure signals are not subject to demand.
func (s *subscription[T]) fail(err error) {
	if s.subscriber == nil {
		return
	}
	sub := s.subscriber
	s.subscriber = nil
	sub.OnError(err)
}

func (s *subscription[T]) emit() {
	if s.subscriber == nil || !s.resolved || s.demand <= 0 {
		return
	}
	sub := s.subscriber
	s.subscriber = nil
	sub.OnNext(s.value)
	sub.OnComplete()
}
