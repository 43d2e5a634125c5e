package deferred

import (
	"sync"

	"github.com/fioman/promise"
)

// Local is an in-process Deferred. Waiters and producers must share the
// Local instance; results cross goroutines, not processes.
type Local[T any] struct {
	mu      sync.Mutex
	pending map[string]*pendingResult[T]
}

// pendingResult pairs a ticket's promise with the channel its resolver
// drains. The channel is buffered so Resolve never blocks on an unobserved
// promise.
type pendingResult[T any] struct {
	p  *promise.Promise[T]
	ch chan promise.Outcome[T]
}

func NewLocal[T any]() *Local[T] {
	return &Local[T]{
		pending: make(map[string]*pendingResult[T]),
	}
}

// Watch returns the promise for ticket, registering it on first use. All
// callers watching the same ticket share one promise, so the usual
// combinators compose over registry results.
func (d *Local[T]) Watch(ticket string) *promise.Promise[T] {
	d.mu.Lock()
	defer d.mu.Unlock()

	if pr, ok := d.pending[ticket]; ok {
		return pr.p
	}
	pr := &pendingResult[T]{
		ch: make(chan promise.Outcome[T], 1),
	}
	pr.p = promise.New(func(report func(promise.Outcome[T])) {
		go func() {
			report(<-pr.ch)
		}()
	})
	d.pending[ticket] = pr
	return pr.p
}

// Resolve delivers value for ticket and forgets it. A ticket nobody has
// watched yet, or one already settled, reports ErrTicketNotFound.
func (d *Local[T]) Resolve(ticket string, value T) error {
	return d.settle(ticket, promise.Success(value))
}

// Reject is the failure counterpart of Resolve.
func (d *Local[T]) Reject(ticket string, err error) error {
	return d.settle(ticket, promise.Failure[T](err))
}

func (d *Local[T]) settle(ticket string, o promise.Outcome[T]) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	pr, ok := d.pending[ticket]
	if !ok {
		return ErrTicketNotFound
	}
	delete(d.pending, ticket)
	pr.ch <- o
	return nil
}

// Await watches ticket and blocks for its outcome.
func (d *Local[T]) Await(ticket string) (T, error) {
	return d.Watch(ticket).Await()
}
