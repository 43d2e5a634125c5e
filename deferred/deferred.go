// Package deferred provides ticket-keyed registries on top of the promise
// engine: a producer somewhere resolves or rejects a ticket, and consumers
// holding the same ticket observe the result as a promise.
//
// Local keeps everything in one process. Redis spans processes over a
// pub/sub channel.
package deferred

import (
	"errors"

	"github.com/oklog/ulid/v2"
)

// Deferred is a registry of pending results addressed by caller-chosen
// tickets.
type Deferred[T any] interface {
	// Resolve delivers value to whoever awaits ticket.
	Resolve(ticket string, value T) error

	// Reject delivers err to whoever awaits ticket.
	Reject(ticket string, err error) error

	// Await blocks until ticket is resolved or rejected.
	Await(ticket string) (T, error)
}

// ErrTicketNotFound is returned when no promise is registered for a ticket.
var ErrTicketNotFound = errors.New("deferred: no promise registered for ticket")

// NewTicket mints a unique ticket.
func NewTicket() string {
	return ulid.Make().String()
}
