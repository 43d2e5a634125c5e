package promise

// Outcome is the write-once result of a promise: either a success carrying a
// value, or a failure carrying an error. Once a promise has stored its
// outcome it never changes.
type Outcome[T any] struct {
	value  T
	err    error
	failed bool
}

// Success builds a successful outcome.
func Success[T any](value T) Outcome[T] {
	return Outcome[T]{value: value}
}

// Failure builds a failed outcome.
func Failure[T any](err error) Outcome[T] {
	return Outcome[T]{err: err, failed: true}
}

// Failed reports whether the outcome is a failure.
func (o Outcome[T]) Failed() bool {
	return o.failed
}

// Value returns the success value, or the zero value on failure.
func (o Outcome[T]) Value() T {
	return o.value
}

// Err returns the failure, or nil on success.
func (o Outcome[T]) Err() error {
	return o.err
}

// Get unpacks the outcome into the conventional value/error pair.
func (o Outcome[T]) Get() (T, error) {
	return o.value, o.err
}
