package promise

// Combinators derive new promises from existing ones. They are free
// functions rather than methods because Go methods cannot introduce type
// parameters.
//
// Every derived promise is itself lazy: it attaches to its source only once
// somebody observes it, so an unobserved chain never runs any resolver.

// Map returns a promise that resolves to transform applied to p's success
// value. A failure of p propagates to the new promise untransformed.
func Map[T, U any](p *Promise[T], transform func(T) U) *Promise[U] {
	return New(func(report func(Outcome[U])) {
		p.Then(func(v T) {
			report(Success(transform(v)))
		})
		p.Catch(func(err error) {
			report(Failure[U](err))
		})
	})
}

// TryMap is Map for transforms that can fail: a non-nil error resolves the
// new promise to failure. A failure of p still propagates untransformed.
func TryMap[T, U any](p *Promise[T], transform func(T) (U, error)) *Promise[U] {
	return New(func(report func(Outcome[U])) {
		p.Then(func(v T) {
			u, err := transform(v)
			if err != nil {
				report(Failure[U](err))
				return
			}
			report(Success(u))
		})
		p.Catch(func(err error) {
			report(Failure[U](err))
		})
	})
}

// FlatMap chains promise-producing work: on p's success it obtains the
// dependent promise from transform and forwards that promise's eventual
// outcome, success or failure, without nesting. A failure of p skips
// transform and propagates directly.
func FlatMap[T, U any](p *Promise[T], transform func(T) *Promise[U]) *Promise[U] {
	return New(func(report func(Outcome[U])) {
		p.Then(func(v T) {
			forward(transform(v), report)
		})
		p.Catch(func(err error) {
			report(Failure[U](err))
		})
	})
}

// CatchMap is FlatMap on the failure channel: on p's failure it obtains a
// replacement promise from transform and forwards its outcome; p's success
// passes through untouched.
func CatchMap[T any](p *Promise[T], transform func(error) *Promise[T]) *Promise[T] {
	return New(func(report func(Outcome[T])) {
		p.Then(func(v T) {
			report(Success(v))
		})
		p.Catch(func(err error) {
			forward(transform(err), report)
		})
	})
}

// forward wires a dependent promise's outcome into report.
func forward[T any](p *Promise[T], report func(Outcome[T])) {
	p.Then(func(v T) {
		report(Success(v))
	})
	p.Catch(func(err error) {
		report(Failure[T](err))
	})
}
