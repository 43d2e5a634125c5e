// Package lane provides the work-scheduling facility backing the promise
// engine: a coordination lane that runs submitted jobs one at a time, in
// submission order, on a single dedicated goroutine, plus background
// submission with an optional delay.
//
// The coordination lane is what gives promises their delivery guarantees;
// nothing outside this module should ever need to touch it directly.
package lane

import (
	"sync"
	"time"
)

// Lane is a FIFO job queue drained by a single goroutine.
//
// Submit never blocks the caller: jobs are appended to an unbounded queue
// and the draining goroutine is signalled. A job running on the lane may
// therefore submit further jobs without deadlocking itself.
type Lane struct {
	mu      sync.Mutex
	wake    *sync.Cond
	jobs    []func()
	running bool
}

func New() *Lane {
	l := &Lane{}
	l.wake = sync.NewCond(&l.mu)
	return l
}

// Submit queues fn to run on the lane after all previously submitted jobs.
func (l *Lane) Submit(fn func()) {
	l.mu.Lock()
	l.jobs = append(l.jobs, fn)
	if !l.running {
		l.running = true
		go l.drain()
	}
	l.wake.Signal()
	l.mu.Unlock()
}

// drain runs jobs in order for the lifetime of the process. The goroutine
// parks on the condition variable when the queue empties rather than
// exiting, so the lane keeps a stable identity once started.
func (l *Lane) drain() {
	for {
		l.mu.Lock()
		for len(l.jobs) == 0 {
			l.wake.Wait()
		}
		job := l.jobs[0]
		l.jobs = l.jobs[1:]
		l.mu.Unlock()

		job()
	}
}

var (
	coordOnce sync.Once
	coord     *Lane
)

// Coordinate submits fn to the process-wide coordination lane, starting the
// lane on first use.
func Coordinate(fn func()) {
	coordOnce.Do(func() {
		coord = New()
	})
	coord.Submit(fn)
}

// After runs fn on a background goroutine once d has elapsed. A zero or
// negative delay starts fn immediately.
func After(d time.Duration, fn func()) {
	if d <= 0 {
		go fn()
		return
	}
	time.AfterFunc(d, fn)
}
