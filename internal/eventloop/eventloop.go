// Package eventloop models the single-threaded, run-to-completion callback
// scheduling that the page code runs under.
//
// Nothing in this package blocks. Waiting is always expressed as a callback
// registered with a Scheduler or a Future. Values here are not safe for
// concurrent use: every callback is expected to run on the page's event loop.
package eventloop

import "time"

// Timer is a pending callback registered with a Scheduler.
type Timer interface {
	// Stop cancels the callback. It reports whether the callback was still
	// pending.
	Stop() bool
}

// Scheduler runs callbacks after a delay on the event loop.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Future is a single-resolution completion signal. It carries no value and
// never rejects.
type Future struct {
	done bool
	then []func()
}

// NewFuture returns an unresolved future and the function that resolves it.
// The resolve function reports whether this call performed the resolution;
// every call after the first is a no-op returning false.
func NewFuture() (*Future, func() bool) {
	f := &Future{}
	return f, f.resolve
}

// Resolved returns a future that is already complete.
func Resolved() *Future {
	f := &Future{done: true}
	return f
}

func (f *Future) resolve() bool {
	if f.done {
		return false
	}
	f.done = true
	callbacks := f.then
	f.then = nil
	for _, fn := range callbacks {
		fn()
	}
	return true
}

// Done reports whether the future has resolved.
func (f *Future) Done() bool {
	return f.done
}

// Then registers fn to run once the future resolves. Continuations run in
// registration order; on an already resolved future fn runs immediately.
func (f *Future) Then(fn func()) {
	if fn == nil {
		return
	}
	if f.done {
		fn()
		return
	}
	f.then = append(f.then, fn)
}
