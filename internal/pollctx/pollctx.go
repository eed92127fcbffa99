// Package pollctx gives the physical operator contract and the broadcast
// channel (§4.4, §4.5 of the design) a Go-shaped stand-in for Rust's
// Future/Waker: a poll method returns one of {ready, pending}, and on
// pending it registers a Waker that some other goroutine calls once progress
// is possible. A literal port (an explicit Waker struct threaded everywhere)
// would be unidiomatic Go; a bare channel-per-call would lose the "register
// once, wake later" shape the spec depends on. Context here is the minimal
// middle ground: one per poll attempt, cheap to construct, safe to drop.
package pollctx

// Waker is called to signal that whatever caused a Pending result may now
// have changed. Wake must be safe to call from any goroutine, any number of
// times, including after the thing it wakes has already finished.
type Waker func()

// Context is passed into every poll-style method. It carries the Waker a
// callee should register if it cannot make progress yet.
type Context struct {
	waker Waker
}

// New builds a Context around the given Waker.
func New(waker Waker) *Context {
	if waker == nil {
		waker = func() {}
	}
	return &Context{waker: waker}
}

// Waker returns the Waker registered with this Context.
func (c *Context) Waker() Waker {
	return c.waker
}

// Notifier is a reusable wake target: a goroutine polling in a loop builds
// one Notifier, derives a Context from it for every poll attempt, and blocks
// on Wait between attempts. Multiple Wake calls between two Wait calls
// coalesce into a single wakeup, same as a Rust waker driven by a runtime
// that dedupes redundant wakeups.
type Notifier struct {
	ch chan struct{}
}

// NewNotifier constructs a Notifier ready for use.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1)}
}

// Context returns a Context whose Waker wakes this Notifier.
func (n *Notifier) Context() *Context {
	return New(n.Wake)
}

// Wake signals the notifier. Non-blocking; safe to call redundantly.
func (n *Notifier) Wake() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until Wake has been called at least once since the last Wait
// returned, or done is closed.
func (n *Notifier) Wait(done <-chan struct{}) {
	select {
	case <-n.ch:
	case <-done:
	}
}

// Noop returns a Context whose Waker does nothing, for tests that drive a
// poll loop to completion without ever expecting Pending to matter.
func Noop() *Context {
	return New(func() {})
}
