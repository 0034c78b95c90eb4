package countdown

import (
	"sync/atomic"

	"github.com/llxisdsh/countdown/internal/opt"
)

// Latch is a one-shot countdown latch.
//
// It is created with a target count. Each CountDown call decrements the
// count by one until it reaches zero, at which point the latch opens for
// good: every blocked Await call returns and every future Await call
// returns immediately. CountDown calls past zero are no-ops.
//
// Waiters are kept on a lock-free stack. Only the CountDown call that
// moves the count from 1 to 0 touches it again, so CountDown never blocks
// and the cost of waking N waiters is paid once, by that call.
//
// Use NewLatch to create one.
type Latch struct {
	_ noCopy
	// count is the number of CountDown calls still needed.
	// It never increases, and never changes once it is 0.
	count atomic.Int64
	_     opt.Pad_
	// head is the top of the waiter stack.
	// After the latch opens it is latchDrained forever.
	head    atomic.Pointer[latchWaiter]
	target  int64
	backoff *Backoff
}

type latchWaiter struct {
	// next is written before the waiter is published by the CAS on head.
	next   *latchWaiter
	state  atomic.Uint32
	parker Parker
}

const (
	latchWaiting uint32 = iota
	latchSignaled
)

// latchDrained marks a wait stack that has been handed to the waker.
// Nothing is ever pushed on top of it.
var latchDrained = &latchWaiter{}

// testHookAwaitPushed runs in Await between the push and the recheck.
var testHookAwaitPushed func(l *Latch, w *latchWaiter)

// NewLatch creates a latch that opens after count calls to CountDown.
// A zero count yields a latch that is already open.
// It returns an error wrapping ErrInvalidArgument if count is negative or
// an option carries an invalid backoff policy.
func NewLatch(count int64, options ...func(*LatchConfig)) (*Latch, error) {
	c, err := newLatchConfig(count, options)
	if err != nil {
		return nil, err
	}
	return newLatch(count, &c), nil
}

func newLatch(count int64, c *LatchConfig) *Latch {
	l := &Latch{
		target:  count,
		backoff: c.backoff,
	}
	l.count.Store(count)
	if count == 0 {
		l.head.Store(latchDrained)
	}
	return l
}

// CountDown decrements the count, opening the latch when it reaches zero.
// It is a no-op once the latch is open.
func (l *Latch) CountDown() {
	for {
		c := l.count.Load()
		if c == 0 {
			return
		}
		if l.count.CompareAndSwap(c, c-1) {
			if c == 1 {
				l.release()
			}
			return
		}
	}
}

// release wakes every waiter pushed before the stack was drained.
// It runs exactly once, in the CountDown call that won the 1 -> 0 CAS.
func (l *Latch) release() {
	w := l.head.Swap(latchDrained)
	for w != nil {
		// w may return from Await as soon as it is unparked.
		next := w.next
		if w.state.CompareAndSwap(latchWaiting, latchSignaled) {
			w.parker.Unpark()
		}
		w = next
	}
}

// Await blocks until the latch is open.
// If the latch is already open, it returns immediately.
func (l *Latch) Await() {
	if l.count.Load() == 0 {
		return
	}

	w := &latchWaiter{}
	for {
		h := l.head.Load()
		if h == latchDrained {
			return
		}
		w.next = h
		if l.head.CompareAndSwap(h, w) {
			break
		}
	}
	if testHookAwaitPushed != nil {
		testHookAwaitPushed(l, w)
	}

	// The push is visible to the CountDown that opens the latch, or that
	// CountDown already happened and we see count == 0 here. In the latter
	// case we deregister by signaling ourselves; release skips signaled
	// waiters.
	if l.count.Load() == 0 {
		w.state.CompareAndSwap(latchWaiting, latchSignaled)
		return
	}

	w.parker.ParkUntil(func() bool {
		return w.state.Load() == latchSignaled || l.count.Load() == 0
	}, l.backoff)
}

// Count returns the number of CountDown calls still needed to open the
// latch.
func (l *Latch) Count() int64 {
	return l.count.Load()
}

// Target returns the count the latch was created with.
func (l *Latch) Target() int64 {
	return l.target
}

// IsOpen reports whether the latch has opened.
func (l *Latch) IsOpen() bool {
	return l.count.Load() == 0
}
