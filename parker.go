package countdown

import (
	"sync/atomic"

	"github.com/llxisdsh/countdown/internal/opt"
)

// Parker blocks and wakes a single goroutine.
//
// It holds at most one permit. Unpark grants the permit (waking the parked
// goroutine, if any) and Park consumes it, blocking until it is granted.
// A permit granted before Park is called is not lost. Repeated Unpark
// calls do not accumulate permits, but two Unparks racing with a Park can
// leave one spare permit behind, so a later Park may return spuriously.
// Callers recheck their condition after Park, as ParkUntil does.
//
// Only one goroutine may Park on a Parker at a time; any number of
// goroutines may Unpark it.
//
// It is zero-value usable.
type Parker struct {
	_ noCopy
	// state:
	//   0: empty
	//   1: permit available
	//   2: a goroutine is blocked on sema
	state atomic.Uint32
	sema  opt.Sema
}

const (
	parkerEmpty = iota
	parkerPermit
	parkerParked
)

// Park blocks until a permit is available and consumes it.
func (p *Parker) Park() {
	for {
		switch p.state.Load() {
		case parkerPermit:
			if p.state.CompareAndSwap(parkerPermit, parkerEmpty) {
				return
			}
		case parkerEmpty:
			if p.state.CompareAndSwap(parkerEmpty, parkerParked) {
				// Unpark moves parked -> empty before releasing, so the
				// permit is consumed once we get past Acquire.
				p.sema.Acquire()
				return
			}
		default:
			panic("countdown: concurrent Park on the same Parker")
		}
	}
}

// Unpark makes a permit available, waking the parked goroutine if there is
// one. It is idempotent.
func (p *Parker) Unpark() {
	for {
		switch p.state.Load() {
		case parkerPermit:
			return
		case parkerEmpty:
			if p.state.CompareAndSwap(parkerEmpty, parkerPermit) {
				return
			}
		case parkerParked:
			if p.state.CompareAndSwap(parkerParked, parkerEmpty) {
				p.sema.Release()
				return
			}
		}
	}
}

// ParkUntil blocks until cond returns true.
//
// With a nil policy, cond is checked once and the goroutine parks
// immediately if it is false. Otherwise the policy's spin budget runs
// first. Either way, cond is rechecked after every wake-up, so whoever
// makes cond true must call Unpark afterwards.
func (p *Parker) ParkUntil(cond func() bool, b *Backoff) {
	if b != nil && b.spinUntil(cond) {
		return
	}
	for !cond() {
		p.Park()
	}
}
