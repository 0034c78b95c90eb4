package countdown

import (
	"fmt"
	"runtime"
)

// Backoff is a spin-then-block policy for waiters.
//
// Before parking, a waiter runs up to Rounds rounds. Each round checks the
// wake condition and then either busy-waits for a number of processor
// pauses or yields the processor:
//   - While the scheduler reports that spinning is worthwhile (multicore,
//     idle Ps, only the first few rounds), it spins. The spin count starts
//     at MinSpins and doubles each spinning round, capped at MaxSpins.
//   - Otherwise it calls runtime.Gosched.
//
// When the budget is exhausted the waiter blocks.
//
// The schedule only tunes latency against CPU usage. Correctness never
// depends on it.
type Backoff struct {
	// MinSpins is the number of pauses in the first spinning round.
	MinSpins int
	// MaxSpins caps the number of pauses per round.
	MaxSpins int
	// Rounds is the number of spin or yield rounds before blocking.
	// The condition is checked before each round and once more after
	// the last one.
	Rounds int
}

// DefaultBackoff is the policy installed by WithBackoff.
var DefaultBackoff = Backoff{
	MinSpins: 1,
	MaxSpins: 16,
	Rounds:   16,
}

func (b Backoff) validate() error {
	if b.MinSpins < 0 || b.MaxSpins < 0 || b.Rounds < 0 {
		return fmt.Errorf("%w: negative backoff field in %+v", ErrInvalidArgument, b)
	}
	if b.MinSpins > b.MaxSpins {
		return fmt.Errorf(
			"%w: backoff MinSpins %d exceeds MaxSpins %d",
			ErrInvalidArgument, b.MinSpins, b.MaxSpins,
		)
	}
	return nil
}

// spinUntil runs the spin budget and reports whether cond became true
// before it ran out.
func (b *Backoff) spinUntil(cond func() bool) bool {
	spins := max(b.MinSpins, 1)
	for round := range b.Rounds {
		if cond() {
			return true
		}
		if runtime_canSpin(round) {
			for range spins {
				runtime_doSpin()
			}
			spins = max(min(spins<<1, b.MaxSpins), 1)
		} else {
			runtime.Gosched()
		}
	}
	return cond()
}
