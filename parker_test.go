package countdown

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/llxisdsh/countdown/internal/opt"
	"golang.org/x/sync/errgroup"
)

func TestParker_UnparkBeforePark(t *testing.T) {
	var p Parker
	p.Unpark()

	done := make(chan struct{})
	go func() {
		p.Park()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Park blocked although Unpark was called first")
	}
}

func TestParker_ParkBlocksUntilUnpark(t *testing.T) {
	var p Parker

	done := make(chan struct{})
	go func() {
		p.Park()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Park returned without Unpark")
	case <-time.After(50 * time.Millisecond):
	}

	p.Unpark()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Park did not return after Unpark")
	}
}

func TestParker_RepeatedUnparkGrantsOnePermit(t *testing.T) {
	var p Parker
	p.Unpark()
	p.Unpark()
	p.Unpark()

	// One permit only: the first Park consumes it, the second blocks.
	p.Park()

	done := make(chan struct{})
	go func() {
		p.Park()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("repeated Unpark granted more than one permit")
	case <-time.After(50 * time.Millisecond):
	}

	p.Unpark()
	<-done
}

func TestParker_ParkUntilIgnoresSparePermit(t *testing.T) {
	var p Parker
	var ready atomic.Bool

	// A permit left over from an earlier wake-up makes the next Park
	// return at once; ParkUntil must go back to sleep.
	p.Unpark()

	done := make(chan struct{})
	go func() {
		p.ParkUntil(ready.Load, nil)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("ParkUntil returned on a spare permit")
	case <-time.After(50 * time.Millisecond):
	}
	for deadline := time.Now().Add(time.Second); p.state.Load() != parkerParked; {
		if time.Now().After(deadline) {
			t.Fatalf("parker state %d, want parked after the spare permit", p.state.Load())
		}
		time.Sleep(time.Millisecond)
	}

	ready.Store(true)
	p.Unpark()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ParkUntil not woken")
	}
}

func TestParker_ConcurrentParkPanics(t *testing.T) {
	var p Parker
	p.state.Store(parkerParked)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	p.Park()
}

// Unpark races with Park many times; every Park must return.
func TestParker_UnparkRace(t *testing.T) {
	iters := 20000
	if opt.Race_ || testing.Short() {
		iters = 2000
	}

	for i := range iters {
		var p Parker
		start := make(chan struct{})
		done := make(chan struct{})
		go func() {
			<-start
			p.Park()
			close(done)
		}()
		go func() {
			<-start
			p.Unpark()
		}()
		close(start)

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("iteration %d: missed wakeup", i)
		}
	}
}

func TestParker_ParkUntil(t *testing.T) {
	policies := map[string]*Backoff{
		"block":   nil,
		"backoff": &DefaultBackoff,
		"spin-only": {
			MinSpins: 4,
			MaxSpins: 4,
			Rounds:   1 << 20,
		},
	}

	for name, b := range policies {
		t.Run(name, func(t *testing.T) {
			var (
				p    Parker
				flag atomic.Bool
				g    errgroup.Group
			)

			g.Go(func() error {
				p.ParkUntil(flag.Load, b)
				if !flag.Load() {
					return errors.New("returned before condition held")
				}
				return nil
			})

			time.Sleep(10 * time.Millisecond)
			// Stray wake-ups must not end the wait.
			p.Unpark()
			time.Sleep(10 * time.Millisecond)

			flag.Store(true)
			p.Unpark()

			done := make(chan error, 1)
			go func() { done <- g.Wait() }()
			select {
			case err := <-done:
				if err != nil {
					t.Fatal(err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("ParkUntil did not return")
			}
		})
	}
}

func TestParker_ParkUntilConditionAlreadyTrue(t *testing.T) {
	var p Parker
	calls := 0
	p.ParkUntil(func() bool {
		calls++
		return true
	}, nil)
	if calls != 1 {
		t.Fatalf("cond called %d times, want 1", calls)
	}
	p.ParkUntil(func() bool { return true }, &DefaultBackoff)
}

func TestBackoff_Validate(t *testing.T) {
	cases := []struct {
		name string
		b    Backoff
		ok   bool
	}{
		{"default", DefaultBackoff, true},
		{"zero", Backoff{}, true},
		{"negative rounds", Backoff{Rounds: -1}, false},
		{"negative min", Backoff{MinSpins: -1, MaxSpins: 1}, false},
		{"negative max", Backoff{MaxSpins: -1}, false},
		{"min above max", Backoff{MinSpins: 8, MaxSpins: 4, Rounds: 1}, false},
	}
	for _, c := range cases {
		err := c.b.validate()
		if c.ok && err != nil {
			t.Errorf("%s: unexpected error %v", c.name, err)
		}
		if !c.ok && !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: err = %v, want ErrInvalidArgument", c.name, err)
		}
	}
}

func TestBackoff_SpinUntilGivesUp(t *testing.T) {
	b := Backoff{MinSpins: 1, MaxSpins: 8, Rounds: 10}
	calls := 0
	if b.spinUntil(func() bool {
		calls++
		return false
	}) {
		t.Fatal("spinUntil reported success for a false condition")
	}
	if calls != b.Rounds+1 {
		t.Fatalf("cond called %d times, want %d", calls, b.Rounds+1)
	}
}
