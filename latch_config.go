package countdown

import "fmt"

// LatchConfig defines configurable options for Latch initialization.
type LatchConfig struct {
	// backoff selects the wait strategy of Await.
	// If nil, waiters park as soon as they find the latch closed.
	backoff *Backoff
}

// WithBackoff makes waiters spin with DefaultBackoff before parking.
func WithBackoff() func(*LatchConfig) {
	return WithBackoffPolicy(DefaultBackoff)
}

// WithBackoffPolicy makes waiters spin with the given policy before
// parking. The policy is validated by the constructor.
func WithBackoffPolicy(b Backoff) func(*LatchConfig) {
	return func(c *LatchConfig) {
		c.backoff = &b
	}
}

func newLatchConfig(count int64, options []func(*LatchConfig)) (LatchConfig, error) {
	var c LatchConfig
	if count < 0 {
		return c, fmt.Errorf("%w: negative latch count %d", ErrInvalidArgument, count)
	}
	for _, o := range options {
		if o != nil {
			o(&c)
		}
	}
	if c.backoff != nil {
		if err := c.backoff.validate(); err != nil {
			return LatchConfig{}, err
		}
	}
	return c, nil
}
