package countdown

import "errors"

// ErrInvalidArgument is returned (wrapped) when a latch or a backoff
// policy is constructed from values it cannot represent.
var ErrInvalidArgument = errors.New("countdown: invalid argument")
