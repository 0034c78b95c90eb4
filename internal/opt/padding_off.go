//go:build (amd64 || 386 || arm || mips || mipsle || wasm || countdown_disable_padding) && !countdown_enable_padding

package opt

// Pad_ is zero-sized on amd64 and 32-bit architectures, or when forced
// with the countdown_disable_padding build tag.
type Pad_ struct{}

const Padded_ = false
