//go:build (!(amd64 || 386 || arm || mips || mipsle || wasm) && !countdown_disable_padding) || countdown_enable_padding

package opt

// Pad_ separates the hot counter of a latch from its wait stack.
// Padding is enabled for 64-bit architectures other than amd64
// (arm64, s390x, ppc64, ppc64le, riscv64, loong64, mips64, mips64le, etc.),
// or when forced with the countdown_enable_padding build tag.
type Pad_ [CacheLineSize_]byte

const Padded_ = true
