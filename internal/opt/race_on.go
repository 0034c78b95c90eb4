//go:build race

package opt

// Race_ reports whether the race detector is enabled. Stress tests use it
// to keep their iteration counts affordable.
const Race_ = true
