package countdown

import (
	"github.com/llxisdsh/pb"
)

// LatchGroup is a set of latches addressed by arbitrary keys.
// Every key gets its own latch, created on first use with the group's
// count and options.
//
// Features:
//   - Infinite Keys: No need to pre-allocate latches.
//   - Independent: Counting down one key never affects another.
//
// Latches stay in the group after they open, so late waiters on a key
// still return immediately. Use Forget to drop a key.
//
// Keys live in a concurrent hash-trie. Lookups are lock-free and a latch
// is constructed at most once per key.
//
// Usage:
//
//	g, _ := NewLatchGroup[string](3)
//	// Workers
//	g.CountDown("job-42")
//	// Waiters
//	g.Await("job-42")
type LatchGroup[K comparable] struct {
	_      noCopy
	m      pb.HashTrieMap[K, *Latch]
	count  int64
	config LatchConfig
}

// NewLatchGroup creates a group whose latches open after count calls to
// CountDown. It validates its arguments like NewLatch.
func NewLatchGroup[K comparable](
	count int64,
	options ...func(*LatchConfig),
) (*LatchGroup[K], error) {
	c, err := newLatchConfig(count, options)
	if err != nil {
		return nil, err
	}
	return &LatchGroup[K]{count: count, config: c}, nil
}

// Latch returns the latch for k, creating it if needed.
func (g *LatchGroup[K]) Latch(k K) *Latch {
	if l, ok := g.m.Load(k); ok {
		return l
	}
	l, _ := g.m.LoadOrStoreFn(k, func() *Latch {
		return newLatch(g.count, &g.config)
	})
	return l
}

// CountDown counts down the latch for k.
func (g *LatchGroup[K]) CountDown(k K) {
	g.Latch(k).CountDown()
}

// Await blocks until the latch for k is open.
func (g *LatchGroup[K]) Await(k K) {
	g.Latch(k).Await()
}

// Forget removes the latch for k from the group.
// Goroutines already holding it, including blocked waiters, keep using it.
// The next use of k creates a fresh latch.
func (g *LatchGroup[K]) Forget(k K) {
	g.m.Delete(k)
}
