package sequex

import (
	"github.com/llxisdsh/pb"
)

// Group manages one rotation per key (string, int, struct, etc.),
// creating rotations on first use and removing them when closed.
//
// Usage:
//
//	var g Group[string, int]
//	handles := g.Open("shard-7", 0, 3)
//	// distribute handles to the shard's three workers
//	g.Close("shard-7")
//
// The zero value is ready to use. Uses a concurrent map internally, so
// Open and Close may be called from any goroutine.
type Group[K comparable, T any] struct {
	_ noCopy
	m pb.MapOf[K, []*Sequex[T]]
}

// Open returns the handle batch for key, creating a fresh rotation with
// the given initial value and participant count if none exists. The first
// Open for a key wins: later calls return the existing batch and ignore
// value and n.
//
// Panics if a rotation must be created and n <= 0.
func (g *Group[K, T]) Open(key K, value T, n int) []*Sequex[T] {
	handles, _ := g.m.ProcessEntry(
		key,
		func(l *pb.EntryOf[K, []*Sequex[T]]) (*pb.EntryOf[K, []*Sequex[T]], []*Sequex[T], bool) {
			if l != nil {
				return l, l.Value, true
			}
			hs := New(value, n)
			return &pb.EntryOf[K, []*Sequex[T]]{Value: hs}, hs, false
		},
	)
	return handles
}

// Close poisons the rotation for key and removes it from the group,
// reporting whether one existed. Handles already distributed remain valid
// pointers; they simply observe the poisoned state from then on.
func (g *Group[K, T]) Close(key K) bool {
	handles, ok := g.m.ProcessEntry(
		key,
		func(l *pb.EntryOf[K, []*Sequex[T]]) (*pb.EntryOf[K, []*Sequex[T]], []*Sequex[T], bool) {
			if l == nil {
				return nil, nil, false
			}
			return nil, l.Value, true
		},
	)
	if !ok {
		return false
	}
	// All handles share one state; poisoning through any of them is enough.
	handles[0].Close()
	return true
}

// Len returns the number of live rotations in the group.
func (g *Group[K, T]) Len() int {
	return g.m.Size()
}
