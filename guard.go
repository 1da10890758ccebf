package sequex

// Guard is the token proving its holder won the current turn. At most one
// Guard is live per rotation at any instant; while it lives, its holder
// has exclusive access to the protected value.
//
// A Guard must be released with Unlock, typically deferred. The value,
// and any pointer obtained from Value, must not be touched after Unlock.
type Guard[T any] struct {
	sequex *Sequex[T]
}

// Get returns a copy of the protected value.
func (g *Guard[T]) Get() T {
	return g.sequex.shared.value
}

// Set replaces the protected value.
func (g *Guard[T]) Set(v T) {
	g.sequex.shared.value = v
}

// Value returns a pointer to the protected value for in-place mutation.
// The pointer is valid only until Unlock.
func (g *Guard[T]) Value() *T {
	return &g.sequex.shared.value
}

// Unlock releases the rotation, advancing the turn to the next ticket.
//
// Release is best-effort: if the turn word is no longer the locked
// sentinel (the rotation was poisoned while held), the advance is
// silently skipped. Unlock never fails, and a duplicate call finds
// nothing to advance.
func (g *Guard[T]) Unlock() {
	m := g.sequex
	m.shared.turn.CompareAndSwap(locked, (m.ticket+1)%m.n)
}
