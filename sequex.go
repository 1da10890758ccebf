package sequex

import (
	"errors"
	"math"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/m-hilgendorf/sequex/internal/opt"
)

// ErrPoisoned is returned by Lock and TryLock once the rotation has been
// permanently disabled by closing any of its handles. It never clears.
var ErrPoisoned = errors.New("sequex: poisoned")

const (
	// locked marks the turn word while a Guard is live.
	locked = math.MaxUint64
	// poisoned marks the turn word once any handle has been closed.
	poisoned = math.MaxUint64 - 1
)

const (
	initialBackoff = 100 * time.Microsecond
	maxBackoff     = 100 * time.Millisecond
)

// shared is the state jointly owned by all handles of one rotation.
// The turn word is padded onto its own cache line so the CAS traffic of
// waiting participants does not invalidate the line holding the value.
type shared[T any] struct {
	turn atomic.Uint64
	_    [(opt.CacheLineSize - unsafe.Sizeof(atomic.Uint64{})%opt.CacheLineSize) % opt.CacheLineSize]byte

	// value is accessed only through a live Guard. The CAS into the locked
	// sentinel is the sole gate; there is no separate lock on the value.
	value T
}

// Sequex is one participant's handle to a sequence-mutex: a lock that is
// acquired in the order in which its handles were constructed, as opposed
// to the order in which locks are requested.
//
// Unlike sync.Mutex or a classic ticket lock, which serve callers in
// arrival order, a rotation admits participants strictly by ticket:
// 0, 1, ..., N-1, 0, ... Each release advances the turn to the next
// ticket, regardless of who has been waiting longest. This suits pipelines
// and round-based protocols where N goroutines must touch a shared
// resource in a deterministic rotation no matter how they are scheduled.
//
// Handles are produced only by New, one per participant, and a handle's
// ticket never changes. A handle supports one in-flight acquisition
// attempt at a time; it is not internally synchronized for concurrent use
// by multiple goroutines.
type Sequex[T any] struct {
	_      noCopy
	ticket uint64
	n      uint64
	shared *shared[T]
}

// New creates one rotation protecting value and returns n handles sharing
// it, in ticket order: the handle at index i holds ticket i. The turn
// starts at ticket 0. Each handle must be given to exactly one owner.
//
// Panics if n <= 0.
func New[T any](value T, n int) []*Sequex[T] {
	if n <= 0 {
		panic("sequex: n must be positive")
	}
	s := &shared[T]{value: value}
	handles := make([]*Sequex[T], n)
	for i := range handles {
		handles[i] = &Sequex[T]{ticket: uint64(i), n: uint64(n), shared: s}
	}
	return handles
}

// TryLock attempts to acquire the rotation without blocking.
//
// It returns a Guard if the turn matches this handle's ticket,
// (nil, ErrPoisoned) if the rotation has been poisoned, and (nil, nil) if
// the turn has not yet come around. The last case is an expected,
// retryable outcome, not a fault.
func (m *Sequex[T]) TryLock() (*Guard[T], error) {
	if m.shared.turn.CompareAndSwap(m.ticket, locked) {
		return &Guard[T]{sequex: m}, nil
	}
	// Poison is sticky, so a plain load after the failed CAS cannot
	// misreport a transient state.
	if m.shared.turn.Load() == poisoned {
		return nil, ErrPoisoned
	}
	return nil, nil
}

// Lock acquires the rotation, blocking until this handle's turn arrives.
// It returns ErrPoisoned as soon as the rotation is observed poisoned.
//
// Waiting spins adaptively first, then sleeps between attempts with an
// exponential backoff starting at 100µs and doubling after every failed
// attempt, capped at 100ms. Correctness never depends on being woken:
// the turn word is re-checked after every sleep. There is no timeout; if
// a predecessor never releases, Lock blocks indefinitely.
func (m *Sequex[T]) Lock() (*Guard[T], error) {
	backoff := initialBackoff
	var spins int
	for {
		g, err := m.TryLock()
		if g != nil || err != nil {
			return g, err
		}
		if trySpin(&spins) {
			continue
		}
		time.Sleep(backoff)
		backoff = min(backoff*2, maxBackoff)
	}
}

// Close retires this participant, permanently disabling the rotation for
// everyone: the turn word is overwritten with the poison sentinel no
// matter its current state, and every subsequent Lock or TryLock on every
// handle returns ErrPoisoned. There is no way to clear poison or to
// remove one participant while keeping the rotation usable.
//
// Close is unconditional. It poisons even after legitimate use and even
// while another participant holds the Guard (that holder's release is
// then silently skipped).
func (m *Sequex[T]) Close() {
	m.shared.turn.Store(poisoned)
}

// Ticket returns this handle's fixed position in the rotation.
func (m *Sequex[T]) Ticket() uint64 {
	return m.ticket
}

// Poisoned reports whether the rotation has been permanently disabled.
func (m *Sequex[T]) Poisoned() bool {
	return m.shared.turn.Load() == poisoned
}
