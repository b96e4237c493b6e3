// Package concurrency implements the synchronization primitives that move
// values between rendering pipeline stages: a versioned single-value slot
// with "newest wins" supersession and a kill state for session teardown,
// plus a pair of slots that can be waited on jointly.
//
// # Design rationale
//
// A render pipeline stage never wants to process every version of its
// input, only the newest one available when it becomes free. A channel
// would either block producers or require an unbounded buffer; a plain
// mutex-guarded variable loses the ability to block a consumer until a
// strictly newer value shows up. Slot gives both: producers never block,
// and consumers can wait for "something newer than what I've already
// seen" without polling.
//
// # Concurrency model
//
// Each Slot owns one sync.Mutex and one sync.Cond built on it. Set takes
// the lock, applies the monotonic-version check, and calls Broadcast if
// the value changed or the slot was killed. All blocking reads hold the
// same lock while waiting on the Cond, so there is no missed-wakeup
// window between checking the predicate and sleeping.
//
// # Invariants
//
//   - Once alive and holding (value, version), only Set calls with a
//     version >= the current version may replace it.
//   - Kill is terminal until Reset: every blocking call returns dead
//     immediately once killed, including ones that started blocking
//     before Kill was called.
package concurrency

import (
	"sync"
	"time"

	"github.com/oriys/newtonfractal/internal/metrics"
)

// Ordered is the constraint on slot versions: they must be totally ordered
// by <.
type Ordered interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~float32 | ~float64
}

// ReadState distinguishes the three possible outcomes of a slot read.
type ReadState int

const (
	// StateDead means the slot has been killed; value/version are zero.
	StateDead ReadState = iota
	// StateEmpty means the slot is alive but has never been Set (or was
	// Reset); only returned by non-blocking peeks.
	StateEmpty
	// StateAlive means value/version hold a meaningful snapshot.
	StateAlive
	// StateTimedOut is returned only by GetAtVersionWithTimeout.
	StateTimedOut
)

// MaybeResource is the three-state (four, counting timeout) result of a
// slot read.
type MaybeResource[T any, V Ordered] struct {
	State   ReadState
	Value   T
	Version V
}

// Slot is a single-value, monotonically versioned, wait/notify resource.
// The zero value is not usable; construct with NewSlot.
type Slot[T any, V Ordered] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	alive bool
	has   bool
	value T
	ver   V
	name  string
}

// NewSlot returns an alive, empty slot. name, if given, labels the slot in
// supersession-skip metrics; callers that don't care about that breakdown
// may omit it.
func NewSlot[T any, V Ordered](name ...string) *Slot[T, V] {
	s := &Slot[T, V]{alive: true}
	if len(name) > 0 {
		s.name = name[0]
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Set writes value at version if the slot is alive and version is not
// older than the current one. Returns whether the value changed. Every
// accepted write wakes all waiters, a tie at the same version included,
// since a tie can still be a new object identity a layout-stage waiter
// cares about; a rejected stale write wakes no one.
func (s *Slot[T, V]) Set(value T, version V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.alive {
		return false
	}
	if s.has && version < s.ver {
		metrics.RecordSupersessionSkip(s.name)
		return false
	}
	s.value = value
	s.ver = version
	s.has = true
	s.cond.Broadcast()
	return true
}

// Get is a non-blocking snapshot.
func (s *Slot[T, V]) Get() MaybeResource[T, V] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Slot[T, V]) snapshotLocked() MaybeResource[T, V] {
	if !s.alive {
		return MaybeResource[T, V]{State: StateDead}
	}
	if !s.has {
		return MaybeResource[T, V]{State: StateEmpty}
	}
	return MaybeResource[T, V]{State: StateAlive, Value: s.value, Version: s.ver}
}

// GetInitialized blocks until the slot is dead or has any value at all,
// regardless of version.
func (s *Slot[T, V]) GetInitialized() MaybeResource[T, V] {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.alive && !s.has {
		s.cond.Wait()
	}
	return s.snapshotLocked()
}

// GetAboveVersion blocks until the slot is dead, or holds a value with
// version strictly greater than v.
func (s *Slot[T, V]) GetAboveVersion(v V) MaybeResource[T, V] {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.alive && (!s.has || s.ver <= v) {
		s.cond.Wait()
	}
	return s.snapshotLocked()
}

// GetAtVersionWithTimeout blocks up to dt for a value with version >= v.
// Returns StateTimedOut if dt elapses first.
func (s *Slot[T, V]) GetAtVersionWithTimeout(v V, dt time.Duration) MaybeResource[T, V] {
	deadline := time.Now().Add(dt)

	// A timer that broadcasts once at the deadline cannot itself carry "did the
	// deadline pass" information through sync.Cond.Wait, so track it with
	// a flag flipped under the same mutex the cond is built on.
	timedOut := false
	timer := time.AfterFunc(dt, func() {
		s.mu.Lock()
		timedOut = true
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	for s.alive && (!s.has || s.ver < v) {
		if timedOut || !time.Now().Before(deadline) {
			return MaybeResource[T, V]{State: StateTimedOut}
		}
		s.cond.Wait()
	}
	return s.snapshotLocked()
}

// Kill marks the slot dead and wakes every waiter; subsequent calls
// return StateDead until Reset.
func (s *Slot[T, V]) Kill() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive = false
	s.cond.Broadcast()
}

// Reset clears the value and restores alive status. Waiters that already
// returned dead from a prior Kill are not retroactively affected.
func (s *Slot[T, V]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive = true
	s.has = false
	var zero T
	s.value = zero
	var zv V
	s.ver = zv
}
