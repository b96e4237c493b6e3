package concurrency

import "sync"

// PairResult snapshots both sides of a PairedSlots wait.
type PairResult[T1 any, T2 any, V Ordered] struct {
	// Dead is true if either slot was killed; First/Second/versions are
	// the zero value in that case.
	Dead   bool
	First  T1
	V1     V
	Second T2
	V2     V
}

// PairedSlots couples two Slots under one monitor so a waiter can react
// to "either side advanced" without polling both independently. This is
// the hand-off between "latest requested viewport params" and "latest
// fully computed image" in the asynchronous handler's layout stage.
type PairedSlots[T1 any, T2 any, V Ordered] struct {
	mu   sync.Mutex
	cond *sync.Cond

	alive1, has1 bool
	v1           T1
	ver1         V

	alive2, has2 bool
	v2           T2
	ver2         V
}

// NewPairedSlots returns a paired slot pair, both sides alive and empty.
func NewPairedSlots[T1 any, T2 any, V Ordered]() *PairedSlots[T1, T2, V] {
	p := &PairedSlots[T1, T2, V]{alive1: true, alive2: true}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// SetFirst writes the first slot, subject to the same monotonic-version
// rule as Slot.Set.
func (p *PairedSlots[T1, T2, V]) SetFirst(value T1, version V) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.alive1 {
		return false
	}
	if p.has1 && version < p.ver1 {
		return false
	}
	p.v1, p.ver1, p.has1 = value, version, true
	p.cond.Broadcast()
	return true
}

// SetSecond writes the second slot, subject to the same monotonic-version
// rule as Slot.Set.
func (p *PairedSlots[T1, T2, V]) SetSecond(value T2, version V) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.alive2 {
		return false
	}
	if p.has2 && version < p.ver2 {
		return false
	}
	p.v2, p.ver2, p.has2 = value, version, true
	p.cond.Broadcast()
	return true
}

// GetBothWithAtLeastOneAboveVersion blocks until either slot is dead, or
// both slots hold values and at least one exceeds its respective
// watermark. The snapshot returned is always internally consistent: both
// halves are read under the same lock acquisition.
func (p *PairedSlots[T1, T2, V]) GetBothWithAtLeastOneAboveVersion(w1, w2 V) PairResult[T1, T2, V] {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if !p.alive1 || !p.alive2 {
			return PairResult[T1, T2, V]{Dead: true}
		}
		if p.has1 && p.has2 && (p.ver1 > w1 || p.ver2 > w2) {
			return PairResult[T1, T2, V]{
				First: p.v1, V1: p.ver1,
				Second: p.v2, V2: p.ver2,
			}
		}
		p.cond.Wait()
	}
}

// Kill marks both sides dead and wakes every waiter.
func (p *PairedSlots[T1, T2, V]) Kill() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alive1, p.alive2 = false, false
	p.cond.Broadcast()
}

// Reset restores both sides to an initial empty-alive state.
func (p *PairedSlots[T1, T2, V]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alive1, p.alive2 = true, true
	p.has1, p.has2 = false, false
	var z1 T1
	var z2 T2
	var zv V
	p.v1, p.ver1 = z1, zv
	p.v2, p.ver2 = z2, zv
}
