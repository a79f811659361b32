package atomic_float

import (
	"math"
	"sync/atomic"
)

// AtomicFloat64 is a float64 for non-locking reads and writes, stored as its IEEE-754 bits.
// It lets a single writer (the trainer) publish a gauge that readers such as the http
// status handler can load at any time, without locking the planner's tables.
type AtomicFloat64 struct {
	bits atomic.Uint64
}

// NewAtomicFloat64 encapsulates a float64 for atomic operations.
func NewAtomicFloat64(val float64) *AtomicFloat64 {
	af := &AtomicFloat64{}
	af.bits.Store(math.Float64bits(val))
	return af
}

// AtomicRead loads the float64.
func (af *AtomicFloat64) AtomicRead() float64 {
	return math.Float64frombits(af.bits.Load())
}

// AtomicAdd attempts a single compare-and-swap of the current value plus @addend.
// If the value changed in between, nothing is written and succeeded is false; the caller
// decides whether to retry, recalculate or drop the update.
func (af *AtomicFloat64) AtomicAdd(addend float64) (newVal float64, succeeded bool) {
	old := af.bits.Load()
	newVal = math.Float64frombits(old) + addend
	succeeded = af.bits.CompareAndSwap(old, math.Float64bits(newVal))
	return
}

// AtomicSet sets the float64, returns true on success.
func (af *AtomicFloat64) AtomicSet(newVal float64) (succeeded bool) {
	old := af.bits.Load()
	return af.bits.CompareAndSwap(old, math.Float64bits(newVal))
}
