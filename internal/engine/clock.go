package engine

import "sync/atomic"

// Sequencer issues seq numbers for recorded decompositions.
// Implemented by Clock and testutil.DeterministicClock.
//
// Release hands back seq when the decomposition it stamped was not
// recorded; it is a no-op unless seq is the latest issued.
type Sequencer interface {
	Next() int64
	Current() int64
	Release(seq int64)
}

// Clock is a monotonic logical clock ordering decompositions within a run.
//
// Every recorded decomposition is stamped with a strictly increasing seq
// number from this clock. This ensures:
// - Deterministic ordering (no wall-clock race conditions)
// - Re-running a scenario produces identical seqs
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used to continue a run that already has recorded decompositions.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Release rewinds the clock by one if seq is still the latest value.
func (c *Clock) Release(seq int64) {
	c.seq.CompareAndSwap(seq, seq-1)
}
