package testutil

import "sync"

// DeterministicClock is a resettable logical clock for tests.
// It satisfies engine.Sequencer.
//
// Unlike engine.Clock it keeps every seq it issued, so tests can assert
// on the exact sequence a scenario consumed, and it can be reset to rerun
// a scenario with identical seqs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu     sync.Mutex
	start  int64
	seq    int64
	issued []int64
}

// NewDeterministicClock creates a clock whose first Next() returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// NewDeterministicClockAt creates a clock whose first Next() returns start+1.
func NewDeterministicClockAt(start int64) *DeterministicClock {
	return &DeterministicClock{start: start, seq: start}
}

// Next increments and returns the next sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.issued = append(c.issued, c.seq)
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Release takes back seq if it is the latest issued.
func (c *DeterministicClock) Release(seq int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq != seq {
		return
	}
	c.seq--
	if n := len(c.issued); n > 0 && c.issued[n-1] == seq {
		c.issued = c.issued[:n-1]
	}
}

// Issued returns a copy of every seq handed out since the last Reset.
func (c *DeterministicClock) Issued() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int64, len(c.issued))
	copy(out, c.issued)
	return out
}

// Reset rewinds the clock to its start and forgets issued seqs.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = c.start
	c.issued = nil
}
