// Package tach converts tachometer pulses into smoothed RPM readings.
//
// The PulseCounter is the only value shared between the edge interrupt
// context and the scheduler. Everything else in this package is owned by
// the sampler and must only be touched from the scheduler goroutine.
package tach

import "sync/atomic"

// PulseCounter counts tachometer edges between two samples.
// The zero value is ready to use.
type PulseCounter struct {
	n atomic.Uint32
}

// OnPulse records one edge. It is called from the edge event context and
// never blocks.
func (c *PulseCounter) OnPulse() {
	c.n.Add(1)
}

// Swap atomically returns the number of edges seen since the previous Swap
// and resets the counter to zero. Edges that race with Swap are counted in
// exactly one of the two windows.
func (c *PulseCounter) Swap() uint32 {
	return c.n.Swap(0)
}
