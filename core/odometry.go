// Encoder odometry
// Counts wheel encoder pulses and keeps a short history of velocity samples
package core

import "sync/atomic"

// HistorySize is the number of velocity samples kept, newest first
const HistorySize = 8

// Odometry owns the encoder counters and the velocity history.
// Interrupt handlers only touch the counters.
type Odometry struct {
	counts           [2]atomic.Uint32
	history          [HistorySize]float32
	distancePerCount float32
	samples          uint32
	last             [2]uint32 // Counts behind history[0]
}

// NewOdometry creates odometry for the given distance per encoder pulse
func NewOdometry(distancePerCount float32) *Odometry {
	return &Odometry{distancePerCount: distancePerCount}
}

// Reset zeroes the history and both counters
func (o *Odometry) Reset() {
	for i := range o.history {
		o.history[i] = 0
	}
	o.counts[0].Store(0)
	o.counts[1].Store(0)
	o.samples = 0
	o.last = [2]uint32{}
}

// OnEdge counts one pulse for a motor. Runs in interrupt context.
func (o *Odometry) OnEdge(motor int) {
	o.counts[motor&1].Add(1)
}

// Update shifts the history and stores a new sample computed from the
// pulses seen over the last elapsedMs milliseconds, then clears the
// counters. elapsedMs must be nonzero.
func (o *Odometry) Update(elapsedMs uint32) float32 {
	for i := HistorySize - 1; i > 0; i-- {
		o.history[i] = o.history[i-1]
	}

	c1, c2 := o.takeCounts()
	v := o.distancePerCount * (float32(c1+c2) / 2.0) / float32(elapsedMs)
	o.history[0] = v
	o.last = [2]uint32{c1, c2}
	o.samples++
	return v
}

// takeCounts reads and clears both counters with interrupts masked so no
// pulse lands between the read and the reset
func (o *Odometry) takeCounts() (uint32, uint32) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	c1 := o.counts[0].Load()
	c2 := o.counts[1].Load()
	o.counts[0].Store(0)
	o.counts[1].Store(0)
	return c1, c2
}

// Counts returns the pulses accumulated since the last sample
func (o *Odometry) Counts() (uint32, uint32) {
	return o.counts[0].Load(), o.counts[1].Load()
}

// LastCounts returns the pulse counts behind the newest sample
func (o *Odometry) LastCounts() (uint32, uint32) {
	return o.last[0], o.last[1]
}

// Velocity returns the newest sample
func (o *Odometry) Velocity() float32 {
	return o.history[0]
}

// History returns a copy of the samples, newest first
func (o *Odometry) History() [HistorySize]float32 {
	return o.history
}

// Samples returns how many samples have been taken since Reset
func (o *Odometry) Samples() uint32 {
	return o.samples
}
