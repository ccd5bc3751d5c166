package cue

import (
	"math"
	"sync/atomic"

	"github.com/lixenwraith/audiocue/constant"
)

// atomicFloat64 is a float64 with atomic load/store through bit casting
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (a *atomicFloat64) Load() float64 {
	return math.Float64frombits(a.bits.Load())
}

func (a *atomicFloat64) Store(v float64) {
	a.bits.Store(math.Float64bits(v))
}

// smoothedParam ramps a control value over a fixed number of samples
//
// The control goroutine writes newTarget only. The audio goroutine owns
// current/target/increment/stepsRemaining and detects a pending write
// by newTarget != target, so a burst of control writes collapses into a
// single ramp toward the most recent value
type smoothedParam struct {
	newTarget atomicFloat64

	// Audio-goroutine owned
	current        float64
	target         float64
	increment      float64
	stepsRemaining int

	steps int // Ramp length in samples
}

// set requests a new value from the control goroutine
func (p *smoothedParam) set(v float64) {
	p.newTarget.Store(v)
}

// get returns the most recently requested value
func (p *smoothedParam) get() float64 {
	return p.newTarget.Load()
}

// latch commits the pending value with zero ramp
// Called on the start transition so a fresh instance begins exactly at
// its requested parameters
func (p *smoothedParam) latch() {
	v := p.newTarget.Load()
	p.current = v
	p.target = v
	p.increment = 0
	p.stepsRemaining = 0
}

// update advances one sample of smoothing; reports whether current moved
func (p *smoothedParam) update() bool {
	if nt := p.newTarget.Load(); nt != p.target {
		p.target = nt
		p.stepsRemaining = p.steps
		p.increment = (nt - p.current) / float64(p.steps)
	}

	if p.stepsRemaining == 0 {
		return false
	}

	p.stepsRemaining--
	if p.stepsRemaining == 0 {
		p.current = p.target
	} else {
		p.current += p.increment
	}
	return true
}

// reset zeroes every register to the given initial value
func (p *smoothedParam) reset(v float64) {
	p.newTarget.Store(v)
	p.current = v
	p.target = v
	p.increment = 0
	p.stepsRemaining = 0
}

// cursor is the per-instance playback state
// One cursor per polyphony slot; the slot index is the instance ID
//
// Thread-Safety:
//   - active/playing/recycleWhenDone/loopRemaining and the smoothed
//     parameter targets: single-word atomics, control-written, audio-read
//   - pos: audio-goroutine written inside the mix loop, stored at buffer
//     boundaries; control goroutine writes it only while not playing
//   - smoothing registers and cached gains: audio-goroutine owned
type cursor struct {
	active          atomic.Bool
	playing         atomic.Bool
	recycleWhenDone atomic.Bool
	loopRemaining   atomic.Int64

	pos atomicFloat64 // Fractional frame position

	volume smoothedParam
	speed  smoothedParam
	pan    smoothedParam

	// Derived factors, recomputed only when the underlying parameter
	// moves
	volGain float64
	panL    float64
	panR    float64
}

func newCursor() *cursor {
	c := &cursor{}
	c.volume.steps = constant.VolumeSteps
	c.pan.steps = constant.PanSteps
	c.speed.steps = constant.SpeedSteps
	c.reset()
	return c
}

// reset returns the cursor to pool defaults
func (c *cursor) reset() {
	c.active.Store(false)
	c.playing.Store(false)
	c.recycleWhenDone.Store(false)
	c.loopRemaining.Store(0)
	c.pos.Store(0)

	c.volume.reset(0)
	c.pan.reset(0)
	c.speed.reset(1)

	c.volGain = 0
	c.panL = 0
	c.panR = 0
}

// latchAll commits all pending parameters with zero ramp
func (c *cursor) latchAll() {
	c.volume.latch()
	c.pan.latch()
	c.speed.latch()
}
