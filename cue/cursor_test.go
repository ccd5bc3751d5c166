package cue

import (
	"math"
	"testing"
)

// TestSmoothedParamLatch verifies a latch commits with zero ramp
func TestSmoothedParamLatch(t *testing.T) {
	p := &smoothedParam{steps: 1024}
	p.reset(0)

	p.set(0.7)
	p.latch()

	if p.current != 0.7 || p.target != 0.7 {
		t.Errorf("After latch: current=%v target=%v, want 0.7/0.7", p.current, p.target)
	}
	if p.stepsRemaining != 0 {
		t.Errorf("After latch: stepsRemaining=%d, want 0", p.stepsRemaining)
	}
	if p.update() {
		t.Error("Expected no movement after latch with no pending write")
	}
}

// TestSmoothedParamRamp verifies the ramp shape and exact landing
func TestSmoothedParamRamp(t *testing.T) {
	p := &smoothedParam{steps: 4}
	p.reset(0)
	p.set(1)

	want := []float64{0.25, 0.5, 0.75, 1.0}
	for i, w := range want {
		if !p.update() {
			t.Fatalf("step %d: expected movement", i)
		}
		if math.Abs(p.current-w) > 1e-12 {
			t.Errorf("step %d: current=%v, want %v", i, p.current, w)
		}
	}

	// Landed exactly on target, no further movement
	if p.current != 1.0 {
		t.Errorf("Expected exact snap to 1.0, got %v", p.current)
	}
	if p.update() {
		t.Error("Expected no movement after snap")
	}
}

// TestSmoothedParamCoalesce verifies a burst of control writes ramps
// toward the most recent value only
func TestSmoothedParamCoalesce(t *testing.T) {
	p := &smoothedParam{steps: 8}
	p.reset(0)

	p.set(0.2)
	p.set(0.9)
	p.set(0.5) // Most recent write wins

	for i := 0; i < 8; i++ {
		p.update()
	}
	if p.current != 0.5 {
		t.Errorf("Expected ramp to latest write 0.5, got %v", p.current)
	}
}

// TestSmoothedParamRetarget verifies a mid-ramp write restarts the
// ramp from the current position
func TestSmoothedParamRetarget(t *testing.T) {
	p := &smoothedParam{steps: 10}
	p.reset(0)

	p.set(1)
	for i := 0; i < 5; i++ {
		p.update()
	}
	mid := p.current

	p.set(0)
	p.update()
	if p.stepsRemaining != 9 {
		t.Errorf("Expected restarted ramp with 9 steps left, got %d", p.stepsRemaining)
	}
	if p.current >= mid {
		t.Errorf("Expected movement back toward 0 from %v, got %v", mid, p.current)
	}
}

// TestCursorResetDefaults verifies pool defaults per the reset contract
func TestCursorResetDefaults(t *testing.T) {
	c := newCursor()

	c.active.Store(true)
	c.playing.Store(true)
	c.recycleWhenDone.Store(true)
	c.loopRemaining.Store(5)
	c.pos.Store(123.5)
	c.volume.set(0.9)
	c.speed.set(2)
	c.pan.set(-1)

	c.reset()

	if c.active.Load() || c.playing.Load() || c.recycleWhenDone.Load() {
		t.Error("Expected all flags cleared after reset")
	}
	if c.loopRemaining.Load() != 0 {
		t.Errorf("loopRemaining = %d, want 0", c.loopRemaining.Load())
	}
	if c.pos.Load() != 0 {
		t.Errorf("pos = %v, want 0", c.pos.Load())
	}
	if c.volume.get() != 0 || c.volume.current != 0 {
		t.Error("Expected volume reset to 0")
	}
	if c.pan.get() != 0 || c.pan.current != 0 {
		t.Error("Expected pan reset to 0")
	}
	if c.speed.get() != 1 || c.speed.current != 1 {
		t.Error("Expected speed reset to 1")
	}
}
