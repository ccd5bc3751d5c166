package cue

import (
	"github.com/lixenwraith/audiocue/constant"
	"github.com/lixenwraith/audiocue/events"
)

// fillBuffer renders one buffer of the cue's mixed instances into out
// The sum is not clamped; clamping happens at the mixer output. A
// standalone player hands the buffer straight to the packer
func (c *Cue) fillBuffer(out []float64) {
	for i := range out {
		out[i] = 0
	}

	frames := len(out) / 2
	for id, cur := range c.cursors {
		if cur.playing.Load() {
			c.mixInstance(out, frames, id, cur)
		}
	}
}

// mixInstance adds one instance's contribution to out
// Runs on the audio goroutine; owns the cursor's smoothing registers
func (c *Cue) mixInstance(out []float64, frames, id int, cur *cursor) {
	pos := cur.pos.Load()
	lastFrame := float64(c.frameCount - 1)

	// Restarted at the rest position: nothing left to play
	if pos > lastFrame {
		c.finishInstance(cur, id)
		return
	}

	volGain := cur.volGain
	panL := cur.panL
	panR := cur.panR

	for k := 0; k < frames; k++ {
		// Per-sample smoothing; derived factors recomputed only when
		// the underlying parameter moved this step
		if cur.volume.update() {
			volGain = c.volType.Gain(cur.volume.current)
			cur.volGain = volGain
		}
		if cur.pan.update() {
			panL, panR = c.panType.Gains(cur.pan.current)
			cur.panL = panL
			cur.panR = panR
		}
		cur.speed.update()

		idx := int(pos)
		frac := pos - float64(idx)

		var sL, sR float64
		if frac == 0 {
			sL = c.pcm[idx*2]
			sR = c.pcm[idx*2+1]
		} else {
			next := idx + 1
			if next >= c.frameCount {
				next = idx
			}
			sL = c.pcm[idx*2]*(1-frac) + c.pcm[next*2]*frac
			sR = c.pcm[idx*2+1]*(1-frac) + c.pcm[next*2+1]*frac
		}

		out[2*k] += sL * volGain * panL
		out[2*k+1] += sR * volGain * panR

		pos += cur.speed.current

		if pos > lastFrame {
			loops := cur.loopRemaining.Load()
			if loops == constant.LoopInfinite || loops > 0 {
				if loops > 0 {
					cur.loopRemaining.Store(loops - 1)
				}
				pos = 0
				c.fireInstance(events.Loop, id, 0)
				continue
			}

			// Natural end: remaining output positions keep whatever
			// earlier instances summed there
			c.finishInstance(cur, id)
			return
		}
	}

	cur.pos.Store(pos)
}

// finishInstance parks the cursor at the rest position and, when
// recycling, returns the slot to the pool
func (c *Cue) finishInstance(cur *cursor, id int) {
	rest := float64(c.frameCount)
	cur.playing.Store(false)
	cur.pos.Store(rest)
	c.fireInstance(events.StopInstance, id, rest)

	if cur.recycleWhenDone.Load() {
		cur.reset()
		c.poolMu.Lock()
		c.pool = append(c.pool, id)
		c.poolMu.Unlock()
		c.fireInstance(events.ReleaseInstance, id, rest)
	}
}

// ReadTrack renders and returns one mixed buffer
// Implements the mixer track contract; the returned slice is reused on
// the next call
func (c *Cue) ReadTrack() []float64 {
	if c.trackBuf == nil {
		c.trackBuf = make([]float64, 2*constant.DefaultBufferFrames)
	}
	c.fillBuffer(c.trackBuf)
	return c.trackBuf
}

// IsRunning reports whether the cue's output path is open
func (c *Cue) IsRunning() bool {
	return c.running.Load()
}
