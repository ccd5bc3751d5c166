package cue

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lixenwraith/audiocue/constant"
	"github.com/lixenwraith/audiocue/events"
	"github.com/lixenwraith/audiocue/mixer"
	"github.com/lixenwraith/audiocue/pcm"
	"github.com/lixenwraith/audiocue/sink"
)

// Config controls how a cue opens its output path
type Config struct {
	// BufferFrames is the per-iteration mix size for a standalone player
	BufferFrames int

	// ThreadPriority is the advisory audio goroutine priority in
	// [ThreadPriorityMin, ThreadPriorityMax]
	ThreadPriority int

	// SinkFactory acquires the output line; defaults to the system
	// audio device. Ignored when Mixer is set
	SinkFactory sink.Factory

	// Mixer, when set, registers the cue as a mixer track instead of
	// spawning a standalone player
	Mixer *mixer.Mixer
}

// DefaultConfig returns the standalone device-output configuration
func DefaultConfig() *Config {
	return &Config{
		BufferFrames:   constant.DefaultBufferFrames,
		ThreadPriority: constant.DefaultThreadPriority,
		SinkFactory:    sink.OtoFactory,
	}
}

// Open acquires the cue's output path: either a standalone player
// goroutine writing to a sink, or registration with a mixer
func (c *Cue) Open(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	c.openMu.Lock()
	defer c.openMu.Unlock()

	if c.open {
		return ErrAlreadyOpen
	}
	if cfg.BufferFrames < 1 {
		return ErrInvalidParameter
	}
	if cfg.ThreadPriority < constant.ThreadPriorityMin || cfg.ThreadPriority > constant.ThreadPriorityMax {
		return ErrInvalidParameter
	}

	if cfg.Mixer != nil {
		c.trackBuf = make([]float64, 2*cfg.Mixer.BufferFrames())
		c.mix = cfg.Mixer
		c.mix.AddTrack(c)
		c.mix.UpdateTracks()
	} else {
		factory := cfg.SinkFactory
		if factory == nil {
			factory = sink.OtoFactory
		}

		snk, err := factory(constant.AudioBytesPerFrame * cfg.BufferFrames)
		if err != nil {
			return err
		}
		if err := snk.Start(); err != nil {
			snk.Close()
			return err
		}

		c.player = newPlayer(c, snk, cfg.BufferFrames)
		c.player.start()
	}

	c.open = true
	c.running.Store(true)

	c.dispatcher.BroadcastOpened(events.OpenEvent{
		Time:           time.Now().UnixMilli(),
		ThreadPriority: cfg.ThreadPriority,
		BufferFrames:   cfg.BufferFrames,
		Source:         c,
	})
	return nil
}

// Close releases the output path
// A standalone player drains and closes its sink before Close returns;
// a mixer registration is withdrawn at the mixer's next iteration
func (c *Cue) Close() error {
	c.openMu.Lock()
	defer c.openMu.Unlock()

	if !c.open {
		return ErrAlreadyClosed
	}

	c.running.Store(false)

	if c.mix != nil {
		c.mix.RemoveTrack(c)
		c.mix.UpdateTracks()
		c.mix = nil
	}
	if c.player != nil {
		c.player.stop()
		c.player = nil
	}

	c.open = false

	c.dispatcher.BroadcastClosed(events.CloseEvent{
		Time:   time.Now().UnixMilli(),
		Source: c,
	})
	return nil
}

// player runs the standalone mix-pack-write loop
type player struct {
	cue          *Cue
	snk          sink.Sink
	bufferFrames int

	stopChan chan struct{}
	stopped  atomic.Bool
	wg       sync.WaitGroup
}

func newPlayer(c *Cue, snk sink.Sink, bufferFrames int) *player {
	return &player{
		cue:          c,
		snk:          snk,
		bufferFrames: bufferFrames,
		stopChan:     make(chan struct{}),
	}
}

func (p *player) start() {
	p.wg.Add(1)
	go p.loop()
}

// loop is the audio goroutine; pacing comes from the blocking sink write
func (p *player) loop() {
	defer p.wg.Done()

	// The sink is released on every exit path
	defer func() {
		p.snk.Drain()
		p.snk.Close()
	}()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	readBuf := make([]float64, 2*p.bufferFrames)
	byteBuf := make([]byte, constant.AudioBytesPerFrame*p.bufferFrames)

	for {
		select {
		case <-p.stopChan:
			return
		default:
		}

		p.cue.fillBuffer(readBuf)
		pcm.Pack(byteBuf, readBuf)

		if _, err := p.snk.Write(byteBuf); err != nil {
			log.Error("audio sink write failed", "cue", p.cue.name, "err", err)
			return
		}
	}
}

// stop signals the loop and waits for sink release
func (p *player) stop() {
	if p.stopped.CompareAndSwap(false, true) {
		close(p.stopChan)
		p.wg.Wait()
	}
}
