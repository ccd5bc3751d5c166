package mixer

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/lixenwraith/audiocue/constant"
	"github.com/lixenwraith/audiocue/pcm"
	"github.com/lixenwraith/audiocue/sink"
)

// Sentinel errors
var (
	ErrAlreadyRunning = errors.New("mixer is already running")
	ErrAlreadyStopped = errors.New("mixer is already stopped")
)

// Track is the mixer's view of an audio source
// ReadTrack returns one buffer of 2 x BufferFrames floats; the mixer
// treats the slice as valid until the next ReadTrack call
type Track interface {
	ReadTrack() []float64
	IsRunning() bool
}

// Config controls mixer iteration size and output
type Config struct {
	BufferFrames int
	SinkFactory  sink.Factory
}

// DefaultConfig returns the device-output configuration
func DefaultConfig() *Config {
	return &Config{
		BufferFrames: constant.DefaultMixerBufferFrames,
		SinkFactory:  sink.OtoFactory,
	}
}

// Mixer aggregates multiple tracks into one output line
//
// Tracks are staged under a mutex; the audio goroutine works from an
// immutable snapshot and adopts a new one only when the dirty flag is
// set. A late adoption is acceptable, a missed one is not
type Mixer struct {
	bufferFrames int
	factory      sink.Factory

	mu     sync.Mutex // Guards staged
	staged []Track

	snapshot atomic.Pointer[[]Track]
	dirty    atomic.Bool

	running  atomic.Bool
	stopChan chan struct{}
	wg       sync.WaitGroup
	snk      sink.Sink

	// Stats
	iterations  atomic.Uint64
	trackFaults atomic.Uint64
}

// NewMixer creates a mixer; nil config selects defaults
func NewMixer(cfg *Config) *Mixer {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	bufferFrames := cfg.BufferFrames
	if bufferFrames < 1 {
		bufferFrames = constant.DefaultMixerBufferFrames
	}
	factory := cfg.SinkFactory
	if factory == nil {
		factory = sink.OtoFactory
	}

	m := &Mixer{
		bufferFrames: bufferFrames,
		factory:      factory,
	}
	empty := make([]Track, 0)
	m.snapshot.Store(&empty)
	return m
}

// BufferFrames returns the per-iteration mix size
func (m *Mixer) BufferFrames() int {
	return m.bufferFrames
}

// AddTrack stages a track; it joins the mix at the next UpdateTracks
func (m *Mixer) AddTrack(t Track) {
	if t == nil {
		return
	}
	m.mu.Lock()
	m.staged = append(m.staged, t)
	m.mu.Unlock()
}

// RemoveTrack unstages the first occurrence of t; it leaves the mix at
// the next UpdateTracks
func (m *Mixer) RemoveTrack(t Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.staged {
		if existing == t {
			m.staged = append(m.staged[:i], m.staged[i+1:]...)
			return
		}
	}
}

// TrackCount returns the staged track count
func (m *Mixer) TrackCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.staged)
}

// UpdateTracks publishes the staging list as a new snapshot
// The audio goroutine adopts it at the top of its next iteration
func (m *Mixer) UpdateTracks() {
	m.mu.Lock()
	snap := make([]Track, len(m.staged))
	copy(snap, m.staged)
	m.mu.Unlock()

	m.snapshot.Store(&snap)
	m.dirty.Store(true)
}

// IsRunning reports whether the audio goroutine is live
func (m *Mixer) IsRunning() bool {
	return m.running.Load()
}

// Stats returns iteration and track fault counts
func (m *Mixer) Stats() (iterations, trackFaults uint64) {
	return m.iterations.Load(), m.trackFaults.Load()
}

// Start acquires the sink, seeds the track snapshot and launches the
// audio goroutine
func (m *Mixer) Start() error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	snk, err := m.factory(constant.AudioBytesPerFrame * m.bufferFrames)
	if err != nil {
		m.running.Store(false)
		return err
	}
	if err := snk.Start(); err != nil {
		snk.Close()
		m.running.Store(false)
		return err
	}

	m.snk = snk
	m.stopChan = make(chan struct{})
	m.UpdateTracks()

	m.wg.Add(1)
	go m.loop()
	return nil
}

// Stop signals the audio goroutine and waits for the sink to be
// drained and closed
func (m *Mixer) Stop() error {
	if !m.running.CompareAndSwap(true, false) {
		return ErrAlreadyStopped
	}

	close(m.stopChan)
	m.wg.Wait()
	return nil
}

// loop is the mixing goroutine; pacing comes from the blocking sink
// write
func (m *Mixer) loop() {
	defer m.wg.Done()

	// The sink is released on every exit path
	defer func() {
		m.snk.Drain()
		m.snk.Close()
	}()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	tracks := *m.snapshot.Load()
	mixBuf := make([]float64, 2*m.bufferFrames)
	byteBuf := make([]byte, constant.AudioBytesPerFrame*m.bufferFrames)

	for {
		select {
		case <-m.stopChan:
			return
		default:
		}

		if m.dirty.CompareAndSwap(true, false) {
			tracks = *m.snapshot.Load()
		}

		m.mixOnce(tracks, mixBuf)

		pcm.Pack(byteBuf, mixBuf)
		if _, err := m.snk.Write(byteBuf); err != nil {
			log.Error("mixer sink write failed", "err", err)
			return
		}

		m.iterations.Add(1)
	}
}

// mixOnce sums all running tracks into mixBuf and clamps the result
func (m *Mixer) mixOnce(tracks []Track, mixBuf []float64) {
	for i := range mixBuf {
		mixBuf[i] = 0
	}

	for _, t := range tracks {
		if !t.IsRunning() {
			continue
		}

		data := m.readTrack(t)
		if data == nil {
			continue
		}

		n := len(mixBuf)
		if len(data) < n {
			n = len(data)
		}
		for i := 0; i < n; i++ {
			mixBuf[i] += data[i]
		}
	}

	for i, v := range mixBuf {
		if v > 1 {
			mixBuf[i] = 1
		} else if v < -1 {
			mixBuf[i] = -1
		}
	}
}

// readTrack isolates a faulty track: a panic in ReadTrack is logged and
// contributes silence for the iteration instead of killing the mix
func (m *Mixer) readTrack(t Track) (data []float64) {
	defer func() {
		if r := recover(); r != nil {
			m.trackFaults.Add(1)
			log.Error("track read panicked", "panic", r)
			data = nil
		}
	}()
	return t.ReadTrack()
}
