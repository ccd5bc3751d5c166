package cue

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/audiocue/constant"
	"github.com/lixenwraith/audiocue/events"
	"github.com/lixenwraith/audiocue/gain"
	"github.com/lixenwraith/audiocue/mixer"
)

// NoInstance is returned when the availability pool is exhausted
const NoInstance = -1

// Cue is an in-memory stereo audio asset with a fixed pool of playback
// instances. The PCM data is immutable after construction; each of the
// polyphony slots holds an independent cursor with its own volume, pan,
// speed and loop state. All instances mix into one track
type Cue struct {
	name       string
	pcm        []float64 // Interleaved stereo, normalized [-1, 1]
	frameCount int
	polyphony  int

	panType gain.PanType
	volType gain.VolType

	cursors []*cursor

	// Free slot indices; most recently released on top so a hot slot
	// is reused first. A fresh cue hands out 0, 1, ... in order
	poolMu sync.Mutex
	pool   []int

	dispatcher *events.Dispatcher

	// Output path state, guarded by openMu
	openMu   sync.Mutex
	open     bool
	player   *player
	mix      *mixer.Mixer
	trackBuf []float64

	running atomic.Bool
}

// NewStereoCue builds a cue over interleaved stereo normalized floats
// The pcm slice is used directly, not copied; callers must not mutate it
func NewStereoCue(pcm []float64, name string, polyphony int) (*Cue, error) {
	if len(pcm)%2 != 0 {
		return nil, ErrInvalidPcm
	}
	if polyphony < 1 {
		return nil, ErrInvalidParameter
	}

	c := &Cue{
		name:       name,
		pcm:        pcm,
		frameCount: len(pcm) / 2,
		polyphony:  polyphony,
		panType:    gain.DefaultPanType,
		volType:    gain.DefaultVolType,
		cursors:    make([]*cursor, polyphony),
		pool:       make([]int, 0, polyphony),
		dispatcher: events.NewDispatcher(),
	}

	for i := range c.cursors {
		c.cursors[i] = newCursor()
	}
	// Stack the free list so index 0 pops first
	for i := polyphony - 1; i >= 0; i-- {
		c.pool = append(c.pool, i)
	}

	return c, nil
}

// GetName returns the display label
func (c *Cue) GetName() string {
	return c.name
}

// FrameLength returns the cue length in stereo frames
func (c *Cue) FrameLength() int {
	return c.frameCount
}

// GetFrameLength returns the cue length in stereo frames
func (c *Cue) GetFrameLength() int {
	return c.frameCount
}

// GetMicrosecondLength returns the cue duration at unity speed
func (c *Cue) GetMicrosecondLength() int64 {
	return int64(c.frameCount) * 1_000_000 / constant.AudioSampleRate
}

// GetPCMCopy returns a fresh copy of the cue's PCM data
func (c *Cue) GetPCMCopy() []float64 {
	cp := make([]float64, len(c.pcm))
	copy(cp, c.pcm)
	return cp
}

// PanType returns the cue's pan law
func (c *Cue) PanType() gain.PanType {
	return c.panType
}

// SetPanType selects the pan law; rejected while the cue is open
func (c *Cue) SetPanType(p gain.PanType) error {
	if !p.Valid() {
		return ErrInvalidParameter
	}
	c.openMu.Lock()
	defer c.openMu.Unlock()
	if c.open {
		return ErrAlreadyOpen
	}
	c.panType = p
	return nil
}

// VolType returns the cue's volume curve
func (c *Cue) VolType() gain.VolType {
	return c.volType
}

// SetVolType selects the volume curve; rejected while the cue is open
func (c *Cue) SetVolType(v gain.VolType) error {
	if !v.Valid() {
		return ErrInvalidParameter
	}
	c.openMu.Lock()
	defer c.openMu.Unlock()
	if c.open {
		return ErrAlreadyOpen
	}
	c.volType = v
	return nil
}

// AddListener registers a lifecycle listener
func (c *Cue) AddListener(l events.Listener) {
	c.dispatcher.AddListener(l)
}

// RemoveListener unregisters a lifecycle listener
func (c *Cue) RemoveListener(l events.Listener) {
	c.dispatcher.RemoveListener(l)
}

// --- Instance pool ---

// ObtainInstance claims a slot from the availability pool
// Returns NoInstance when the pool is exhausted
func (c *Cue) ObtainInstance() int {
	c.poolMu.Lock()
	if len(c.pool) == 0 {
		c.poolMu.Unlock()
		return NoInstance
	}
	id := c.pool[len(c.pool)-1]
	c.pool = c.pool[:len(c.pool)-1]
	c.poolMu.Unlock()

	cur := c.cursors[id]
	cur.recycleWhenDone.Store(false)
	cur.active.Store(true)

	c.fireInstance(events.ObtainInstance, id, cur.pos.Load())
	return id
}

// ReleaseInstance resets a stopped slot and returns it to the pool
func (c *Cue) ReleaseInstance(id int) error {
	cur, err := c.activeCursor(id)
	if err != nil {
		return err
	}
	if cur.playing.Load() {
		return ErrInstancePlaying
	}

	pos := cur.pos.Load()
	cur.reset()

	c.poolMu.Lock()
	c.pool = append(c.pool, id)
	c.poolMu.Unlock()

	c.fireInstance(events.ReleaseInstance, id, pos)
	return nil
}

// InstanceCount returns the polyphony
func (c *Cue) InstanceCount() int {
	return c.polyphony
}

// ActiveCount returns the number of instances outside the pool
func (c *Cue) ActiveCount() int {
	c.poolMu.Lock()
	defer c.poolMu.Unlock()
	return c.polyphony - len(c.pool)
}

// IsActive reports whether the slot is outside the availability pool
func (c *Cue) IsActive(id int) bool {
	if id < 0 || id >= c.polyphony {
		return false
	}
	return c.cursors[id].active.Load()
}

// IsPlaying reports whether the instance is currently advancing
func (c *Cue) IsPlaying(id int) bool {
	if id < 0 || id >= c.polyphony {
		return false
	}
	return c.cursors[id].playing.Load()
}

// --- Instance control ---

// Play obtains an instance and starts it at unity volume, center pan,
// unity speed, no looping. The instance recycles to the pool when it
// plays out. Returns NoInstance when the pool is exhausted
func (c *Cue) Play() int {
	return c.PlayAt(1, 0, 1, 0)
}

// PlayAt obtains an instance, applies the given parameters and starts it
// The instance recycles to the pool when it plays out
func (c *Cue) PlayAt(volume, pan, speed float64, loops int) int {
	id := c.ObtainInstance()
	if id == NoInstance {
		return NoInstance
	}

	cur := c.cursors[id]
	cur.volume.set(clamp(volume, 0, 1))
	cur.pan.set(clamp(pan, -1, 1))
	cur.speed.set(clamp(speed, constant.SpeedMin, constant.SpeedMax))
	if loops < constant.LoopInfinite {
		loops = constant.LoopInfinite
	}
	cur.loopRemaining.Store(int64(loops))
	cur.recycleWhenDone.Store(true)

	// Freshly obtained, cannot already be playing
	c.Start(id)
	return id
}

// Start latches pending parameters and begins advancing the instance
func (c *Cue) Start(id int) error {
	cur, err := c.activeCursor(id)
	if err != nil {
		return err
	}
	if cur.playing.Load() {
		return ErrInstancePlaying
	}

	cur.latchAll()
	cur.volGain = c.volType.Gain(cur.volume.current)
	cur.panL, cur.panR = c.panType.Gains(cur.pan.current)
	cur.playing.Store(true)

	c.fireInstance(events.StartInstance, id, cur.pos.Load())
	return nil
}

// Stop halts the instance, leaving the cursor in place
func (c *Cue) Stop(id int) error {
	cur, err := c.activeCursor(id)
	if err != nil {
		return err
	}

	cur.playing.Store(false)
	c.fireInstance(events.StopInstance, id, cur.pos.Load())
	return nil
}

// SetVolume requests a volume change, ramped while playing
func (c *Cue) SetVolume(id int, v float64) error {
	cur, err := c.activeCursor(id)
	if err != nil {
		return err
	}
	cur.volume.set(clamp(v, 0, 1))
	return nil
}

// GetVolume returns the most recently requested volume
func (c *Cue) GetVolume(id int) (float64, error) {
	cur, err := c.activeCursor(id)
	if err != nil {
		return 0, err
	}
	return cur.volume.get(), nil
}

// SetPan requests a pan change, ramped while playing
func (c *Cue) SetPan(id int, p float64) error {
	cur, err := c.activeCursor(id)
	if err != nil {
		return err
	}
	cur.pan.set(clamp(p, -1, 1))
	return nil
}

// GetPan returns the most recently requested pan
func (c *Cue) GetPan(id int) (float64, error) {
	cur, err := c.activeCursor(id)
	if err != nil {
		return 0, err
	}
	return cur.pan.get(), nil
}

// SetSpeed requests a playback speed change, ramped while playing
func (c *Cue) SetSpeed(id int, s float64) error {
	cur, err := c.activeCursor(id)
	if err != nil {
		return err
	}
	cur.speed.set(clamp(s, constant.SpeedMin, constant.SpeedMax))
	return nil
}

// GetSpeed returns the most recently requested speed
func (c *Cue) GetSpeed(id int) (float64, error) {
	cur, err := c.activeCursor(id)
	if err != nil {
		return 0, err
	}
	return cur.speed.get(), nil
}

// SetFramePosition moves the cursor; rejected while playing
func (c *Cue) SetFramePosition(id int, frame float64) error {
	return c.setPosition(id, frame)
}

// SetMicrosecondPosition moves the cursor to a time offset at unity
// speed; rejected while playing
func (c *Cue) SetMicrosecondPosition(id int, micros int64) error {
	frame := float64(micros) * constant.AudioSampleRate / 1_000_000
	return c.setPosition(id, frame)
}

// SetFractionalPosition moves the cursor to a normalized position in
// [0, 1]; rejected while playing
func (c *Cue) SetFractionalPosition(id int, n float64) error {
	return c.setPosition(id, clamp(n, 0, 1)*float64(c.frameCount))
}

// GetFramePosition returns the cursor's fractional frame position as of
// the last buffer boundary
func (c *Cue) GetFramePosition(id int) (float64, error) {
	cur, err := c.activeCursor(id)
	if err != nil {
		return 0, err
	}
	return cur.pos.Load(), nil
}

// SetLooping sets the remaining loop count; LoopInfinite loops forever
func (c *Cue) SetLooping(id int, loops int) error {
	cur, err := c.activeCursor(id)
	if err != nil {
		return err
	}
	if loops < constant.LoopInfinite {
		loops = constant.LoopInfinite
	}
	cur.loopRemaining.Store(int64(loops))
	return nil
}

// SetRecycleWhenDone controls automatic release on natural end
func (c *Cue) SetRecycleWhenDone(id int, recycle bool) error {
	cur, err := c.activeCursor(id)
	if err != nil {
		return err
	}
	cur.recycleWhenDone.Store(recycle)
	return nil
}

// --- internal ---

func (c *Cue) setPosition(id int, frame float64) error {
	cur, err := c.activeCursor(id)
	if err != nil {
		return err
	}
	if cur.playing.Load() {
		return ErrInstancePlaying
	}

	cur.pos.Store(clamp(frame, 0, float64(c.frameCount-1)))
	return nil
}

// activeCursor resolves an instance ID, rejecting pooled slots
func (c *Cue) activeCursor(id int) (*cursor, error) {
	if id < 0 || id >= c.polyphony {
		return nil, ErrInactiveInstance
	}
	cur := c.cursors[id]
	if !cur.active.Load() {
		return nil, ErrInactiveInstance
	}
	return cur, nil
}

func (c *Cue) fireInstance(t events.Type, id int, frame float64) {
	c.dispatcher.BroadcastInstance(events.InstanceEvent{
		Type:       t,
		Time:       time.Now().UnixMilli(),
		Source:     c,
		InstanceID: id,
		Frame:      frame,
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
