// cueplay is an interactive pad for triggering a cue's instances.
// It loads a WAV file (or synthesizes a test tone), opens the cue on
// the selected sink, and maps keys to playback controls.
package main

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	"github.com/spf13/pflag"

	"github.com/lixenwraith/audiocue/constant"
	"github.com/lixenwraith/audiocue/cue"
	"github.com/lixenwraith/audiocue/events"
	"github.com/lixenwraith/audiocue/gain"
	"github.com/lixenwraith/audiocue/pcm"
	"github.com/lixenwraith/audiocue/sink"
)

const (
	redrawInterval = 50 * time.Millisecond
	eventLogSize   = 8

	toneFrequencyHz = 440.0
	toneDurationMs  = 500
	toneFadeMs      = 10
)

type app struct {
	screen tcell.Screen
	c      *cue.Cue

	// Trigger parameters adjusted from the keyboard
	volume float64
	pan    float64
	speed  float64
	loop   bool

	// Recent lifecycle events
	mu     sync.Mutex
	recent []string
}

// AudioCueOpened implements events.Listener
func (a *app) AudioCueOpened(e events.OpenEvent) {
	a.note(fmt.Sprintf("opened %s (%d frames/buffer)", e.Source.GetName(), e.BufferFrames))
}

// AudioCueClosed implements events.Listener
func (a *app) AudioCueClosed(e events.CloseEvent) {
	a.note(fmt.Sprintf("closed %s", e.Source.GetName()))
}

// OnInstanceEvent implements events.Listener
func (a *app) OnInstanceEvent(e events.InstanceEvent) {
	a.note(fmt.Sprintf("%s #%d @%.0f", e.Type, e.InstanceID, e.Frame))
}

func (a *app) note(s string) {
	a.mu.Lock()
	a.recent = append(a.recent, s)
	if len(a.recent) > eventLogSize {
		a.recent = a.recent[len(a.recent)-eventLogSize:]
	}
	a.mu.Unlock()
}

// testTone synthesizes a faded sine burst for running without assets
func testTone() []float64 {
	frames := constant.AudioSampleRate * toneDurationMs / 1000
	fade := constant.AudioSampleRate * toneFadeMs / 1000
	buf := make([]float64, 2*frames)

	for n := 0; n < frames; n++ {
		s := 0.8 * math.Sin(2*math.Pi*toneFrequencyHz*float64(n)/constant.AudioSampleRate)

		// Fade edges to avoid clicks
		if n < fade {
			s *= float64(n) / float64(fade)
		}
		if frames-n < fade {
			s *= float64(frames-n) / float64(fade)
		}

		buf[2*n] = s
		buf[2*n+1] = s
	}
	return buf
}

func sinkFactory(backend string) sink.Factory {
	switch backend {
	case "pipe":
		return sink.PipeFactory
	case "null":
		return sink.NullFactory
	default:
		return sink.OtoFactory
	}
}

func (a *app) trigger() {
	loops := 0
	if a.loop {
		loops = constant.LoopInfinite
	}
	if id := a.c.PlayAt(a.volume, a.pan, a.speed, loops); id == cue.NoInstance {
		a.note("pool exhausted")
	}
}

func (a *app) stopAll() {
	for id := 0; id < a.c.InstanceCount(); id++ {
		if a.c.IsPlaying(id) {
			a.c.Stop(id)
		}
	}
}

func (a *app) releaseAll() {
	a.stopAll()
	for id := 0; id < a.c.InstanceCount(); id++ {
		if a.c.IsActive(id) {
			a.c.ReleaseInstance(id)
		}
	}
}

func (a *app) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyLeft:
		a.pan = clamp(a.pan-0.1, -1, 1)
	case tcell.KeyRight:
		a.pan = clamp(a.pan+0.1, -1, 1)
	case tcell.KeyUp:
		a.volume = clamp(a.volume+0.05, 0, 1)
	case tcell.KeyDown:
		a.volume = clamp(a.volume-0.05, 0, 1)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			a.trigger()
		case '+', '=':
			a.speed = clamp(a.speed*1.25, constant.SpeedMin, constant.SpeedMax)
		case '-':
			a.speed = clamp(a.speed/1.25, constant.SpeedMin, constant.SpeedMax)
		case 'l':
			a.loop = !a.loop
		case 's':
			a.stopAll()
		case 'r':
			a.releaseAll()
		}
	}
	return true
}

func (a *app) draw() {
	s := a.screen
	s.Clear()

	style := tcell.StyleDefault
	bold := style.Bold(true)

	row := 0
	puts(s, 0, row, bold, fmt.Sprintf("cueplay - %s  (%d frames, %.2fs)",
		a.c.GetName(), a.c.GetFrameLength(),
		float64(a.c.GetMicrosecondLength())/1e6))
	row += 2

	loopLabel := "off"
	if a.loop {
		loopLabel = "inf"
	}
	puts(s, 0, row, style, fmt.Sprintf("vol %.2f  pan %+.2f  speed %.3f  loop %s",
		a.volume, a.pan, a.speed, loopLabel))
	row += 2

	puts(s, 0, row, bold, "instances")
	row++
	for id := 0; id < a.c.InstanceCount(); id++ {
		state := "pooled"
		detail := ""
		if a.c.IsActive(id) {
			state = "stopped"
			if a.c.IsPlaying(id) {
				state = "playing"
			}
			if pos, err := a.c.GetFramePosition(id); err == nil {
				detail = fmt.Sprintf("  frame %8.1f", pos)
			}
		}
		puts(s, 2, row, style, fmt.Sprintf("#%d %-8s%s", id, state, detail))
		row++
	}
	row++

	puts(s, 0, row, bold, "events")
	row++
	a.mu.Lock()
	for _, e := range a.recent {
		puts(s, 2, row, style, e)
		row++
	}
	a.mu.Unlock()

	_, h := s.Size()
	puts(s, 0, h-1, style.Dim(true),
		"space trigger | arrows vol/pan | +/- speed | l loop | s stop | r release | q quit")

	s.Show()
}

func puts(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range text {
		s.SetContent(x+i, y, r, nil, style)
	}
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

func main() {
	file := pflag.String("file", "", "WAV file to load (s16le 44100Hz stereo); synthesized tone when empty")
	polyphony := pflag.Int("polyphony", 6, "concurrent instances")
	bufferFrames := pflag.Int("buffer", constant.DefaultBufferFrames, "frames per mix iteration")
	backend := pflag.String("backend", "device", "output backend: device, pipe or null")
	panLaw := pflag.Int("pan-law", int(gain.DefaultPanType), "pan law 0-3")
	volCurve := pflag.Int("vol-curve", int(gain.DefaultVolType), "volume curve 0-5")
	pflag.Parse()

	var (
		pcmData []float64
		name    string
		err     error
	)
	if *file != "" {
		pcmData, err = pcm.Load(*file)
		if err != nil {
			log.Fatal("failed to load audio file", "file", *file, "err", err)
		}
		name = *file
	} else {
		pcmData = testTone()
		name = "test-tone"
	}

	c, err := cue.NewStereoCue(pcmData, name, *polyphony)
	if err != nil {
		log.Fatal("failed to build cue", "err", err)
	}

	if err := c.SetPanType(gain.PanType(*panLaw)); err != nil {
		log.Fatal("invalid pan law", "err", err)
	}
	if err := c.SetVolType(gain.VolType(*volCurve)); err != nil {
		log.Fatal("invalid volume curve", "err", err)
	}

	a := &app{
		c:      c,
		volume: 1,
		speed:  1,
	}
	c.AddListener(a)

	cfg := cue.DefaultConfig()
	cfg.BufferFrames = *bufferFrames
	cfg.SinkFactory = sinkFactory(*backend)
	if err := c.Open(cfg); err != nil {
		log.Fatal("failed to open cue", "err", err)
	}
	defer c.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal("failed to create screen", "err", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatal("failed to init screen", "err", err)
	}
	a.screen = screen
	defer screen.Fini()

	keys := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			keys <- ev
		}
	}()

	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-keys:
			switch e := ev.(type) {
			case *tcell.EventKey:
				if !a.handleKey(e) {
					return
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-ticker.C:
			a.draw()
		}
	}
}
