package sink

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/lixenwraith/audiocue/constant"
)

// The oto context is process-global; all device sinks share it
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

func sharedContext(byteBufferSize int) (*oto.Context, error) {
	otoOnce.Do(func() {
		frames := byteBufferSize / constant.AudioBytesPerFrame
		bufDur := time.Duration(frames) * time.Second / constant.AudioSampleRate

		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   constant.AudioSampleRate,
			ChannelCount: constant.AudioChannels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   bufDur,
		})
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoCtx = ctx
	})

	if otoErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrSinkUnavailable, otoErr)
	}
	return otoCtx, nil
}

// OtoSink plays packed PCM on the system audio device through oto
// Writes block on an internal pipe once the device buffer is full,
// which paces the producing loop to real time
type OtoSink struct {
	player *oto.Player
	pr     *io.PipeReader
	pw     *io.PipeWriter
}

// NewOtoSink acquires the system audio device
func NewOtoSink(byteBufferSize int) (*OtoSink, error) {
	ctx, err := sharedContext(byteBufferSize)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	return &OtoSink{
		player: ctx.NewPlayer(pr),
		pr:     pr,
		pw:     pw,
	}, nil
}

// OtoFactory is a Factory producing device sinks
func OtoFactory(byteBufferSize int) (Sink, error) {
	return NewOtoSink(byteBufferSize)
}

func (s *OtoSink) Start() error {
	s.player.Play()
	return nil
}

func (s *OtoSink) Write(p []byte) (int, error) {
	n, err := s.pw.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrPipeClosed, err)
	}
	return n, nil
}

// Drain blocks until the device has consumed buffered audio
func (s *OtoSink) Drain() {
	for s.player.BufferedSize() > 0 {
		time.Sleep(time.Millisecond)
	}
}

func (s *OtoSink) Close() error {
	s.pw.Close()
	err := s.player.Close()
	s.pr.Close()
	return err
}
