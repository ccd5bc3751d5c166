package sink

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// BackendType identifies a CLI audio backend
type BackendType int

const (
	BackendPulse BackendType = iota
	BackendPipeWire
	BackendALSA
	BackendSoX
	BackendFFplay
	BackendOSS
)

// BackendConfig describes a CLI audio backend accepting s16le 44100Hz
// stereo PCM on stdin
type BackendConfig struct {
	Type BackendType
	Name string
	Path string
	Args []string
}

// candidate backends in preference order: lowest-latency native
// servers first, heavyweight decoders last
var backendCandidates = []struct {
	typ  BackendType
	name string
	bin  string
	args []string
}{
	{BackendPulse, "pacat", "pacat", []string{
		"--raw", "--format=s16le", "--rate=44100", "--channels=2",
		"--latency-msec=50", "--playback",
	}},
	{BackendPipeWire, "pw-cat", "pw-cat", []string{
		"--playback", "--format=s16", "--rate=44100", "--channels=2",
		"--latency=50ms", "-",
	}},
	{BackendALSA, "aplay", "aplay", []string{
		"-t", "raw", "-f", "S16_LE", "-r", "44100", "-c", "2", "-q",
	}},
	{BackendSoX, "sox", "play", []string{
		"-t", "raw", "-e", "signed", "-b", "16", "-c", "2", "-r", "44100",
		"-", "-d", "-q",
	}},
	{BackendFFplay, "ffplay", "ffplay", []string{
		"-nodisp", "-autoexit", "-f", "s16le", "-ac", "2", "-ar", "44100",
		"-probesize", "32", "-analyzeduration", "0", "-i", "pipe:0",
		"-loglevel", "quiet",
	}},
}

// DetectBackend searches PATH for an audio backend able to play the
// engine's PCM format
func DetectBackend() (*BackendConfig, error) {
	for _, c := range backendCandidates {
		if path, err := exec.LookPath(c.bin); err == nil {
			return &BackendConfig{Type: c.typ, Name: c.name, Path: path, Args: c.args}, nil
		}
	}

	// FreeBSD OSS: direct device write, no exec needed
	if runtime.GOOS == "freebsd" {
		if _, err := os.Stat("/dev/dsp"); err == nil {
			return &BackendConfig{Type: BackendOSS, Name: "oss", Path: "/dev/dsp"}, nil
		}
	}

	return nil, ErrNoAudioBackend
}

// PipeSink feeds a detected CLI backend over stdin
// The child process paces writes with its own device buffering
type PipeSink struct {
	backend *BackendConfig
	cmd     *exec.Cmd
	out     *os.File // OSS direct write
	stdin   io.WriteCloser
}

// NewPipeSink prepares a sink for the given backend; nil backend
// triggers detection
func NewPipeSink(backend *BackendConfig) (*PipeSink, error) {
	if backend == nil {
		detected, err := DetectBackend()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSinkUnavailable, err)
		}
		backend = detected
	}
	return &PipeSink{backend: backend}, nil
}

// PipeFactory is a Factory producing auto-detected CLI backend sinks
func PipeFactory(byteBufferSize int) (Sink, error) {
	return NewPipeSink(nil)
}

func (s *PipeSink) Start() error {
	if s.backend.Type == BackendOSS {
		f, err := os.OpenFile(s.backend.Path, os.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSinkUnavailable, err)
		}
		s.out = f
		s.stdin = f
		return nil
	}

	cmd := exec.Command(s.backend.Path, s.backend.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSinkUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrSinkUnavailable, err)
	}

	s.cmd = cmd
	s.stdin = stdin
	return nil
}

func (s *PipeSink) Write(p []byte) (int, error) {
	if s.stdin == nil {
		return 0, ErrPipeClosed
	}
	n, err := s.stdin.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrPipeClosed, err)
	}
	return n, nil
}

// Drain syncs the OSS device file; for an exec backend it does nothing,
// and Close waits for the child to exit once its stdin is closed
func (s *PipeSink) Drain() {
	if s.out != nil {
		s.out.Sync()
	}
}

func (s *PipeSink) Close() error {
	if s.stdin != nil {
		s.stdin.Close()
		s.stdin = nil
	}
	if s.cmd != nil {
		return s.cmd.Wait()
	}
	return nil
}

// Backend returns the configuration this sink was built on
func (s *PipeSink) Backend() *BackendConfig {
	return s.backend
}
