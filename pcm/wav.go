package pcm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/lixenwraith/audiocue/constant"
)

// Sentinel errors
var (
	// ErrUnsupportedAudioFile signals a file that is not 16-bit 44.1kHz
	// stereo PCM
	ErrUnsupportedAudioFile = errors.New("unsupported audio format, need s16le 44100Hz stereo")

	// ErrIO signals a stream failure while opening or reading audio data
	ErrIO = errors.New("audio stream failure")
)

// streamChunkFrames is the decode granularity; small enough to keep the
// working set in cache, large enough to amortize the Stream call
const streamChunkFrames = 4096

// Load reads a WAV file into interleaved stereo normalized floats
func Load(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrIO, path, err)
	}
	return Decode(f)
}

// Decode reads a WAV stream into interleaved stereo normalized floats
// The reader is closed before returning
// Format mismatches report ErrUnsupportedAudioFile; stream failures
// report ErrIO. Files longer than the frame cap are truncated with a
// warning
func Decode(rc io.ReadCloser) ([]float64, error) {
	streamer, format, err := wav.Decode(rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedAudioFile, err)
	}
	defer streamer.Close()

	if format.SampleRate != beep.SampleRate(constant.AudioSampleRate) ||
		format.NumChannels != constant.AudioChannels ||
		format.Precision != constant.AudioBitDepth/8 {
		return nil, fmt.Errorf("%w: got %dHz %dch %d-bit", ErrUnsupportedAudioFile,
			format.SampleRate, format.NumChannels, format.Precision*8)
	}

	pcm := make([]float64, 0, streamer.Len()*constant.AudioChannels)
	chunk := make([][2]float64, streamChunkFrames)
	frames := 0
	truncated := false

	for {
		n, ok := streamer.Stream(chunk)
		for i := 0; i < n; i++ {
			if frames >= constant.MaxLoadFrames {
				truncated = true
				break
			}
			pcm = append(pcm, chunk[i][0], chunk[i][1])
			frames++
		}
		if truncated || !ok {
			break
		}
	}

	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("%w: decoding stream: %v", ErrIO, err)
	}

	if truncated {
		log.Warn("audio file exceeds frame cap, truncated",
			"frames", frames, "cap", constant.MaxLoadFrames)
	}

	return pcm, nil
}
