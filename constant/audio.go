package constant

// Audio Hardware Settings
const (
	AudioSampleRate    = 44100
	AudioChannels      = 2
	AudioBitDepth      = 16
	AudioBytesPerFrame = AudioChannels * (AudioBitDepth / 8) // 4 bytes
)

// Buffer Sizing
const (
	// DefaultBufferFrames is frames per standalone player iteration
	DefaultBufferFrames = 1024

	// DefaultMixerBufferFrames is frames per mixer iteration
	DefaultMixerBufferFrames = 8192
)

// Parameter Smoothing
// Ramp lengths in samples for control changes, sized to suppress
// zipper noise at 44.1kHz
const (
	VolumeSteps = 1024
	PanSteps    = 1024
	SpeedSteps  = 4096
)

// Playback Speed Bounds
const (
	SpeedMin = 0.125 // 1/8x
	SpeedMax = 8.0
)

// Thread Priority Bounds
// Advisory priority for the audio goroutine, kept in the platform
// thread priority range
const (
	ThreadPriorityMin     = 1
	ThreadPriorityMax     = 10
	DefaultThreadPriority = ThreadPriorityMax
)

// LoopInfinite makes an instance loop until stopped
const LoopInfinite = -1

// MaxLoadFrames caps loaded cue length; longer files are truncated
const MaxLoadFrames = (1<<31 - 1) / 2
