package events

// Type identifies a cue lifecycle event
type Type int

const (
	// CueOpened signals a cue acquired its output path
	// Trigger: Cue.Open | Payload: OpenEvent
	CueOpened Type = iota

	// CueClosed signals a cue released its output path
	// Trigger: Cue.Close | Payload: CloseEvent
	CueClosed

	// ObtainInstance signals an instance left the availability pool
	ObtainInstance

	// ReleaseInstance signals an instance returned to the availability pool
	ReleaseInstance

	// StartInstance signals an instance began advancing
	StartInstance

	// StopInstance signals an instance stopped, by request or natural end
	StopInstance

	// Loop signals an instance wrapped back to frame zero
	Loop

	typeCount
)

func (t Type) String() string {
	switch t {
	case CueOpened:
		return "cue-opened"
	case CueClosed:
		return "cue-closed"
	case ObtainInstance:
		return "obtain-instance"
	case ReleaseInstance:
		return "release-instance"
	case StartInstance:
		return "start-instance"
	case StopInstance:
		return "stop-instance"
	case Loop:
		return "loop"
	default:
		return "unknown"
	}
}

// Source is the handle through which an event names the cue that
// produced it. Events carry the interface, not the concrete cue type;
// the value is an ordinary reference, so a listener that retains an
// event keeps its cue reachable
type Source interface {
	GetName() string
	FrameLength() int
}

// OpenEvent is delivered when a cue opens its output path
type OpenEvent struct {
	Time           int64 // Wall clock, milliseconds
	ThreadPriority int
	BufferFrames   int
	Source         Source
}

// CloseEvent is delivered when a cue closes its output path
type CloseEvent struct {
	Time   int64 // Wall clock, milliseconds
	Source Source
}

// InstanceEvent is delivered for per-instance lifecycle transitions
type InstanceEvent struct {
	Type       Type
	Time       int64 // Wall clock, milliseconds
	Source     Source
	InstanceID int
	Frame      float64 // Cursor position when the event fired
}

// Listener receives cue lifecycle notifications
// Calls arrive synchronously on whichever goroutine fired the event,
// including the audio goroutine; implementations must not block
type Listener interface {
	AudioCueOpened(e OpenEvent)
	AudioCueClosed(e CloseEvent)
	OnInstanceEvent(e InstanceEvent)
}
