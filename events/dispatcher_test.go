package events

import (
	"sync"
	"testing"
)

type recordingListener struct {
	mu       sync.Mutex
	opened   []OpenEvent
	closed   []CloseEvent
	instance []InstanceEvent
}

func (r *recordingListener) AudioCueOpened(e OpenEvent) {
	r.mu.Lock()
	r.opened = append(r.opened, e)
	r.mu.Unlock()
}

func (r *recordingListener) AudioCueClosed(e CloseEvent) {
	r.mu.Lock()
	r.closed = append(r.closed, e)
	r.mu.Unlock()
}

func (r *recordingListener) OnInstanceEvent(e InstanceEvent) {
	r.mu.Lock()
	r.instance = append(r.instance, e)
	r.mu.Unlock()
}

func (r *recordingListener) instanceCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instance)
}

type fakeSource struct{ name string }

func (f *fakeSource) GetName() string  { return f.name }
func (f *fakeSource) FrameLength() int { return 44100 }

// TestDispatcherAddRemove verifies registration bookkeeping
func TestDispatcherAddRemove(t *testing.T) {
	d := NewDispatcher()

	a := &recordingListener{}
	b := &recordingListener{}

	d.AddListener(a)
	d.AddListener(b)
	if d.ListenerCount() != 2 {
		t.Fatalf("Expected 2 listeners, got %d", d.ListenerCount())
	}

	d.RemoveListener(a)
	if d.ListenerCount() != 1 {
		t.Fatalf("Expected 1 listener after remove, got %d", d.ListenerCount())
	}

	// Removing an unregistered listener is a no-op
	d.RemoveListener(a)
	if d.ListenerCount() != 1 {
		t.Fatalf("Expected 1 listener after duplicate remove, got %d", d.ListenerCount())
	}

	// Nil listeners are rejected
	d.AddListener(nil)
	if d.ListenerCount() != 1 {
		t.Fatalf("Expected nil add to be ignored, got %d listeners", d.ListenerCount())
	}
}

// TestDispatcherBroadcast verifies events reach all listeners
func TestDispatcherBroadcast(t *testing.T) {
	d := NewDispatcher()
	src := &fakeSource{name: "test-cue"}

	a := &recordingListener{}
	b := &recordingListener{}
	d.AddListener(a)
	d.AddListener(b)

	d.BroadcastOpened(OpenEvent{Time: 1, ThreadPriority: 10, BufferFrames: 1024, Source: src})
	d.BroadcastInstance(InstanceEvent{Type: StartInstance, Source: src, InstanceID: 3, Frame: 0})
	d.BroadcastClosed(CloseEvent{Time: 2, Source: src})

	for name, l := range map[string]*recordingListener{"a": a, "b": b} {
		if len(l.opened) != 1 || len(l.closed) != 1 || l.instanceCount() != 1 {
			t.Errorf("listener %s: got %d/%d/%d events, want 1/1/1",
				name, len(l.opened), len(l.closed), l.instanceCount())
		}
	}

	if a.instance[0].InstanceID != 3 {
		t.Errorf("Expected instance id 3, got %d", a.instance[0].InstanceID)
	}
	if a.opened[0].Source.GetName() != "test-cue" {
		t.Errorf("Expected source name test-cue, got %q", a.opened[0].Source.GetName())
	}
}

// TestDispatcherRemovedListenerStops verifies no delivery after removal
func TestDispatcherRemovedListenerStops(t *testing.T) {
	d := NewDispatcher()

	a := &recordingListener{}
	d.AddListener(a)
	d.BroadcastInstance(InstanceEvent{Type: Loop})
	d.RemoveListener(a)
	d.BroadcastInstance(InstanceEvent{Type: Loop})

	if a.instanceCount() != 1 {
		t.Errorf("Expected 1 event, got %d", a.instanceCount())
	}
}

// TestDispatcherConcurrentRegistration verifies broadcast never blocks
// on concurrent add/remove
func TestDispatcherConcurrentRegistration(t *testing.T) {
	d := NewDispatcher()
	stop := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			l := &recordingListener{}
			d.AddListener(l)
			d.RemoveListener(l)
		}
	}()

	for i := 0; i < 10000; i++ {
		d.BroadcastInstance(InstanceEvent{Type: Loop, InstanceID: i})
	}

	close(stop)
	wg.Wait()
}

// TestTypeStrings verifies event names
func TestTypeStrings(t *testing.T) {
	want := map[Type]string{
		CueOpened:       "cue-opened",
		CueClosed:       "cue-closed",
		ObtainInstance:  "obtain-instance",
		ReleaseInstance: "release-instance",
		StartInstance:   "start-instance",
		StopInstance:    "stop-instance",
		Loop:            "loop",
	}
	for ty, name := range want {
		if ty.String() != name {
			t.Errorf("Type(%d).String() = %q, want %q", ty, ty.String(), name)
		}
	}
}
