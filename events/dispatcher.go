package events

import (
	"sync"
	"sync/atomic"
)

// Dispatcher broadcasts lifecycle events to registered listeners
//
// Thread-Safety:
//   - Add/Remove: mutex-guarded copy-on-write, any goroutine
//   - Broadcast: lock-free snapshot load, safe on the audio goroutine
//
// A broadcast iterates the snapshot current at its start; a listener
// removed concurrently may still see one final event
type Dispatcher struct {
	mu        sync.Mutex
	listeners atomic.Pointer[[]Listener]
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{}
	empty := make([]Listener, 0)
	d.listeners.Store(&empty)
	return d
}

// AddListener registers l for all subsequent broadcasts
func (d *Dispatcher) AddListener(l Listener) {
	if l == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	old := *d.listeners.Load()
	next := make([]Listener, len(old), len(old)+1)
	copy(next, old)
	next = append(next, l)
	d.listeners.Store(&next)
}

// RemoveListener unregisters the first occurrence of l
func (d *Dispatcher) RemoveListener(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()

	old := *d.listeners.Load()
	for i, existing := range old {
		if existing == l {
			next := make([]Listener, 0, len(old)-1)
			next = append(next, old[:i]...)
			next = append(next, old[i+1:]...)
			d.listeners.Store(&next)
			return
		}
	}
}

// ListenerCount returns the number of registered listeners
func (d *Dispatcher) ListenerCount() int {
	return len(*d.listeners.Load())
}

// BroadcastOpened delivers a CueOpened event
func (d *Dispatcher) BroadcastOpened(e OpenEvent) {
	for _, l := range *d.listeners.Load() {
		l.AudioCueOpened(e)
	}
}

// BroadcastClosed delivers a CueClosed event
func (d *Dispatcher) BroadcastClosed(e CloseEvent) {
	for _, l := range *d.listeners.Load() {
		l.AudioCueClosed(e)
	}
}

// BroadcastInstance delivers a per-instance event
func (d *Dispatcher) BroadcastInstance(e InstanceEvent) {
	for _, l := range *d.listeners.Load() {
		l.OnInstanceEvent(e)
	}
}
