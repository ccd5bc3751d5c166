package sink

import (
	"errors"
	"testing"
)

// TestNullSinkLifecycle verifies the silent sink contract
func TestNullSinkLifecycle(t *testing.T) {
	s := NewNullSink()

	if s.Started() {
		t.Error("Expected sink to start unstarted")
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !s.Started() {
		t.Error("Expected Started() after Start()")
	}

	n, err := s.Write(make([]byte, 4096))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != 4096 {
		t.Errorf("Expected full write of 4096, got %d", n)
	}
	if s.BytesWritten() != 4096 {
		t.Errorf("Expected 4096 bytes accounted, got %d", s.BytesWritten())
	}

	s.Drain()

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !s.Closed() {
		t.Error("Expected Closed() after Close()")
	}

	// Writes after close fail
	if _, err := s.Write([]byte{0}); !errors.Is(err, ErrPipeClosed) {
		t.Errorf("Expected ErrPipeClosed after close, got %v", err)
	}
}

// TestNullFactory verifies the factory signature produces usable sinks
func TestNullFactory(t *testing.T) {
	s, err := NullFactory(4096)
	if err != nil {
		t.Fatalf("NullFactory failed: %v", err)
	}
	if s == nil {
		t.Fatal("Expected non-nil sink")
	}
	if err := s.Start(); err != nil {
		t.Errorf("Start failed: %v", err)
	}
}

// TestPipeSinkUnstartedWrite verifies the closed-pipe guard
func TestPipeSinkUnstartedWrite(t *testing.T) {
	s := &PipeSink{backend: &BackendConfig{Type: BackendALSA, Name: "aplay"}}
	if _, err := s.Write([]byte{0, 0}); !errors.Is(err, ErrPipeClosed) {
		t.Errorf("Expected ErrPipeClosed before Start, got %v", err)
	}
}

// TestDetectBackendShape verifies detection returns a usable config
// or the sentinel error on machines without any backend
func TestDetectBackendShape(t *testing.T) {
	cfg, err := DetectBackend()
	if err != nil {
		if !errors.Is(err, ErrNoAudioBackend) {
			t.Fatalf("Expected ErrNoAudioBackend, got %v", err)
		}
		return
	}

	if cfg.Path == "" {
		t.Error("Expected non-empty backend path")
	}
	if cfg.Name == "" {
		t.Error("Expected non-empty backend name")
	}
	if cfg.Type != BackendOSS && len(cfg.Args) == 0 {
		t.Error("Expected exec backend to carry args")
	}
}
