package pcm

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"pgregory.net/rapid"
)

// TestPackKnownValues verifies the little-endian signed encoding
func TestPackKnownValues(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want int16
	}{
		{"zero", 0, 0},
		{"full positive", 1, 32767},
		{"full negative", -1, -32767},
		{"half", 0.5, 16383}, // Truncation toward zero
		{"negative half", -0.5, -16383},
	}

	for _, tc := range cases {
		dst := make([]byte, 2)
		if err := Pack(dst, []float64{tc.in}); err != nil {
			t.Fatalf("%s: Pack failed: %v", tc.name, err)
		}
		got := int16(binary.LittleEndian.Uint16(dst))
		if got != tc.want {
			t.Errorf("%s: Pack(%v) = %d, want %d", tc.name, tc.in, got, tc.want)
		}
	}
}

// TestPackByteOrder verifies low byte first
func TestPackByteOrder(t *testing.T) {
	dst := make([]byte, 2)
	if err := Pack(dst, []float64{1}); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	if dst[0] != 0xFF || dst[1] != 0x7F {
		t.Errorf("Pack(1) bytes = [%#x %#x], want [0xff 0x7f]", dst[0], dst[1])
	}
}

// TestPackLengthMismatch verifies the sizing contract
func TestPackLengthMismatch(t *testing.T) {
	if err := Pack(make([]byte, 3), make([]float64, 2)); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
	if err := Unpack(make([]float64, 2), make([]byte, 3)); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch from Unpack, got %v", err)
	}
	if err := Pack(nil, nil); err != nil {
		t.Errorf("Expected empty pack to succeed, got %v", err)
	}
}

// TestPackRoundTrip verifies decode recovers input within one quantum
func TestPackRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		src := rapid.SliceOfN(rapid.Float64Range(-1, 1), 1, 256).Draw(t, "src")

		dst := make([]byte, 2*len(src))
		if err := Pack(dst, src); err != nil {
			t.Fatalf("Pack failed: %v", err)
		}

		back := make([]float64, len(src))
		if err := Unpack(back, dst); err != nil {
			t.Fatalf("Unpack failed: %v", err)
		}

		for i := range src {
			if math.Abs(back[i]-src[i]) > 1.0/32767.0 {
				t.Fatalf("sample %d: round trip %v -> %v, error above 1/32767", i, src[i], back[i])
			}
		}
	})
}
