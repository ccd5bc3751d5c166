package pcm

import (
	"encoding/binary"
	"errors"
)

// ErrLengthMismatch signals a byte/float buffer sizing contract violation
var ErrLengthMismatch = errors.New("byte buffer must be twice the float buffer length")

// Pack converts normalized floats to signed 16-bit little-endian bytes
// Values are assumed already clamped to [-1, 1] upstream; conversion
// truncates toward zero
func Pack(dst []byte, src []float64) error {
	if len(dst) != 2*len(src) {
		return ErrLengthMismatch
	}

	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(int16(v*32767)))
	}
	return nil
}

// Unpack converts signed 16-bit little-endian bytes back to normalized
// floats, the inverse of Pack up to quantization
func Unpack(dst []float64, src []byte) error {
	if len(src) != 2*len(dst) {
		return ErrLengthMismatch
	}

	for i := range dst {
		dst[i] = float64(int16(binary.LittleEndian.Uint16(src[i*2:]))) / 32767.0
	}
	return nil
}
