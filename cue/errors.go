package cue

import "errors"

// Sentinel errors
var (
	ErrInactiveInstance = errors.New("instance is in the availability pool")
	ErrInstancePlaying  = errors.New("operation not permitted on a playing instance")
	ErrAlreadyOpen      = errors.New("cue is already open")
	ErrAlreadyClosed    = errors.New("cue is already closed")
	ErrInvalidPcm       = errors.New("pcm length must be an even number of floats")
	ErrInvalidParameter = errors.New("parameter out of range")
)
