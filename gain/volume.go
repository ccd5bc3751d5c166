package gain

import "math"

// VolType selects the volume curve applied to an instance's linear
// volume control
type VolType int

const (
	VolLinear VolType = iota
	VolExpX2
	VolExpX3
	VolExpX4
	VolExpX5
	VolExp60DB
	volTypeCount
)

// DefaultVolType approximates a ~60dB perceptual curve
const DefaultVolType = VolExpX4

// Gain maps the linear control x to a per-instance gain factor
// Input is clamped to [0, 1] before the curve is evaluated
func (v VolType) Gain(x float64) float64 {
	if x < 0 {
		x = 0
	} else if x > 1 {
		x = 1
	}

	switch v {
	case VolLinear:
		return x
	case VolExpX2:
		return x * x
	case VolExpX3:
		return x * x * x
	case VolExpX4:
		x2 := x * x
		return x2 * x2
	case VolExpX5:
		x2 := x * x
		return x2 * x2 * x
	case VolExp60DB:
		if x == 0 {
			return 0
		}
		return math.Exp(x*6.908) / 1000.0
	default:
		return x
	}
}

// Valid reports whether v names a defined volume curve
func (v VolType) Valid() bool {
	return v >= 0 && v < volTypeCount
}

func (v VolType) String() string {
	switch v {
	case VolLinear:
		return "linear"
	case VolExpX2:
		return "exp-x2"
	case VolExpX3:
		return "exp-x3"
	case VolExpX4:
		return "exp-x4"
	case VolExpX5:
		return "exp-x5"
	case VolExp60DB:
		return "exp-60db"
	default:
		return "unknown"
	}
}
