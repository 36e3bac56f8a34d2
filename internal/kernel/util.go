package kernel

import "math"

// cosSin returns cos/sin of an angle snapped to exact -1, 0, 1 within
// floating-point noise, so constraint systems for axis-aligned rotations
// are exact.
func cosSin(angle float64) (float64, float64) {
	return snap(math.Cos(angle)), snap(math.Sin(angle))
}

func snap(v float64) float64 {
	for _, e := range [...]float64{-1, 0, 1} {
		if math.Abs(v-e) < 1e-12 {
			return e
		}
	}
	return v
}
