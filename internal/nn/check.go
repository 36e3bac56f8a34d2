package nn

import (
	"github.com/steer-ml/steer/internal/group"
	"github.com/steer-ml/steer/internal/tensor"
)

// EquivarianceError measures how far a module is from exact equivariance
// on a given input: for every group element g it compares
// Forward(g·input) against g·Forward(input) and reports the maximum
// absolute difference.
//
// For rotations that are not multiples of 90° the reference action
// interpolates the grid, so a nonzero error is expected even for exact
// layers; callers choose the tolerance appropriate to their group.
func EquivarianceError[B tensor.Backend](m Module[B], input *GeometricTensor[B]) map[group.Element]float64 {
	reference := m.Forward(input)

	errs := make(map[group.Element]float64, len(input.Type().Group().Elements()))
	for _, e := range input.Type().Group().Elements() {
		got := m.Forward(input.Transform(e)).Unwrap().Data()
		want := reference.Transform(e).Unwrap().Data()

		var worst float64
		for i := range got {
			d := float64(got[i] - want[i])
			if d < 0 {
				d = -d
			}
			if d > worst {
				worst = d
			}
		}
		errs[e] = worst
	}
	return errs
}
