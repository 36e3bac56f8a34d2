package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steer-ml/steer/internal/backend/cpu"
	"github.com/steer-ml/steer/internal/group"
	"github.com/steer-ml/steer/internal/tensor"
)

func TestInnerBatchNormRejectsNonPointwise(t *testing.T) {
	backend := cpu.New()
	g := group.Cyclic(4)
	rot, err := g.Irrep("irrep_1")
	require.NoError(t, err)

	ft := NewFieldType(g, []*group.Representation{rot})
	assert.Panics(t, func() { NewInnerBatchNorm(ft, backend) })
}

func TestInnerBatchNormNormalizes(t *testing.T) {
	backend := cpu.New()
	g := group.Cyclic(4)
	ft := RegularFields(g, 2)

	bn := NewInnerBatchNorm(ft, backend)
	x := MustWrap(tensor.Randn[float32](tensor.Shape{4, ft.Size(), 6, 6}, backend), ft)
	y := bn.Forward(x)

	// Per-field statistics of the output should be ~N(0, 1).
	shape := y.Shape()
	n, c, hw := shape[0], shape[1], shape[2]*shape[3]
	data := y.Unwrap().Data()
	for fi := 0; fi < ft.Fields(); fi++ {
		off, d := ft.FieldOffset(fi), ft.Representation(fi).Dim()
		var sum, sumSq float64
		for b := 0; b < n; b++ {
			base := (b*c + off) * hw
			for p := 0; p < d*hw; p++ {
				v := float64(data[base+p])
				sum += v
				sumSq += v * v
			}
		}
		count := float64(n * d * hw)
		mean := sum / count
		assert.InDelta(t, 0, mean, 1e-4, "field %d mean", fi)
		assert.InDelta(t, 1, sumSq/count-mean*mean, 1e-3, "field %d variance", fi)
	}
}

// Statistics shared across a field's channels are invariant under the
// channel permutations of the group action, so normalization commutes
// with TransformFibers exactly.
func TestInnerBatchNormEquivariance(t *testing.T) {
	backend := cpu.New()
	g := group.Dihedral(4)
	ft := RegularFields(g, 2)

	bn := NewInnerBatchNorm(ft, backend)
	x := MustWrap(tensor.Randn[float32](tensor.Shape{2, ft.Size(), 5, 5}, backend), ft)

	for _, e := range g.Elements() {
		a := bn.Forward(x.TransformFibers(e)).Unwrap().Data()
		b := bn.Forward(x).TransformFibers(e).Unwrap().Data()
		for i := range a {
			assert.InDelta(t, b[i], a[i], 1e-4, "element %d", e)
		}
	}
}

func TestInnerBatchNormTrainEval(t *testing.T) {
	backend := cpu.New()
	g := group.Cyclic(4)
	ft := RegularFields(g, 1)

	bn := NewInnerBatchNorm(ft, backend)
	assert.True(t, bn.Training())

	// Training forwards move the running statistics off their init.
	x := MustWrap(tensor.Full[float32](tensor.Shape{2, 4, 3, 3}, 5, backend), ft)
	bn.Forward(x)
	assert.InDelta(t, 0.5, bn.runningMean[0], 1e-6) // 0.9·0 + 0.1·5
	assert.InDelta(t, 0.9, bn.runningVar[0], 1e-6)  // 0.9·1 + 0.1·0

	// Evaluation uses the running statistics and leaves them alone.
	bn.SetTraining(false)
	before := bn.runningMean[0]
	out := bn.Forward(x).Unwrap().Data()
	assert.Equal(t, before, bn.runningMean[0])

	// (5 - 0.5) / sqrt(0.9 + eps)
	assert.InDelta(t, 4.743, out[0], 1e-2)
}
