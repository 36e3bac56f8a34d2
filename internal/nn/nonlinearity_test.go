package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steer-ml/steer/internal/backend/cpu"
	"github.com/steer-ml/steer/internal/group"
	"github.com/steer-ml/steer/internal/tensor"
)

func TestPointwiseReLU(t *testing.T) {
	backend := cpu.New()
	g := group.Cyclic(4)
	ft := RegularFields(g, 1)

	x, err := tensor.FromSlice([]float32{-1, 2, -3, 4}, tensor.Shape{1, 4, 1, 1}, backend)
	require.NoError(t, err)

	relu := NewPointwiseReLU[*cpu.CPUBackend](ft)
	out := relu.Forward(MustWrap(x, ft)).Unwrap().Data()
	assert.Equal(t, []float32{0, 2, 0, 4}, out)
}

func TestPointwiseReLURejectsNonPointwise(t *testing.T) {
	g := group.Cyclic(4)
	rot, err := g.Irrep("irrep_1")
	require.NoError(t, err)
	ft := NewFieldType(g, []*group.Representation{rot})

	assert.Panics(t, func() { NewPointwiseReLU[*cpu.CPUBackend](ft) })
}

// Permutation representations commute with any element-wise function.
func TestPointwiseReLUEquivariance(t *testing.T) {
	backend := cpu.New()
	g := group.Dihedral(2)
	ft := RegularFields(g, 2)

	relu := NewPointwiseReLU[*cpu.CPUBackend](ft)
	x := MustWrap(tensor.Randn[float32](tensor.Shape{1, ft.Size(), 4, 4}, backend), ft)

	for _, e := range g.Elements() {
		a := relu.Forward(x.TransformFibers(e)).Unwrap().Data()
		b := relu.Forward(x).TransformFibers(e).Unwrap().Data()
		assert.Equal(t, b, a, "element %d", e)
	}
}

// Orthogonal representations preserve fiber norms, so the norm
// nonlinearity is equivariant on any field type, including the
// rotational irreps that pointwise layers reject.
func TestNormNonLinearityEquivariance(t *testing.T) {
	backend := cpu.New()
	g := group.Cyclic(8)
	rot1, err := g.Irrep("irrep_1")
	require.NoError(t, err)
	rot2, err := g.Irrep("irrep_2")
	require.NoError(t, err)
	ft := NewFieldType(g, []*group.Representation{rot1, rot2, g.TrivialRepresentation()})

	nl := NewNormNonLinearity(ft, backend)
	biases := nl.bias.Tensor().Data()
	biases[0], biases[1], biases[2] = -0.2, 0.1, -0.5

	x := MustWrap(tensor.Randn[float32](tensor.Shape{2, ft.Size(), 3, 3}, backend), ft)
	for _, e := range g.Elements() {
		a := nl.Forward(x.TransformFibers(e)).Unwrap().Data()
		b := nl.Forward(x).TransformFibers(e).Unwrap().Data()
		for i := range a {
			assert.InDelta(t, b[i], a[i], 1e-5, "element %d", e)
		}
	}
}

func TestNormNonLinearityThresholds(t *testing.T) {
	backend := cpu.New()
	g := group.Cyclic(4)
	rot, err := g.Irrep("irrep_1")
	require.NoError(t, err)
	ft := NewFieldType(g, []*group.Representation{rot})

	nl := NewNormNonLinearity(ft, backend)
	nl.bias.Tensor().Data()[0] = -2

	// Fiber (3, 4) has norm 5: scaled to norm 3. Fiber (1, 0) has norm
	// 1 < 2: zeroed.
	x, err := tensor.FromSlice([]float32{3, 1, 4, 0}, tensor.Shape{1, 2, 1, 2}, backend)
	require.NoError(t, err)
	out := nl.Forward(MustWrap(x, ft)).Unwrap().Data()

	assert.InDelta(t, 3*3.0/5, out[0], 1e-5)
	assert.InDelta(t, 4*3.0/5, out[2], 1e-5)
	assert.InDelta(t, 0, out[1], 1e-6)
	assert.InDelta(t, 0, out[3], 1e-6)
}
