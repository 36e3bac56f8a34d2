package nn

import (
	"fmt"

	"github.com/steer-ml/steer/internal/tensor"
)

// NormNonLinearity rescales each fiber by a nonlinear function of its
// norm.
//
// Orthogonal representations preserve fiber norms, so any function of
// the norm alone commutes with the group action regardless of the
// representation. Each fiber v becomes v · relu(‖v‖ + b) / ‖v‖ with a
// learnable per-field bias b, the norm-space analogue of a biased ReLU.
// This is the nonlinearity of choice for field types that pointwise
// layers reject.
type NormNonLinearity[B tensor.Backend] struct {
	ftype *FieldType
	bias  *Parameter[B] // per field
	eps   float64

	backend B
}

// NewNormNonLinearity creates a norm nonlinearity over any field type.
func NewNormNonLinearity[B tensor.Backend](ftype *FieldType, backend B) *NormNonLinearity[B] {
	return &NormNonLinearity[B]{
		ftype:   ftype,
		bias:    NewParameter("bias", Zeros(tensor.Shape{ftype.Fields()}, backend)),
		eps:     1e-9,
		backend: backend,
	}
}

// Forward rescales every fiber by relu(‖v‖ + b)/‖v‖. Each field is
// sliced out of the channel dimension, rescaled by a per-pixel factor
// broadcast over its channels, and the fields are concatenated back.
func (nl *NormNonLinearity[B]) Forward(input *GeometricTensor[B]) *GeometricTensor[B] {
	if !input.Type().Equal(nl.ftype) {
		panic(fmt.Sprintf("nn: NormNonLinearity input has field type %s, want %s", input.Type(), nl.ftype))
	}

	x := input.Unwrap()
	biases := nl.bias.Tensor().Data()

	parts := make([]*tensor.Tensor[float32, B], nl.ftype.Fields())
	for fi := range parts {
		seg := x.Slice(1, nl.ftype.FieldOffset(fi), nl.ftype.Representation(fi).Dim())
		norm := seg.Mul(seg).SumDim(1, true).Sqrt()
		scale := norm.AddScalar(float64(biases[fi])).ReLU().Div(norm.AddScalar(nl.eps))
		parts[fi] = seg.Mul(scale)
	}
	return &GeometricTensor[B]{t: tensor.Cat(parts, 1), ft: nl.ftype}
}

// InType returns the field type (input and output are identical).
func (nl *NormNonLinearity[B]) InType() *FieldType { return nl.ftype }

// OutType returns the field type.
func (nl *NormNonLinearity[B]) OutType() *FieldType { return nl.ftype }

// Parameters returns the per-field norm bias.
func (nl *NormNonLinearity[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{nl.bias}
}
