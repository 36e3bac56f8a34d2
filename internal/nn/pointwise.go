package nn

import (
	"fmt"

	"github.com/steer-ml/steer/internal/tensor"
)

// PointwiseReLU applies the rectifier element-wise.
//
// An element-wise function commutes with the group action only when the
// action permutes channels, so the layer accepts permutation
// representations (regular and trivial fields) and panics on anything
// else. Use NormNonLinearity for general field types.
type PointwiseReLU[B tensor.Backend] struct {
	ftype *FieldType
}

// NewPointwiseReLU creates a pointwise ReLU over a pointwise-compatible
// field type.
func NewPointwiseReLU[B tensor.Backend](ftype *FieldType) *PointwiseReLU[B] {
	if !ftype.SupportsPointwise() {
		panic(fmt.Sprintf("nn: PointwiseReLU requires permutation representations, got field type %s", ftype))
	}
	return &PointwiseReLU[B]{ftype: ftype}
}

// Forward applies max(0, x) element-wise; the field type is unchanged.
func (r *PointwiseReLU[B]) Forward(input *GeometricTensor[B]) *GeometricTensor[B] {
	if !input.Type().Equal(r.ftype) {
		panic(fmt.Sprintf("nn: PointwiseReLU input has field type %s, want %s", input.Type(), r.ftype))
	}
	return &GeometricTensor[B]{t: input.Unwrap().ReLU(), ft: r.ftype}
}

// InType returns the field type (input and output are identical).
func (r *PointwiseReLU[B]) InType() *FieldType { return r.ftype }

// OutType returns the field type.
func (r *PointwiseReLU[B]) OutType() *FieldType { return r.ftype }

// Parameters returns an empty slice; the layer has no parameters.
func (r *PointwiseReLU[B]) Parameters() []*Parameter[B] { return nil }
