package nn

import (
	"fmt"
	"math"

	"github.com/steer-ml/steer/internal/tensor"
)

// InnerBatchNorm normalizes each field with statistics shared across the
// field's channels.
//
// Per-channel batch normalization would break equivariance: the group
// permutes channels within a field, so each channel must be treated
// identically. Sharing one mean and one variance per field (computed
// over batch, the field's channels, and both spatial dimensions) keeps
// the normalization exactly equivariant for permutation
// representations; the layer therefore requires a field type whose
// representations all act by permutations.
type InnerBatchNorm[B tensor.Backend] struct {
	ftype    *FieldType
	eps      float64
	momentum float64

	weight *Parameter[B] // per-field scale
	bias   *Parameter[B] // per-field shift

	runningMean []float64
	runningVar  []float64
	training    bool

	backend B
}

// NewInnerBatchNorm creates an inner batch normalization layer over a
// pointwise-compatible field type. Panics if any field's representation
// is not a permutation representation.
func NewInnerBatchNorm[B tensor.Backend](ftype *FieldType, backend B) *InnerBatchNorm[B] {
	if !ftype.SupportsPointwise() {
		panic(fmt.Sprintf("nn: InnerBatchNorm requires permutation representations, field type %s has none", ftype))
	}

	f := ftype.Fields()
	bn := &InnerBatchNorm[B]{
		ftype:       ftype,
		eps:         1e-5,
		momentum:    0.1,
		weight:      NewParameter("weight", Ones(tensor.Shape{f}, backend)),
		bias:        NewParameter("bias", Zeros(tensor.Shape{f}, backend)),
		runningMean: make([]float64, f),
		runningVar:  make([]float64, f),
		training:    true,
		backend:     backend,
	}
	for i := range bn.runningVar {
		bn.runningVar[i] = 1
	}
	return bn
}

// SetTraining switches between batch statistics (training) and running
// statistics (evaluation).
func (bn *InnerBatchNorm[B]) SetTraining(training bool) {
	bn.training = training
}

// Training reports whether the layer uses batch statistics.
func (bn *InnerBatchNorm[B]) Training() bool { return bn.training }

// Forward normalizes each field and applies the per-field affine
// transform. In training mode batch statistics are used and the running
// statistics updated; in evaluation mode the running statistics are
// used.
func (bn *InnerBatchNorm[B]) Forward(input *GeometricTensor[B]) *GeometricTensor[B] {
	if !input.Type().Equal(bn.ftype) {
		panic(fmt.Sprintf("nn: InnerBatchNorm input has field type %s, want %s", input.Type(), bn.ftype))
	}

	shape := input.Shape()
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	hw := h * w

	raw, err := tensor.NewRaw(shape.Clone(), tensor.Float32, bn.backend.Device())
	if err != nil {
		panic(fmt.Sprintf("nn: %v", err))
	}
	src := input.Unwrap().Raw().AsFloat32()
	dst := raw.AsFloat32()
	gamma := bn.weight.Tensor().Data()
	beta := bn.bias.Tensor().Data()

	for fi := 0; fi < bn.ftype.Fields(); fi++ {
		off := bn.ftype.FieldOffset(fi)
		d := bn.ftype.Representation(fi).Dim()
		count := float64(n * d * hw)

		mean, variance := bn.runningMean[fi], bn.runningVar[fi]
		if bn.training {
			var sum, sumSq float64
			for b := 0; b < n; b++ {
				base := (b*c + off) * hw
				for p := 0; p < d*hw; p++ {
					v := float64(src[base+p])
					sum += v
					sumSq += v * v
				}
			}
			mean = sum / count
			variance = sumSq/count - mean*mean
			if variance < 0 {
				variance = 0
			}
			bn.runningMean[fi] = (1-bn.momentum)*bn.runningMean[fi] + bn.momentum*mean
			bn.runningVar[fi] = (1-bn.momentum)*bn.runningVar[fi] + bn.momentum*variance
		}

		scale := float64(gamma[fi]) / math.Sqrt(variance+bn.eps)
		shift := float64(beta[fi]) - mean*scale
		for b := 0; b < n; b++ {
			base := (b*c + off) * hw
			for p := 0; p < d*hw; p++ {
				dst[base+p] = float32(float64(src[base+p])*scale + shift)
			}
		}
	}

	return &GeometricTensor[B]{t: tensor.New[float32, B](raw, bn.backend), ft: bn.ftype}
}

// InType returns the field type (input and output are identical).
func (bn *InnerBatchNorm[B]) InType() *FieldType { return bn.ftype }

// OutType returns the field type.
func (bn *InnerBatchNorm[B]) OutType() *FieldType { return bn.ftype }

// Parameters returns the per-field scale and shift.
func (bn *InnerBatchNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{bn.weight, bn.bias}
}
