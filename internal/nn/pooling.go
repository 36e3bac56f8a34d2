package nn

import (
	"fmt"
	"math"

	"github.com/steer-ml/steer/internal/tensor"
)

// PointwiseAvgPoolAntialiased downsamples feature maps with a Gaussian
// blur followed by subsampling.
//
// Plain strided pooling aliases high frequencies, and aliasing is what
// breaks the approximate rotation equivariance of sampled feature maps.
// Blurring before subsampling bounds that error. The blur applies the
// same scalar filter to every channel, so it commutes with any fiber
// representation and the layer accepts all field types.
type PointwiseAvgPoolAntialiased[B tensor.Backend] struct {
	ftype   *FieldType
	stride  int
	padding int
	filter  *tensor.RawTensor // [channels, 1, k, k] depthwise Gaussian

	backend B
}

// NewPointwiseAvgPoolAntialiased creates an anti-aliased pool with the
// given Gaussian width and stride. The filter size is derived from
// sigma (covering ±4 standard deviations) and applied with half-size
// padding, so spatial dims shrink by the stride alone.
func NewPointwiseAvgPoolAntialiased[B tensor.Backend](ftype *FieldType, sigma float64, stride int, backend B) *PointwiseAvgPoolAntialiased[B] {
	if sigma <= 0 {
		panic(fmt.Sprintf("nn: anti-aliased pooling needs a positive sigma, got %g", sigma))
	}
	if stride < 1 {
		panic(fmt.Sprintf("nn: anti-aliased pooling needs a positive stride, got %d", stride))
	}

	k := 2*int(math.Round(4*sigma)) + 1
	c := ftype.Size()
	raw, err := tensor.NewRaw(tensor.Shape{c, 1, k, k}, tensor.Float32, backend.Device())
	if err != nil {
		panic(fmt.Sprintf("nn: %v", err))
	}

	// One normalized Gaussian, replicated per channel.
	g := make([]float64, k*k)
	center := float64(k-1) / 2
	var sum float64
	for y := 0; y < k; y++ {
		for x := 0; x < k; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			v := math.Exp(-(dx*dx + dy*dy) / (2 * sigma * sigma))
			g[y*k+x] = v
			sum += v
		}
	}
	data := raw.AsFloat32()
	for ch := 0; ch < c; ch++ {
		for p, v := range g {
			data[ch*k*k+p] = float32(v / sum)
		}
	}

	return &PointwiseAvgPoolAntialiased[B]{
		ftype:   ftype,
		stride:  stride,
		padding: (k - 1) / 2,
		filter:  raw,
		backend: backend,
	}
}

// Forward blurs and subsamples; the field type is unchanged.
func (p *PointwiseAvgPoolAntialiased[B]) Forward(input *GeometricTensor[B]) *GeometricTensor[B] {
	if !input.Type().Equal(p.ftype) {
		panic(fmt.Sprintf("nn: pooling input has field type %s, want %s", input.Type(), p.ftype))
	}
	out := p.backend.DepthwiseConv2D(input.Unwrap().Raw(), p.filter, p.stride, p.padding)
	return &GeometricTensor[B]{t: tensor.New[float32, B](out, p.backend), ft: p.ftype}
}

// InType returns the field type (input and output are identical).
func (p *PointwiseAvgPoolAntialiased[B]) InType() *FieldType { return p.ftype }

// OutType returns the field type.
func (p *PointwiseAvgPoolAntialiased[B]) OutType() *FieldType { return p.ftype }

// Parameters returns an empty slice; the Gaussian filter is fixed.
func (p *PointwiseAvgPoolAntialiased[B]) Parameters() []*Parameter[B] { return nil }

// PointwiseAvgPool applies plain spatial average pooling.
//
// Averaging is linear and channel-wise, so it commutes with any fiber
// representation and the layer accepts all field types. It aliases high
// frequencies; prefer PointwiseAvgPoolAntialiased when downsampling
// inside an equivariant stack.
type PointwiseAvgPool[B tensor.Backend] struct {
	ftype      *FieldType
	kernelSize int
	stride     int

	backend B
}

// NewPointwiseAvgPool creates an average pooling layer over any field
// type.
func NewPointwiseAvgPool[B tensor.Backend](ftype *FieldType, kernelSize, stride int, backend B) *PointwiseAvgPool[B] {
	if kernelSize < 1 || stride < 1 {
		panic(fmt.Sprintf("nn: PointwiseAvgPool needs positive kernel size and stride, got %d and %d", kernelSize, stride))
	}
	return &PointwiseAvgPool[B]{ftype: ftype, kernelSize: kernelSize, stride: stride, backend: backend}
}

// Forward average-pools each channel; the field type is unchanged.
func (p *PointwiseAvgPool[B]) Forward(input *GeometricTensor[B]) *GeometricTensor[B] {
	if !input.Type().Equal(p.ftype) {
		panic(fmt.Sprintf("nn: pooling input has field type %s, want %s", input.Type(), p.ftype))
	}
	out := p.backend.AvgPool2D(input.Unwrap().Raw(), p.kernelSize, p.stride)
	return &GeometricTensor[B]{t: tensor.New[float32, B](out, p.backend), ft: p.ftype}
}

// InType returns the field type (input and output are identical).
func (p *PointwiseAvgPool[B]) InType() *FieldType { return p.ftype }

// OutType returns the field type.
func (p *PointwiseAvgPool[B]) OutType() *FieldType { return p.ftype }

// Parameters returns an empty slice.
func (p *PointwiseAvgPool[B]) Parameters() []*Parameter[B] { return nil }

// PointwiseMaxPool applies plain spatial max pooling.
//
// Max is element-wise across channels, so like other pointwise layers it
// is only equivariant on permutation representations.
type PointwiseMaxPool[B tensor.Backend] struct {
	ftype      *FieldType
	kernelSize int
	stride     int

	backend B
}

// NewPointwiseMaxPool creates a max pooling layer over a
// pointwise-compatible field type.
func NewPointwiseMaxPool[B tensor.Backend](ftype *FieldType, kernelSize, stride int, backend B) *PointwiseMaxPool[B] {
	if !ftype.SupportsPointwise() {
		panic(fmt.Sprintf("nn: PointwiseMaxPool requires permutation representations, got field type %s", ftype))
	}
	if kernelSize < 1 || stride < 1 {
		panic(fmt.Sprintf("nn: PointwiseMaxPool needs positive kernel size and stride, got %d and %d", kernelSize, stride))
	}
	return &PointwiseMaxPool[B]{ftype: ftype, kernelSize: kernelSize, stride: stride, backend: backend}
}

// Forward max-pools each channel; the field type is unchanged.
func (p *PointwiseMaxPool[B]) Forward(input *GeometricTensor[B]) *GeometricTensor[B] {
	if !input.Type().Equal(p.ftype) {
		panic(fmt.Sprintf("nn: pooling input has field type %s, want %s", input.Type(), p.ftype))
	}
	out := p.backend.MaxPool2D(input.Unwrap().Raw(), p.kernelSize, p.stride)
	return &GeometricTensor[B]{t: tensor.New[float32, B](out, p.backend), ft: p.ftype}
}

// InType returns the field type (input and output are identical).
func (p *PointwiseMaxPool[B]) InType() *FieldType { return p.ftype }

// OutType returns the field type.
func (p *PointwiseMaxPool[B]) OutType() *FieldType { return p.ftype }

// Parameters returns an empty slice.
func (p *PointwiseMaxPool[B]) Parameters() []*Parameter[B] { return nil }

// GroupPooling collapses each regular field to a single invariant
// channel by taking the maximum over the group dimension.
//
// A regular field carries one channel per group element, permuted by the
// group action; the channel-wise maximum is therefore invariant. The
// output type is one trivial field per input field, the usual bridge
// from equivariant features to an invariant classifier head.
type GroupPooling[B tensor.Backend] struct {
	inType  *FieldType
	outType *FieldType
}

// NewGroupPooling creates a group pooling layer. Every field of the
// input type must carry the regular representation.
func NewGroupPooling[B tensor.Backend](inType *FieldType) *GroupPooling[B] {
	regular := inType.Group().RegularRepresentation()
	for i := 0; i < inType.Fields(); i++ {
		if !inType.Representation(i).Equal(regular) {
			panic(fmt.Sprintf("nn: GroupPooling requires regular fields, field %d of %s is %s",
				i, inType, inType.Representation(i).Name()))
		}
	}
	return &GroupPooling[B]{
		inType:  inType,
		outType: TrivialFields(inType.Group(), inType.Fields()),
	}
}

// Forward reduces [batch, fields·|G|, h, w] to [batch, fields, h, w] by
// a maximum over each field's group dimension.
func (p *GroupPooling[B]) Forward(input *GeometricTensor[B]) *GeometricTensor[B] {
	if !input.Type().Equal(p.inType) {
		panic(fmt.Sprintf("nn: GroupPooling input has field type %s, want %s", input.Type(), p.inType))
	}

	shape := input.Shape()
	n, h, w := shape[0], shape[2], shape[3]
	order := p.inType.Group().Order()

	out := input.Unwrap().
		Reshape(n, p.inType.Fields(), order, h, w).
		MaxDim(2, false)
	return &GeometricTensor[B]{t: out, ft: p.outType}
}

// InType returns the regular input field type.
func (p *GroupPooling[B]) InType() *FieldType { return p.inType }

// OutType returns the trivial output field type.
func (p *GroupPooling[B]) OutType() *FieldType { return p.outType }

// Parameters returns an empty slice.
func (p *GroupPooling[B]) Parameters() []*Parameter[B] { return nil }
