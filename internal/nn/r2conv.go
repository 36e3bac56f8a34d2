package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/steer-ml/steer/internal/kernel"
	"github.com/steer-ml/steer/internal/tensor"
)

// R2Conv implements steerable convolution between two field types.
//
// The filter is never trained directly: for each (output field, input
// field) pair the layer fetches the cached basis of kernels satisfying
// the steerability constraint for that pair of representations, and the
// trainable parameter is the vector of basis coefficients. The full
// filter is expanded from coefficients and basis on every forward pass,
// so the convolution stays equivariant for any parameter values.
//
// The bias is equally constrained: a free bias per channel would break
// equivariance, so the bias lives on the invariant subspace of the
// output type and is expanded through an orthonormal basis of that
// subspace.
type R2Conv[B tensor.Backend] struct {
	inType     *FieldType
	outType    *FieldType
	kernelSize int
	stride     int
	padding    int

	bases   [][]*kernel.Basis // [out field][in field]
	offsets [][]int           // coefficient offset per field pair
	weight  *Parameter[B]     // flat basis coefficients
	bias    *Parameter[B]     // invariant-subspace coordinates, nil if the subspace is trivial
	biasExp *mat.Dense        // [outType.Size() × bias dim] expansion matrix

	backend B
}

// NewR2Conv creates a steerable convolution layer. Kernel bases are
// solved (or fetched from the process-wide cache) at construction; the
// returned error surfaces solver failures. Geometry errors
// (even kernel size, non-positive stride) are programmer errors and
// panic.
func NewR2Conv[B tensor.Backend](inType, outType *FieldType, kernelSize, stride, padding int, backend B) (*R2Conv[B], error) {
	if kernelSize < 1 || kernelSize%2 == 0 {
		panic(fmt.Sprintf("nn: R2Conv kernel size must be odd and positive, got %d", kernelSize))
	}
	if stride < 1 {
		panic(fmt.Sprintf("nn: R2Conv stride must be positive, got %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("nn: R2Conv padding must be non-negative, got %d", padding))
	}
	if inType.Group().Name() != outType.Group().Name() {
		return nil, fmt.Errorf("nn: R2Conv field types belong to different groups %s and %s",
			inType.Group().Name(), outType.Group().Name())
	}

	c := &R2Conv[B]{
		inType:     inType,
		outType:    outType,
		kernelSize: kernelSize,
		stride:     stride,
		padding:    padding,
		backend:    backend,
	}

	sup := kernel.DefaultSupport(kernelSize, inType.Group().MaxFrequency())
	total := 0
	c.bases = make([][]*kernel.Basis, outType.Fields())
	c.offsets = make([][]int, outType.Fields())
	for i := 0; i < outType.Fields(); i++ {
		c.bases[i] = make([]*kernel.Basis, inType.Fields())
		c.offsets[i] = make([]int, inType.Fields())
		for j := 0; j < inType.Fields(); j++ {
			b, err := kernel.Get(inType.Representation(j), outType.Representation(i), sup)
			if err != nil {
				return nil, fmt.Errorf("nn: R2Conv basis for %s → %s: %w",
					inType.Representation(j), outType.Representation(i), err)
			}
			c.bases[i][j] = b
			c.offsets[i][j] = total
			total += b.Dim()
		}
	}

	// A degenerate configuration (every pair admits an empty basis)
	// leaves the layer with no filter coefficients at all.
	if total > 0 {
		fanIn := inType.Size() * kernelSize * kernelSize
		fanOut := outType.Size() * kernelSize * kernelSize
		c.weight = NewParameter("weight", Xavier(fanIn, fanOut, tensor.Shape{total}, backend))
	}

	if exp := invariantExpansion(outType); exp != nil {
		_, k := exp.Dims()
		c.biasExp = exp
		c.bias = NewParameter("bias", Zeros(tensor.Shape{k}, backend))
	}

	return c, nil
}

// invariantExpansion stacks the per-field invariant subspace bases into
// a block-diagonal [size × k] expansion matrix, or nil when no field has
// an invariant direction.
func invariantExpansion(ft *FieldType) *mat.Dense {
	type block struct {
		off  int
		b    *mat.Dense
		cols int
	}
	var blocks []block
	k := 0
	for i := 0; i < ft.Fields(); i++ {
		inv := ft.Representation(i).InvariantBasis()
		if inv == nil {
			continue
		}
		_, c := inv.Dims()
		blocks = append(blocks, block{off: ft.FieldOffset(i), b: inv, cols: c})
		k += c
	}
	if k == 0 {
		return nil
	}

	exp := mat.NewDense(ft.Size(), k, nil)
	col := 0
	for _, bl := range blocks {
		r, _ := bl.b.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < bl.cols; j++ {
				exp.Set(bl.off+i, col+j, bl.b.At(i, j))
			}
		}
		col += bl.cols
	}
	return exp
}

// Forward convolves the input with the filter expanded from the current
// basis coefficients.
//
// Input shape: [batch, inType.Size(), h, w]
// Output shape: [batch, outType.Size(), h', w'] with the usual
// convolution arithmetic for stride and padding.
func (c *R2Conv[B]) Forward(input *GeometricTensor[B]) *GeometricTensor[B] {
	if !input.Type().Equal(c.inType) {
		panic(fmt.Sprintf("nn: R2Conv input has field type %s, want %s", input.Type(), c.inType))
	}

	filter := c.expandFilter()
	out := tensor.New[float32, B](c.backend.Conv2D(input.Unwrap().Raw(), filter, c.stride, c.padding), c.backend)

	if c.bias != nil {
		out = out.Add(c.expandBias())
	}
	return &GeometricTensor[B]{t: out, ft: c.outType}
}

// expandFilter assembles the dense [outSize, inSize, k, k] filter as the
// coefficient-weighted sum of basis elements, block by field pair.
func (c *R2Conv[B]) expandFilter() *tensor.RawTensor {
	inSize, outSize, k := c.inType.Size(), c.outType.Size(), c.kernelSize
	raw, err := tensor.NewRaw(tensor.Shape{outSize, inSize, k, k}, tensor.Float32, c.backend.Device())
	if err != nil {
		panic(fmt.Sprintf("nn: %v", err))
	}
	data := raw.AsFloat32()
	var coefs []float32
	if c.weight != nil {
		coefs = c.weight.Tensor().Data()
	}
	kk := k * k

	for i := 0; i < c.outType.Fields(); i++ {
		offO := c.outType.FieldOffset(i)
		for j := 0; j < c.inType.Fields(); j++ {
			offI := c.inType.FieldOffset(j)
			basis := c.bases[i][j]
			dO, dI := basis.OutDim(), basis.InDim()

			for e := 0; e < basis.Dim(); e++ {
				w := coefs[c.offsets[i][j]+e]
				if w == 0 {
					continue
				}
				el := basis.Element(e).AsFloat32()
				for o := 0; o < dO; o++ {
					for ii := 0; ii < dI; ii++ {
						dst := data[((offO+o)*inSize+offI+ii)*kk:][:kk]
						src := el[(o*dI+ii)*kk:][:kk]
						for p := range dst {
							dst[p] += w * src[p]
						}
					}
				}
			}
		}
	}
	return raw
}

// expandBias maps the invariant-subspace coordinates to a per-channel
// bias, shaped [1, outSize, 1, 1] for broadcasting.
func (c *R2Conv[B]) expandBias() *tensor.Tensor[float32, B] {
	outSize := c.outType.Size()
	raw, err := tensor.NewRaw(tensor.Shape{1, outSize, 1, 1}, tensor.Float32, c.backend.Device())
	if err != nil {
		panic(fmt.Sprintf("nn: %v", err))
	}
	data := raw.AsFloat32()
	coords := c.bias.Tensor().Data()
	for o := 0; o < outSize; o++ {
		var v float64
		for j := range coords {
			v += c.biasExp.At(o, j) * float64(coords[j])
		}
		data[o] = float32(v)
	}
	return tensor.New[float32, B](raw, c.backend)
}

// InType returns the input field type.
func (c *R2Conv[B]) InType() *FieldType { return c.inType }

// OutType returns the output field type.
func (c *R2Conv[B]) OutType() *FieldType { return c.outType }

// Parameters returns the basis coefficients and, if present, the
// invariant bias coordinates.
func (c *R2Conv[B]) Parameters() []*Parameter[B] {
	var ps []*Parameter[B]
	if c.weight != nil {
		ps = append(ps, c.weight)
	}
	if c.bias != nil {
		ps = append(ps, c.bias)
	}
	return ps
}

// Weight returns the basis-coefficient parameter, or nil for a
// degenerate layer with an empty basis.
func (c *R2Conv[B]) Weight() *Parameter[B] { return c.weight }

// Bias returns the invariant bias parameter, or nil if the output type
// has no invariant subspace.
func (c *R2Conv[B]) Bias() *Parameter[B] { return c.bias }

// BasisDim returns the total number of basis coefficients, the layer's
// trainable filter dimension. Zero signals a degenerate layer.
func (c *R2Conv[B]) BasisDim() int {
	if c.weight == nil {
		return 0
	}
	return c.weight.Tensor().NumElements()
}

// KernelSize returns the spatial filter size.
func (c *R2Conv[B]) KernelSize() int { return c.kernelSize }
