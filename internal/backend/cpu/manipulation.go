package cpu

import (
	"fmt"

	"github.com/steer-ml/steer/internal/tensor"
)

// Reshape returns a tensor with the same data and a new shape.
// The buffer is shared; the element count must be unchanged.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			t.Shape(), t.NumElements(), newShape, newShape.NumElements()))
	}
	return t.WithShape(newShape)
}

// Transpose permutes the tensor's dimensions. If axes is empty, the
// dimension order is reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: expected %d axes, got %d", ndim, len(axes)))
	}

	seen := make([]bool, ndim)
	outShape := make(tensor.Shape, ndim)
	for i, a := range axes {
		if a < 0 || a >= ndim || seen[a] {
			panic(fmt.Sprintf("transpose: invalid axes %v for %dD tensor", axes, ndim))
		}
		seen[a] = true
		outShape[i] = shape[a]
	}

	out := cpu.newRaw("transpose", outShape, t.DType())

	inStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()
	elemSize := t.DType().Size()
	src, dst := t.Data(), out.Data()

	n := t.NumElements()
	for i := 0; i < n; i++ {
		// Decompose the output index and map it back to the source.
		rem, srcOff := i, 0
		for d := 0; d < ndim; d++ {
			idx := rem / outStrides[d]
			rem -= idx * outStrides[d]
			srcOff += idx * inStrides[axes[d]]
		}
		copy(dst[i*elemSize:(i+1)*elemSize], src[srcOff*elemSize:(srcOff+1)*elemSize])
	}
	return out
}

// Cat concatenates tensors along a dimension. All tensors must agree on
// every other dimension and on dtype.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: no tensors to concatenate")
	}

	first := tensors[0]
	shape := first.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("cat: dimension %d out of range for shape %v", dim, shape))
	}

	total := 0
	for _, t := range tensors {
		s := t.Shape()
		if len(s) != len(shape) || t.DType() != first.DType() {
			panic(fmt.Sprintf("cat: incompatible tensor %v (%s) with %v (%s)", s, t.DType(), shape, first.DType()))
		}
		for i := range s {
			if i != dim && s[i] != shape[i] {
				panic(fmt.Sprintf("cat: shape mismatch at dimension %d: %v vs %v", i, s, shape))
			}
		}
		total += s[dim]
	}

	outShape := shape.Clone()
	outShape[dim] = total
	out := cpu.newRaw("cat", outShape, first.DType())

	outer, _, inner := splitAt(shape, dim)
	elemSize := first.DType().Size()
	rowBytes := inner * elemSize
	dst := out.Data()

	for o := 0; o < outer; o++ {
		dstOff := o * total * rowBytes
		for _, t := range tensors {
			size := t.Shape()[dim]
			src := t.Data()[o*size*rowBytes : (o+1)*size*rowBytes]
			copy(dst[dstOff:dstOff+size*rowBytes], src)
			dstOff += size * rowBytes
		}
	}
	return out
}

// Slice extracts the contiguous range [start, start+length) along a dimension.
func (cpu *CPUBackend) Slice(x *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("slice: dimension %d out of range for shape %v", dim, shape))
	}
	if start < 0 || length <= 0 || start+length > shape[dim] {
		panic(fmt.Sprintf("slice: range [%d, %d) out of bounds for dimension of size %d", start, start+length, shape[dim]))
	}

	outShape := shape.Clone()
	outShape[dim] = length
	out := cpu.newRaw("slice", outShape, x.DType())

	outer, size, inner := splitAt(shape, dim)
	elemSize := x.DType().Size()
	rowBytes := inner * elemSize
	src, dst := x.Data(), out.Data()

	for o := 0; o < outer; o++ {
		srcOff := (o*size + start) * rowBytes
		dstOff := o * length * rowBytes
		copy(dst[dstOff:dstOff+length*rowBytes], src[srcOff:srcOff+length*rowBytes])
	}
	return out
}
