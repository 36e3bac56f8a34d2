package cpu

import (
	"fmt"

	"github.com/steer-ml/steer/internal/parallel"
	"github.com/steer-ml/steer/internal/tensor"
)

// Sum reduces the tensor to a single-element tensor holding the total sum.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	out := cpu.newRaw("sum", tensor.Shape{1}, x.DType())

	switch x.DType() {
	case tensor.Float32:
		xd := x.AsFloat32()
		sum := float32(0)
		for _, v := range xd {
			sum += v
		}
		out.AsFloat32()[0] = sum
	case tensor.Float64:
		xd := x.AsFloat64()
		sum := float64(0)
		for _, v := range xd {
			sum += v
		}
		out.AsFloat64()[0] = sum
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}
	return out
}

// SumDim sums along a dimension.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("sumdim", x, dim, keepDim, reduceSum)
}

// MeanDim averages along a dimension.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("meandim", x, dim, keepDim, reduceMean)
}

// MaxDim takes the maximum along a dimension.
func (cpu *CPUBackend) MaxDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("maxdim", x, dim, keepDim, reduceMax)
}

type reduceKind int

const (
	reduceSum reduceKind = iota
	reduceMean
	reduceMax
)

func (cpu *CPUBackend) reduceDim(op string, x *tensor.RawTensor, dim int, keepDim bool, kind reduceKind) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("%s: dimension %d out of range for shape %v", op, dim, shape))
	}

	outShape := reducedShape(shape, dim, keepDim)
	out := cpu.newRaw(op, outShape, x.DType())

	outer, size, inner := splitAt(shape, dim)

	switch x.DType() {
	case tensor.Float32:
		reduceDimImpl(cpu, out.AsFloat32(), x.AsFloat32(), outer, size, inner, kind)
	case tensor.Float64:
		reduceDimImpl(cpu, out.AsFloat64(), x.AsFloat64(), outer, size, inner, kind)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, x.DType()))
	}
	return out
}

func reduceDimImpl[T floats](cpu *CPUBackend, outputData, inputData []T, outer, size, inner int, kind reduceKind) {
	parallel.For(outer*inner, func(k int) {
		o, i := k/inner, k%inner
		base := o*size*inner + i

		acc := inputData[base]
		for j := 1; j < size; j++ {
			v := inputData[base+j*inner]
			if kind == reduceMax {
				if v > acc {
					acc = v
				}
			} else {
				acc += v
			}
		}
		if kind == reduceMean {
			acc /= T(size)
		}
		outputData[o*inner+i] = acc
	}, cpu.par)
}

// Argmax returns the index of the maximum value along a dimension as an
// Int64 tensor (the dimension is removed).
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("argmax: dimension %d out of range for shape %v", dim, shape))
	}

	out := cpu.newRaw("argmax", reducedShape(shape, dim, false), tensor.Int64)
	outer, size, inner := splitAt(shape, dim)
	od := out.AsInt64()

	argmaxImpl := func(get func(int) float64) {
		parallel.For(outer*inner, func(k int) {
			o, i := k/inner, k%inner
			base := o*size*inner + i

			bestIdx := 0
			best := get(base)
			for j := 1; j < size; j++ {
				if v := get(base + j*inner); v > best {
					best = v
					bestIdx = j
				}
			}
			od[o*inner+i] = int64(bestIdx)
		}, cpu.par)
	}

	switch x.DType() {
	case tensor.Float32:
		xd := x.AsFloat32()
		argmaxImpl(func(i int) float64 { return float64(xd[i]) })
	case tensor.Float64:
		xd := x.AsFloat64()
		argmaxImpl(func(i int) float64 { return xd[i] })
	default:
		panic(fmt.Sprintf("argmax: unsupported dtype %s", x.DType()))
	}
	return out
}

// reducedShape removes (or keeps as size 1) the reduced dimension.
func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	out := tensor.Shape{}
	for i, d := range shape {
		switch {
		case i != dim:
			out = append(out, d)
		case keepDim:
			out = append(out, 1)
		}
	}
	if len(out) == 0 {
		out = tensor.Shape{1}
	}
	return out
}

// splitAt factors a shape into (outer, size, inner) around a dimension.
func splitAt(shape tensor.Shape, dim int) (int, int, int) {
	outer, inner := 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, shape[dim], inner
}
