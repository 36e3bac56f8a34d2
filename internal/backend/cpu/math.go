package cpu

import (
	"fmt"
	"math"

	"github.com/steer-ml/steer/internal/parallel"
	"github.com/steer-ml/steer/internal/tensor"
)

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unaryOp("mulscalar", x, func(v float64) float64 { return v * scalar })
}

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unaryOp("addscalar", x, func(v float64) float64 { return v + scalar })
}

// Exp applies the element-wise exponential.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("exp", x, math.Exp)
}

// Sqrt applies the element-wise square root.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("sqrt", x, math.Sqrt)
}

// ReLU applies the element-wise rectifier max(0, x).
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("relu", x, func(v float64) float64 {
		if v < 0 {
			return 0
		}
		return v
	})
}

// unaryOp applies f element-wise.
func (cpu *CPUBackend) unaryOp(op string, x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	out := cpu.newRaw(op, x.Shape(), x.DType())

	switch x.DType() {
	case tensor.Float32:
		xd, od := x.AsFloat32(), out.AsFloat32()
		parallel.For(len(od), func(i int) {
			od[i] = float32(f(float64(xd[i])))
		}, cpu.par)
	case tensor.Float64:
		xd, od := x.AsFloat64(), out.AsFloat64()
		parallel.For(len(od), func(i int) {
			od[i] = f(xd[i])
		}, cpu.par)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, x.DType()))
	}
	return out
}
