// Package cpu implements the pure-Go CPU backend for the Steer framework.
package cpu

import (
	"fmt"

	"github.com/steer-ml/steer/internal/parallel"
	"github.com/steer-ml/steer/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
// Heavy loops are chunked across cores via the parallel package.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    parallel.DefaultConfig(),
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Compile-time check that CPUBackend implements the Backend interface.
var _ tensor.Backend = (*CPUBackend)(nil)

// newRaw allocates an output tensor or panics; backend ops treat
// allocation failure as a programmer error (invalid shape).
func (cpu *CPUBackend) newRaw(op string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return out
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with NumPy-style broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with NumPy-style broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with NumPy-style broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("div", a, b, func(x, y float64) float64 { return x / y })
}

// binaryOp applies f element-wise, broadcasting the operands if needed.
func (cpu *CPUBackend) binaryOp(op string, a, b *tensor.RawTensor, f func(x, y float64) float64) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op, a.DType(), b.DType()))
	}
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}

	out := cpu.newRaw(op, outShape, a.DType())

	if !needsBroadcast {
		switch a.DType() {
		case tensor.Float32:
			ad, bd, od := a.AsFloat32(), b.AsFloat32(), out.AsFloat32()
			parallel.For(len(od), func(i int) {
				od[i] = float32(f(float64(ad[i]), float64(bd[i])))
			}, cpu.par)
		case tensor.Float64:
			ad, bd, od := a.AsFloat64(), b.AsFloat64(), out.AsFloat64()
			parallel.For(len(od), func(i int) {
				od[i] = f(ad[i], bd[i])
			}, cpu.par)
		default:
			panic(fmt.Sprintf("%s: unsupported dtype %s", op, a.DType()))
		}
		return out
	}

	// Slow path: broadcasting. Map each output index back to the operand
	// indices, treating size-1 dimensions as stride 0.
	aIdx := broadcastStrides(a.Shape(), outShape)
	bIdx := broadcastStrides(b.Shape(), outShape)
	outStrides := outShape.ComputeStrides()

	switch a.DType() {
	case tensor.Float32:
		ad, bd, od := a.AsFloat32(), b.AsFloat32(), out.AsFloat32()
		parallel.For(len(od), func(i int) {
			ia, ib := broadcastOffsets(i, outStrides, aIdx, bIdx)
			od[i] = float32(f(float64(ad[ia]), float64(bd[ib])))
		}, cpu.par)
	case tensor.Float64:
		ad, bd, od := a.AsFloat64(), b.AsFloat64(), out.AsFloat64()
		parallel.For(len(od), func(i int) {
			ia, ib := broadcastOffsets(i, outStrides, aIdx, bIdx)
			od[i] = f(ad[ia], bd[ib])
		}, cpu.par)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, a.DType()))
	}
	return out
}

// broadcastStrides returns per-output-dimension strides into a tensor of
// shape `in` broadcast up to shape `out` (0 where `in` has size 1).
func broadcastStrides(in, out tensor.Shape) []int {
	inStrides := in.ComputeStrides()
	strides := make([]int, len(out))
	offset := len(out) - len(in)
	for i := range out {
		j := i - offset
		if j < 0 || in[j] == 1 {
			strides[i] = 0
		} else {
			strides[i] = inStrides[j]
		}
	}
	return strides
}

// broadcastOffsets converts a flat output index into flat operand offsets.
func broadcastOffsets(flat int, outStrides, aStrides, bStrides []int) (int, int) {
	ia, ib := 0, 0
	for d := 0; d < len(outStrides); d++ {
		idx := flat / outStrides[d]
		flat -= idx * outStrides[d]
		ia += idx * aStrides[d]
		ib += idx * bStrides[d]
	}
	return ia, ib
}
