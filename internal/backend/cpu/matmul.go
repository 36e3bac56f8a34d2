package cpu

import (
	"fmt"

	"github.com/steer-ml/steer/internal/parallel"
	"github.com/steer-ml/steer/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) → (M, N).
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %dD and %dD", len(aShape), len(bShape)))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions mismatch %v @ %v", aShape, bShape))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]
	out := cpu.newRaw("matmul", tensor.Shape{m, n}, a.DType())

	switch a.DType() {
	case tensor.Float32:
		ad, bd, od := a.AsFloat32(), b.AsFloat32(), out.AsFloat32()
		parallel.For(m, func(i int) {
			for j := 0; j < n; j++ {
				sum := float32(0)
				for p := 0; p < k; p++ {
					sum += ad[i*k+p] * bd[p*n+j]
				}
				od[i*n+j] = sum
			}
		}, cpu.par)
	case tensor.Float64:
		ad, bd, od := a.AsFloat64(), b.AsFloat64(), out.AsFloat64()
		parallel.For(m, func(i int) {
			for j := 0; j < n; j++ {
				sum := float64(0)
				for p := 0; p < k; p++ {
					sum += ad[i*k+p] * bd[p*n+j]
				}
				od[i*n+j] = sum
			}
		}, cpu.par)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}
	return out
}
