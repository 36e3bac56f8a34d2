package cpu

import (
	"fmt"

	"github.com/steer-ml/steer/internal/parallel"
	"github.com/steer-ml/steer/internal/tensor"
)

// floats constrains the dtypes convolution is implemented for.
type floats interface {
	~float32 | ~float64
}

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape:  [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels, kernel_h, kernel_w]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Algorithm:
//  1. Transform input patches into rows of a column buffer (im2col)
//  2. Multiply the flattened kernel matrix against the buffer
//  3. Rearrange into [N, C_out, H_out, W_out]
//
// Im2col converts convolution into a cache-friendly matrix product.
// Reference: "High Performance Convolutional Neural Networks for Document
// Processing" (Chellapilla et al., 2006).
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernelShape)))
	}

	n, cIn, h, w := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	cOut, kh, kw := kernelShape[0], kernelShape[2], kernelShape[3]

	if cIn != kernelShape[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", cIn, kernelShape[1]))
	}

	hOut := (h+2*padding-kh)/stride + 1
	wOut := (w+2*padding-kw)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", hOut, wOut))
	}

	out := cpu.newRaw("conv2d", tensor.Shape{n, cOut, hOut, wOut}, input.DType())

	switch input.DType() {
	case tensor.Float32:
		conv2dImpl(cpu, out.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(),
			n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding)
	case tensor.Float64:
		conv2dImpl(cpu, out.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(),
			n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}
	return out
}

func conv2dImpl[T floats](cpu *CPUBackend, outputData, inputData, kernelData []T,
	n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding int,
) {
	colWidth := cIn * kh * kw
	colHeight := n * hOut * wOut
	colBuf := make([]T, colHeight*colWidth)

	im2col(cpu, colBuf, inputData, n, cIn, h, w, kh, kw, hOut, wOut, stride, padding)

	// kernelData is already laid out as [C_out, C_in*K_h*K_w] in row-major
	// order; compute out[c, pos] = kernel[c, :] · colBuf[pos, :] directly
	// into the [N, C_out, H_out, W_out] layout.
	spatial := hOut * wOut
	parallel.ForBatch(n, cOut, func(b, c int) {
		for p := 0; p < spatial; p++ {
			row := (b*spatial + p) * colWidth
			krow := c * colWidth
			sum := T(0)
			for k := 0; k < colWidth; k++ {
				sum += kernelData[krow+k] * colBuf[row+k]
			}
			outputData[b*cOut*spatial+c*spatial+p] = sum
		}
	}, cpu.par)
}

// im2col transforms the input tensor into a column matrix:
// [N, C, H, W] → [N * H_out * W_out, C * K_h * K_w].
// Each row corresponds to one output position; out-of-bounds positions
// read as zero (padding).
func im2col[T floats](cpu *CPUBackend, colBuf, inputData []T,
	n, c, h, w, kh, kw, hOut, wOut, stride, padding int,
) {
	colWidth := c * kh * kw
	spatial := hOut * wOut

	parallel.For(n*spatial, func(colIdx int) {
		b := colIdx / spatial
		p := colIdx % spatial
		hStart := (p/wOut)*stride - padding
		wStart := (p%wOut)*stride - padding

		bufIdx := colIdx * colWidth
		for ch := 0; ch < c; ch++ {
			for i := 0; i < kh; i++ {
				for j := 0; j < kw; j++ {
					y := hStart + i
					x := wStart + j
					if y >= 0 && y < h && x >= 0 && x < w {
						colBuf[bufIdx] = inputData[b*c*h*w+ch*h*w+y*w+x]
					} else {
						colBuf[bufIdx] = 0
					}
					bufIdx++
				}
			}
		}
	}, cpu.par)
}

// DepthwiseConv2D convolves each channel with its own single-channel
// kernel (no cross-channel mixing).
//
// Input shape:  [batch, channels, height, width]
// Kernel shape: [channels, 1, kernel_h, kernel_w]
// Output shape: [batch, channels, out_h, out_w]
//
// Used for anti-aliasing blurs, where the same isotropic filter is applied
// to every channel independently.
func (cpu *CPUBackend) DepthwiseConv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("depthwiseconv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 || kernelShape[1] != 1 {
		panic(fmt.Sprintf("depthwiseconv2d: kernel must be [C,1,K_h,K_w], got %v", kernelShape))
	}
	if inputShape[1] != kernelShape[0] {
		panic(fmt.Sprintf("depthwiseconv2d: input channels %d != kernel channels %d", inputShape[1], kernelShape[0]))
	}

	n, c, h, w := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	kh, kw := kernelShape[2], kernelShape[3]

	hOut := (h+2*padding-kh)/stride + 1
	wOut := (w+2*padding-kw)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("depthwiseconv2d: invalid output dimensions: out_h=%d, out_w=%d", hOut, wOut))
	}

	out := cpu.newRaw("depthwiseconv2d", tensor.Shape{n, c, hOut, wOut}, input.DType())

	switch input.DType() {
	case tensor.Float32:
		depthwiseImpl(cpu, out.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(),
			n, c, h, w, kh, kw, hOut, wOut, stride, padding)
	case tensor.Float64:
		depthwiseImpl(cpu, out.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(),
			n, c, h, w, kh, kw, hOut, wOut, stride, padding)
	default:
		panic(fmt.Sprintf("depthwiseconv2d: unsupported dtype %s", input.DType()))
	}
	return out
}

func depthwiseImpl[T floats](cpu *CPUBackend, outputData, inputData, kernelData []T,
	n, c, h, w, kh, kw, hOut, wOut, stride, padding int,
) {
	parallel.ForBatch(n, c, func(b, ch int) {
		in := inputData[(b*c+ch)*h*w:]
		ker := kernelData[ch*kh*kw:]
		out := outputData[(b*c+ch)*hOut*wOut:]

		for oy := 0; oy < hOut; oy++ {
			for ox := 0; ox < wOut; ox++ {
				hStart := oy*stride - padding
				wStart := ox*stride - padding
				sum := T(0)
				for i := 0; i < kh; i++ {
					y := hStart + i
					if y < 0 || y >= h {
						continue
					}
					for j := 0; j < kw; j++ {
						x := wStart + j
						if x < 0 || x >= w {
							continue
						}
						sum += ker[i*kw+j] * in[y*w+x]
					}
				}
				out[oy*wOut+ox] = sum
			}
		}
	}, cpu.par)
}
