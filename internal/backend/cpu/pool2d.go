package cpu

import (
	"fmt"

	"github.com/steer-ml/steer/internal/parallel"
	"github.com/steer-ml/steer/internal/tensor"
)

// MaxPool2D performs 2D max pooling over non-overlapping or strided windows.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_h, out_w]
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	return cpu.pool2d("maxpool2d", input, kernelSize, stride, false)
}

// AvgPool2D performs 2D average pooling over non-overlapping or strided windows.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_h, out_w]
func (cpu *CPUBackend) AvgPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	return cpu.pool2d("avgpool2d", input, kernelSize, stride, true)
}

func (cpu *CPUBackend) pool2d(op string, input *tensor.RawTensor, kernelSize, stride int, average bool) *tensor.RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("%s: input must be 4D [N,C,H,W], got %dD", op, len(inputShape)))
	}
	if kernelSize <= 0 || stride <= 0 {
		panic(fmt.Sprintf("%s: invalid kernel size %d or stride %d", op, kernelSize, stride))
	}

	n, c, h, w := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	hOut := (h-kernelSize)/stride + 1
	wOut := (w-kernelSize)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("%s: invalid output dimensions: out_h=%d, out_w=%d", op, hOut, wOut))
	}

	out := cpu.newRaw(op, tensor.Shape{n, c, hOut, wOut}, input.DType())

	switch input.DType() {
	case tensor.Float32:
		pool2dImpl(cpu, out.AsFloat32(), input.AsFloat32(), n, c, h, w, kernelSize, stride, hOut, wOut, average)
	case tensor.Float64:
		pool2dImpl(cpu, out.AsFloat64(), input.AsFloat64(), n, c, h, w, kernelSize, stride, hOut, wOut, average)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, input.DType()))
	}
	return out
}

func pool2dImpl[T floats](cpu *CPUBackend, outputData, inputData []T,
	n, c, h, w, kernelSize, stride, hOut, wOut int, average bool,
) {
	window := T(kernelSize * kernelSize)
	parallel.ForBatch(n, c, func(b, ch int) {
		in := inputData[(b*c+ch)*h*w:]
		out := outputData[(b*c+ch)*hOut*wOut:]

		for oy := 0; oy < hOut; oy++ {
			for ox := 0; ox < wOut; ox++ {
				hStart := oy * stride
				wStart := ox * stride

				if average {
					sum := T(0)
					for i := 0; i < kernelSize; i++ {
						for j := 0; j < kernelSize; j++ {
							sum += in[(hStart+i)*w+wStart+j]
						}
					}
					out[oy*wOut+ox] = sum / window
				} else {
					best := in[hStart*w+wStart]
					for i := 0; i < kernelSize; i++ {
						for j := 0; j < kernelSize; j++ {
							if v := in[(hStart+i)*w+wStart+j]; v > best {
								best = v
							}
						}
					}
					out[oy*wOut+ox] = best
				}
			}
		}
	}, cpu.par)
}
