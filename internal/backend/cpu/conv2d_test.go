package cpu

import (
	"testing"

	"github.com/steer-ml/steer/internal/tensor"
)

func TestCPUBackend_Conv2D(t *testing.T) {
	backend := newTestBackend()

	// 3x3 input, 2x2 kernel picking up the main diagonal of each patch.
	input := rawFrom(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{1, 1, 3, 3})
	kernel := rawFrom(t, []float32{
		1, 0,
		0, 1,
	}, tensor.Shape{1, 1, 2, 2})

	out := backend.Conv2D(input, kernel, 1, 0)
	if !out.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Conv2D shape = %v, want [1 1 2 2]", out.Shape())
	}
	// Cross-correlation, no kernel flip: out[i][j] = in[i][j] + in[i+1][j+1].
	checkFloat32(t, out.AsFloat32(), []float32{6, 8, 12, 14}, "Conv2D")
}

func TestCPUBackend_Conv2DPadding(t *testing.T) {
	backend := newTestBackend()

	input := rawFrom(t, []float32{
		1, 2,
		3, 4,
	}, tensor.Shape{1, 1, 2, 2})
	ones := rawFrom(t, []float32{
		1, 1, 1,
		1, 1, 1,
		1, 1, 1,
	}, tensor.Shape{1, 1, 3, 3})

	out := backend.Conv2D(input, ones, 1, 1)
	if !out.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Conv2D shape = %v, want [1 1 2 2]", out.Shape())
	}
	// With zero padding every output is the sum of the in-bounds
	// neighborhood, which here is the whole image.
	checkFloat32(t, out.AsFloat32(), []float32{10, 10, 10, 10}, "Conv2D padded")
}

func TestCPUBackend_Conv2DStride(t *testing.T) {
	backend := newTestBackend()

	input := rawFrom(t, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, tensor.Shape{1, 1, 4, 4})
	kernel := rawFrom(t, []float32{1}, tensor.Shape{1, 1, 1, 1})

	out := backend.Conv2D(input, kernel, 2, 0)
	if !out.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Conv2D shape = %v, want [1 1 2 2]", out.Shape())
	}
	checkFloat32(t, out.AsFloat32(), []float32{1, 3, 9, 11}, "Conv2D stride")
}

func TestCPUBackend_Conv2DMultiChannel(t *testing.T) {
	backend := newTestBackend()

	// Two input channels, two output channels. Each output channel sums
	// one input channel through a 1x1 kernel.
	input := rawFrom(t, []float32{
		1, 2, 3, 4, // channel 0
		10, 20, 30, 40, // channel 1
	}, tensor.Shape{1, 2, 2, 2})
	kernel := rawFrom(t, []float32{
		1, 0, // out 0 takes channel 0
		0, 1, // out 1 takes channel 1
	}, tensor.Shape{2, 2, 1, 1})

	out := backend.Conv2D(input, kernel, 1, 0)
	checkFloat32(t, out.AsFloat32(), []float32{1, 2, 3, 4, 10, 20, 30, 40}, "Conv2D channels")
}

func TestCPUBackend_Conv2DChannelMismatch(t *testing.T) {
	backend := newTestBackend()
	input := rawFrom(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	kernel := rawFrom(t, []float32{1, 1}, tensor.Shape{1, 2, 1, 1})

	defer func() {
		if recover() == nil {
			t.Error("Conv2D with mismatched channels should panic")
		}
	}()
	backend.Conv2D(input, kernel, 1, 0)
}

func TestCPUBackend_DepthwiseConv2D(t *testing.T) {
	backend := newTestBackend()

	// Each channel convolved with its own 1x1 kernel: plain scaling.
	input := rawFrom(t, []float32{
		1, 2, 3, 4,
		10, 20, 30, 40,
	}, tensor.Shape{1, 2, 2, 2})
	kernel := rawFrom(t, []float32{2, 3}, tensor.Shape{2, 1, 1, 1})

	out := backend.DepthwiseConv2D(input, kernel, 1, 0)
	if !out.Shape().Equal(tensor.Shape{1, 2, 2, 2}) {
		t.Fatalf("DepthwiseConv2D shape = %v, want [1 2 2 2]", out.Shape())
	}
	checkFloat32(t, out.AsFloat32(), []float32{2, 4, 6, 8, 30, 60, 90, 120}, "DepthwiseConv2D")
}

func TestCPUBackend_DepthwiseConv2DBlur(t *testing.T) {
	backend := newTestBackend()

	// 3x3 averaging filter on a constant image leaves it unchanged where
	// the support is fully inside.
	input := rawFrom(t, []float32{
		5, 5, 5,
		5, 5, 5,
		5, 5, 5,
	}, tensor.Shape{1, 1, 3, 3})
	ninth := float32(1.0 / 9.0)
	kernel := rawFrom(t, []float32{
		ninth, ninth, ninth,
		ninth, ninth, ninth,
		ninth, ninth, ninth,
	}, tensor.Shape{1, 1, 3, 3})

	out := backend.DepthwiseConv2D(input, kernel, 1, 0)
	checkFloat32(t, out.AsFloat32(), []float32{5}, "DepthwiseConv2D blur")
}
