package cpu

import (
	"testing"

	"github.com/steer-ml/steer/internal/tensor"
)

// Helper to create test backend.
func newTestBackend() *CPUBackend {
	return New()
}

// Helper to build a float32 RawTensor from literal data.
func rawFrom(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw(%v): %v", shape, err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

// Helper to compare float32 slices within epsilon.
func checkFloat32(t *testing.T, got, want []float32, name string) {
	t.Helper()
	const epsilon = 1e-5
	if len(got) != len(want) {
		t.Fatalf("%s: length %d, want %d", name, len(got), len(want))
	}
	for i := range want {
		diff := got[i] - want[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > epsilon {
			t.Fatalf("%s[%d] = %v, want %v", name, i, got[i], want[i])
		}
	}
}

func TestCPUBackend_New(t *testing.T) {
	backend := New()
	if backend == nil {
		t.Fatal("New() returned nil")
	}
	if backend.Name() != "CPU" {
		t.Errorf("Expected name 'CPU', got '%s'", backend.Name())
	}
	if backend.Device() != tensor.CPU {
		t.Errorf("Expected device CPU, got %v", backend.Device())
	}
}

func TestCPUBackend_Add(t *testing.T) {
	backend := newTestBackend()

	t.Run("SameShape", func(t *testing.T) {
		a := rawFrom(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
		b := rawFrom(t, []float32{10, 11, 12, 13, 14, 15}, tensor.Shape{2, 3})

		c := backend.Add(a, b)
		checkFloat32(t, c.AsFloat32(), []float32{11, 13, 15, 17, 19, 21}, "Add")
	})

	t.Run("BroadcastRow", func(t *testing.T) {
		a := rawFrom(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
		b := rawFrom(t, []float32{10, 20, 30}, tensor.Shape{1, 3})

		c := backend.Add(a, b)
		if !c.Shape().Equal(tensor.Shape{2, 3}) {
			t.Fatalf("shape = %v, want [2 3]", c.Shape())
		}
		checkFloat32(t, c.AsFloat32(), []float32{11, 22, 33, 14, 25, 36}, "Add broadcast")
	})

	t.Run("BroadcastColumn", func(t *testing.T) {
		a := rawFrom(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
		b := rawFrom(t, []float32{100, 200}, tensor.Shape{2, 1})

		c := backend.Add(a, b)
		checkFloat32(t, c.AsFloat32(), []float32{101, 102, 103, 204, 205, 206}, "Add broadcast")
	})

	t.Run("Incompatible", func(t *testing.T) {
		a := rawFrom(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
		b := rawFrom(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
		defer func() {
			if recover() == nil {
				t.Error("Add with incompatible shapes should panic")
			}
		}()
		backend.Add(a, b)
	})
}

func TestCPUBackend_SubMulDiv(t *testing.T) {
	backend := newTestBackend()
	a := rawFrom(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})
	b := rawFrom(t, []float32{2, 4, 5, 8}, tensor.Shape{2, 2})

	checkFloat32(t, backend.Sub(a, b).AsFloat32(), []float32{8, 16, 25, 32}, "Sub")
	checkFloat32(t, backend.Mul(a, b).AsFloat32(), []float32{20, 80, 150, 320}, "Mul")
	checkFloat32(t, backend.Div(a, b).AsFloat32(), []float32{5, 5, 6, 5}, "Div")
}

func TestCPUBackend_BinaryOpPreservesOperands(t *testing.T) {
	backend := newTestBackend()
	a := rawFrom(t, []float32{1, 2}, tensor.Shape{2})
	b := rawFrom(t, []float32{3, 4}, tensor.Shape{2})

	backend.Add(a, b)
	checkFloat32(t, a.AsFloat32(), []float32{1, 2}, "operand a")
	checkFloat32(t, b.AsFloat32(), []float32{3, 4}, "operand b")
}
