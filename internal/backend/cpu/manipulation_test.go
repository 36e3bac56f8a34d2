package cpu

import (
	"testing"

	"github.com/steer-ml/steer/internal/tensor"
)

func TestCPUBackend_Reshape(t *testing.T) {
	backend := newTestBackend()
	x := rawFrom(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	y := backend.Reshape(x, tensor.Shape{3, 2})
	if !y.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Reshape shape = %v, want [3 2]", y.Shape())
	}

	// Reshape is a view: the buffer is shared.
	y.AsFloat32()[0] = 42
	if x.AsFloat32()[0] != 42 {
		t.Error("Reshape should share the underlying buffer")
	}

	defer func() {
		if recover() == nil {
			t.Error("Reshape with a mismatched element count should panic")
		}
	}()
	backend.Reshape(x, tensor.Shape{4, 2})
}

func TestCPUBackend_Transpose(t *testing.T) {
	backend := newTestBackend()
	// [[1, 2, 3],
	//  [4, 5, 6]]
	x := rawFrom(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	y := backend.Transpose(x)
	if !y.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Transpose shape = %v, want [3 2]", y.Shape())
	}
	checkFloat32(t, y.AsFloat32(), []float32{1, 4, 2, 5, 3, 6}, "Transpose")
}

func TestCPUBackend_TransposeAxes(t *testing.T) {
	backend := newTestBackend()
	x := rawFrom(t, []float32{
		1, 2,
		3, 4,

		5, 6,
		7, 8,
	}, tensor.Shape{2, 2, 2})

	// Swap the first two dimensions, keep the last.
	y := backend.Transpose(x, 1, 0, 2)
	if !y.Shape().Equal(tensor.Shape{2, 2, 2}) {
		t.Fatalf("Transpose shape = %v, want [2 2 2]", y.Shape())
	}
	checkFloat32(t, y.AsFloat32(), []float32{1, 2, 5, 6, 3, 4, 7, 8}, "Transpose axes")

	defer func() {
		if recover() == nil {
			t.Error("Transpose with a repeated axis should panic")
		}
	}()
	backend.Transpose(x, 0, 0, 1)
}

func TestCPUBackend_Cat(t *testing.T) {
	backend := newTestBackend()
	a := rawFrom(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := rawFrom(t, []float32{5, 6}, tensor.Shape{1, 2})

	t.Run("Dim0", func(t *testing.T) {
		out := backend.Cat([]*tensor.RawTensor{a, b}, 0)
		if !out.Shape().Equal(tensor.Shape{3, 2}) {
			t.Fatalf("Cat shape = %v, want [3 2]", out.Shape())
		}
		checkFloat32(t, out.AsFloat32(), []float32{1, 2, 3, 4, 5, 6}, "Cat dim 0")
	})

	t.Run("Dim1", func(t *testing.T) {
		c := rawFrom(t, []float32{9, 8}, tensor.Shape{2, 1})
		out := backend.Cat([]*tensor.RawTensor{a, c}, 1)
		if !out.Shape().Equal(tensor.Shape{2, 3}) {
			t.Fatalf("Cat shape = %v, want [2 3]", out.Shape())
		}
		checkFloat32(t, out.AsFloat32(), []float32{1, 2, 9, 3, 4, 8}, "Cat dim 1")
	})

	t.Run("ShapeMismatch", func(t *testing.T) {
		c := rawFrom(t, []float32{1, 2, 3}, tensor.Shape{1, 3})
		defer func() {
			if recover() == nil {
				t.Error("Cat with mismatched non-cat dimensions should panic")
			}
		}()
		backend.Cat([]*tensor.RawTensor{a, c}, 0)
	})
}

func TestCPUBackend_Slice(t *testing.T) {
	backend := newTestBackend()
	x := rawFrom(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{3, 3})

	rows := backend.Slice(x, 0, 1, 2)
	if !rows.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("Slice shape = %v, want [2 3]", rows.Shape())
	}
	checkFloat32(t, rows.AsFloat32(), []float32{4, 5, 6, 7, 8, 9}, "Slice rows")

	cols := backend.Slice(x, 1, 0, 2)
	if !cols.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Slice shape = %v, want [3 2]", cols.Shape())
	}
	checkFloat32(t, cols.AsFloat32(), []float32{1, 2, 4, 5, 7, 8}, "Slice cols")

	defer func() {
		if recover() == nil {
			t.Error("Slice past the end should panic")
		}
	}()
	backend.Slice(x, 0, 2, 2)
}
