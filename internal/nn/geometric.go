package nn

import (
	"fmt"
	"math"

	"github.com/steer-ml/steer/internal/group"
	"github.com/steer-ml/steer/internal/tensor"
)

// GeometricTensor couples a [batch, channels, height, width] feature
// tensor with the field type describing how its channels transform.
// Layers consume and produce geometric tensors so that field types are
// checked at every connection.
type GeometricTensor[B tensor.Backend] struct {
	t  *tensor.Tensor[float32, B]
	ft *FieldType
}

// Wrap attaches a field type to a feature tensor. The tensor must be
// 4-dimensional and its channel dimension must match the field type
// size; mismatches are data errors, returned rather than panicked.
func Wrap[B tensor.Backend](t *tensor.Tensor[float32, B], ft *FieldType) (*GeometricTensor[B], error) {
	shape := t.Shape()
	if len(shape) != 4 {
		return nil, fmt.Errorf("nn: geometric tensors are [batch, channels, height, width], got shape %v", shape)
	}
	if shape[1] != ft.Size() {
		return nil, fmt.Errorf("nn: channel dimension %d does not match field type %s of size %d",
			shape[1], ft, ft.Size())
	}
	return &GeometricTensor[B]{t: t, ft: ft}, nil
}

// MustWrap is Wrap panicking on error, for statically known shapes.
func MustWrap[B tensor.Backend](t *tensor.Tensor[float32, B], ft *FieldType) *GeometricTensor[B] {
	g, err := Wrap(t, ft)
	if err != nil {
		panic(err)
	}
	return g
}

// Unwrap returns the underlying feature tensor.
func (g *GeometricTensor[B]) Unwrap() *tensor.Tensor[float32, B] { return g.t }

// Type returns the field type.
func (g *GeometricTensor[B]) Type() *FieldType { return g.ft }

// Shape returns the tensor shape [batch, channels, height, width].
func (g *GeometricTensor[B]) Shape() tensor.Shape { return g.t.Shape() }

// TransformFibers applies the group element to the channel dimension
// alone: each field's channel block is multiplied by the field's
// representation matrix. The spatial grid is untouched.
func (g *GeometricTensor[B]) TransformFibers(e group.Element) *GeometricTensor[B] {
	shape := g.t.Shape()
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	hw := h * w

	raw, err := tensor.NewRaw(shape.Clone(), tensor.Float32, g.t.Device())
	if err != nil {
		panic(fmt.Sprintf("nn: %v", err))
	}
	src := g.t.Raw().AsFloat32()
	dst := raw.AsFloat32()

	for fi, rep := range g.ft.reps {
		m := rep.Matrix(e)
		off, d := g.ft.offsets[fi], rep.Dim()
		for b := 0; b < n; b++ {
			base := b * c * hw
			for i := 0; i < d; i++ {
				di := dst[base+(off+i)*hw:][:hw]
				for j := 0; j < d; j++ {
					v := float32(m.At(i, j))
					if v == 0 {
						continue
					}
					sj := src[base+(off+j)*hw:][:hw]
					for p := range di {
						di[p] += v * sj[p]
					}
				}
			}
		}
	}
	return &GeometricTensor[B]{t: tensor.New[float32, B](raw, g.t.Backend()), ft: g.ft}
}

// Transform applies the full induced action of the group element: the
// spatial grid is rotated (and reflected) by the element's plane action
// and each fiber is multiplied by its representation matrix.
//
// Grid resampling is exact for multiples of 90°, where the rotated grid
// lands on grid points, and bilinear with zero padding otherwise. This
// is the reference action equivariance is verified against.
func (g *GeometricTensor[B]) Transform(e group.Element) *GeometricTensor[B] {
	return g.transformGrid(e).TransformFibers(e)
}

func (g *GeometricTensor[B]) transformGrid(e group.Element) *GeometricTensor[B] {
	shape := g.t.Shape()
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	if h != w {
		panic(fmt.Sprintf("nn: grid transforms need square feature maps, got %dx%d", h, w))
	}

	// out(p) = in(A⁻¹·p) in coordinates centered on the grid with the
	// y axis pointing up, matching the kernel sampling convention.
	a := g.ft.g.PlaneAction(g.ft.g.Inverse(e))
	axx, axy := a.At(0, 0), a.At(0, 1)
	ayx, ayy := a.At(1, 0), a.At(1, 1)
	center := float64(h-1) / 2

	raw, err := tensor.NewRaw(shape.Clone(), tensor.Float32, g.t.Device())
	if err != nil {
		panic(fmt.Sprintf("nn: %v", err))
	}
	src := g.t.Raw().AsFloat32()
	dst := raw.AsFloat32()
	hw := h * w

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := float64(x) - center
			py := center - float64(y)
			sx := center + axx*px + axy*py
			sy := center - (ayx*px + ayy*py)

			x0, y0 := math.Floor(sx), math.Floor(sy)
			fx, fy := sx-x0, sy-y0
			if fx < 1e-9 {
				fx = 0
			} else if fx > 1-1e-9 {
				x0, fx = x0+1, 0
			}
			if fy < 1e-9 {
				fy = 0
			} else if fy > 1-1e-9 {
				y0, fy = y0+1, 0
			}

			for b := 0; b < n; b++ {
				for ch := 0; ch < c; ch++ {
					plane := src[(b*c+ch)*hw:][:hw]
					v := (1 - fx) * ((1-fy)*sample(plane, h, w, int(y0), int(x0)) +
						fy*sample(plane, h, w, int(y0)+1, int(x0)))
					if fx > 0 {
						v += fx * ((1-fy)*sample(plane, h, w, int(y0), int(x0)+1) +
							fy*sample(plane, h, w, int(y0)+1, int(x0)+1))
					}
					dst[(b*c+ch)*hw+y*w+x] = float32(v)
				}
			}
		}
	}
	return &GeometricTensor[B]{t: tensor.New[float32, B](raw, g.t.Backend()), ft: g.ft}
}

// sample reads a pixel with zero padding outside the grid.
func sample(plane []float32, h, w, y, x int) float64 {
	if y < 0 || y >= h || x < 0 || x >= w {
		return 0
	}
	return float64(plane[y*w+x])
}
