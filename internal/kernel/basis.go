// Package kernel solves for bases of steerable convolution kernels.
//
// A kernel κ: ℝ² → ℝ^(dOut×dIn) between two representation spaces is
// steerable when κ(g·x) = ρOut(g)·κ(x)·ρIn(g)ᵀ for every group element g.
// The space of such kernels is linear; this package computes an
// orthonormal-per-element basis of it, sampled on a square pixel grid,
// which convolution layers combine with learnable coefficients.
//
// Solves are deterministic and moderately expensive, so results are
// memoized in a process-wide Cache keyed by group, representation pair
// and support geometry.
package kernel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/steer-ml/steer/internal/group"
	"github.com/steer-ml/steer/internal/tensor"
)

// normEps is the threshold below which a sampled basis element is
// considered numerically zero and pruned. Elements vanish when the
// sampling grid cannot resolve their angular frequency.
const normEps = 1e-8

// Support describes the sampling geometry of a kernel basis: the square
// grid it is sampled on and the polar decomposition used to build it.
type Support struct {
	// Size is the side length of the square sampling grid. Must be odd
	// so the grid has a center pixel.
	Size int
	// Rings is the number of radial Gaussian rings, placed at integer
	// radii 0..Rings-1.
	Rings int
	// MaxFreq caps the angular frequency of basis elements.
	MaxFreq int
	// Sigma is the radial width of each Gaussian ring.
	Sigma float64
}

// DefaultSupport returns the standard support for a kernel of the given
// size: rings out to the grid edge, the group's maximum discriminable
// frequency, and a ring width of 0.6 pixels.
func DefaultSupport(size, maxFreq int) Support {
	return Support{
		Size:    size,
		Rings:   size/2 + 1,
		MaxFreq: maxFreq,
		Sigma:   0.6,
	}
}

func (s Support) validate() error {
	switch {
	case s.Size < 1 || s.Size%2 == 0:
		return fmt.Errorf("kernel: support size must be odd and positive, got %d", s.Size)
	case s.Rings < 1:
		return fmt.Errorf("kernel: support needs at least one radial ring, got %d", s.Rings)
	case s.MaxFreq < 0:
		return fmt.Errorf("kernel: negative frequency cap %d", s.MaxFreq)
	case s.Sigma <= 0:
		return fmt.Errorf("kernel: ring width must be positive, got %g", s.Sigma)
	}
	return nil
}

// String returns a compact description used in cache keys and logs.
func (s Support) String() string {
	return fmt.Sprintf("%dx%d:r%d:f%d:s%g", s.Size, s.Size, s.Rings, s.MaxFreq, s.Sigma)
}

// ringFreqLimit caps the angular frequency sampled on ring j: the origin
// carries no angular information, and a ring of radius j aliases
// frequencies beyond 2j.
func ringFreqLimit(j, maxFreq int) int {
	if j == 0 {
		return 0
	}
	if 2*j < maxFreq {
		return 2 * j
	}
	return maxFreq
}

// Basis is a sampled steerable kernel basis. Each element is a
// [outDim, inDim, size, size] Float32 tensor with unit L2 norm; a
// steerable filter is any linear combination of elements.
//
// A Basis is immutable after construction and safe for concurrent use.
type Basis struct {
	in, out  *group.Representation
	support  Support
	elements []*tensor.RawTensor
}

// Dim returns the number of basis elements.
func (b *Basis) Dim() int { return len(b.elements) }

// Element returns the i-th basis element. The returned tensor is shared;
// callers must not modify it.
func (b *Basis) Element(i int) *tensor.RawTensor { return b.elements[i] }

// Elements returns all basis elements. The slice and tensors are shared;
// callers must not modify them.
func (b *Basis) Elements() []*tensor.RawTensor { return b.elements }

// InDim returns the input representation dimension.
func (b *Basis) InDim() int { return b.in.Dim() }

// OutDim returns the output representation dimension.
func (b *Basis) OutDim() int { return b.out.Dim() }

// Size returns the spatial side length of each element.
func (b *Basis) Size() int { return b.support.Size }

// Solve computes the steerable kernel basis between two representations
// of the same group, sampled on the given support.
//
// The solve runs irrep pair by irrep pair: the steerability constraint
// decouples under the change of basis of each representation, and within
// a pair it decouples further by angular frequency. Each angular solution
// is sampled once per radial ring that can carry its frequency,
// conjugated back through the change-of-basis matrices, L2-normalized
// and pruned if numerically zero.
//
// An empty basis is not an error; it means the pair of representations
// admits no equivariant map on this support (a warning is logged, since
// a layer built on an empty basis cannot learn).
func Solve(in, out *group.Representation, sup Support) (*Basis, error) {
	if in == nil || out == nil {
		return nil, fmt.Errorf("kernel: nil representation")
	}
	if in.Group().Name() != out.Group().Name() {
		return nil, fmt.Errorf("kernel: representations belong to different groups %s and %s",
			in.Group().Name(), out.Group().Name())
	}
	if err := sup.validate(); err != nil {
		return nil, err
	}

	g := in.Group()
	qIn := in.ChangeOfBasis()
	qOut := out.ChangeOfBasis()

	b := &Basis{in: in, out: out, support: sup}

	// Angular solutions depend only on the irrep pair; memoize across
	// repeated blocks (regular and composite representations repeat
	// irreps with multiplicity).
	memo := make(map[string][]angularSolution)

	oOut := 0
	for _, outName := range out.Irreps() {
		psiOut, err := g.Irrep(outName)
		if err != nil {
			return nil, err
		}
		oIn := 0
		for _, inName := range in.Irreps() {
			psiIn, err := g.Irrep(inName)
			if err != nil {
				return nil, err
			}

			key := inName + "→" + outName
			sols, ok := memo[key]
			if !ok {
				sols = solveAngular(g, psiIn, psiOut, sup.MaxFreq)
				memo[key] = sols
			}

			for _, sol := range sols {
				for ring := 0; ring < sup.Rings; ring++ {
					if sol.freq > ringFreqLimit(ring, sup.MaxFreq) {
						continue
					}
					if el := sampleElement(sol, ring, sup, qOut, qIn, oOut, oIn); el != nil {
						b.elements = append(b.elements, el)
					}
				}
			}
			oIn += psiIn.Dim()
		}
		oOut += psiOut.Dim()
	}

	if len(b.elements) == 0 {
		Logger.Printf("empty kernel basis: %s → %s on %s (no equivariant map exists on this support)",
			in, out, sup)
	}
	return b, nil
}

// sampleElement samples one angular solution on one radial ring over the
// full kernel grid, conjugating the irrep-block coefficients back into
// the representations' own bases. Returns nil if the sampled element is
// numerically zero.
func sampleElement(sol angularSolution, ring int, sup Support, qOut, qIn *mat.Dense, oOut, oIn int) *tensor.RawTensor {
	outDim, _ := qOut.Dims()
	inDim, _ := qIn.Dims()
	dO, dI := sol.c.Dims()
	size := sup.Size
	center := float64(size-1) / 2

	raw, err := tensor.NewRaw(tensor.Shape{outDim, inDim, size, size}, tensor.Float32, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("kernel: %v", err))
	}
	data := raw.AsFloat32()

	block := make([]float64, dO*dI)
	var sumSq float64
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			// Pixel coordinates with the y axis pointing up, so angles
			// increase counterclockwise in image terms. The spatial
			// action on feature maps uses the same convention.
			px := float64(x) - center
			py := center - float64(y)
			r := math.Hypot(px, py)
			theta := math.Atan2(py, px)

			d := r - float64(ring)
			radial := math.Exp(-d * d / (2 * sup.Sigma * sup.Sigma))
			// The origin has no angle, so only frequency-zero content
			// may appear there; the ring tails must not leak any.
			if sol.freq > 0 && r == 0 {
				radial = 0
			}

			ct, st := math.Cos(float64(sol.freq)*theta), math.Sin(float64(sol.freq)*theta)
			for u := 0; u < dO; u++ {
				for v := 0; v < dI; v++ {
					w := sol.c.At(u, v) * ct
					if sol.s != nil {
						w += sol.s.At(u, v) * st
					}
					block[u*dI+v] = w * radial
				}
			}

			// κ[o][i] = Σ_{u,v} QOut[o][oOut+u] · block[u][v] · QIn[i][oIn+v]
			for o := 0; o < outDim; o++ {
				for i := 0; i < inDim; i++ {
					var val float64
					for u := 0; u < dO; u++ {
						qo := qOut.At(o, oOut+u)
						if qo == 0 {
							continue
						}
						for v := 0; v < dI; v++ {
							val += qo * block[u*dI+v] * qIn.At(i, oIn+v)
						}
					}
					data[((o*inDim+i)*size+y)*size+x] = float32(val)
					sumSq += val * val
				}
			}
		}
	}

	norm := math.Sqrt(sumSq)
	if norm < normEps {
		return nil
	}
	inv := float32(1 / norm)
	for i := range data {
		data[i] *= inv
	}
	return raw
}
