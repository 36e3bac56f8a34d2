package group

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// tol is the numerical tolerance for rank decisions and permutation checks.
const tol = 1e-9

// cosSin returns cos/sin of an angle with values snapped to exact
// -1, 0, 1 when within floating-point noise, so representation matrices
// of axis-aligned rotations are exact.
func cosSin(angle float64) (float64, float64) {
	return snap(math.Cos(angle)), snap(math.Sin(angle))
}

func snap(v float64) float64 {
	for _, e := range [...]float64{-1, 0, 1} {
		if math.Abs(v-e) < 1e-12 {
			return e
		}
	}
	return v
}

// blockDiag assembles square matrices into a block-diagonal matrix.
func blockDiag(blocks []*mat.Dense) *mat.Dense {
	n := 0
	for _, b := range blocks {
		r, _ := b.Dims()
		n += r
	}
	out := mat.NewDense(n, n, nil)
	off := 0
	for _, b := range blocks {
		r, c := b.Dims()
		out.Slice(off, off+r, off, off+c).(*mat.Dense).Copy(b)
		off += r
	}
	return out
}

// kron returns the Kronecker product a ⊗ b.
func kron(a, b *mat.Dense) *mat.Dense {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	out := mat.NewDense(ar*br, ac*bc, nil)
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			v := a.At(i, j)
			for k := 0; k < br; k++ {
				for l := 0; l < bc; l++ {
					out.Set(i*br+k, j*bc+l, v*b.At(k, l))
				}
			}
		}
	}
	return out
}

// isPermutation reports whether m is a permutation matrix (up to tol).
func isPermutation(m *mat.Dense) bool {
	r, c := m.Dims()
	if r != c {
		return false
	}
	for i := 0; i < r; i++ {
		rowOnes := 0
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			switch {
			case math.Abs(v) < tol:
			case math.Abs(v-1) < tol:
				rowOnes++
			default:
				return false
			}
		}
		if rowOnes != 1 {
			return false
		}
	}
	return true
}

// nullSpace returns an orthonormal basis (as columns) of the null space
// of m, using the right singular vectors with negligible singular values.
// Returns nil if the null space is trivial.
func NullSpace(m *mat.Dense) *mat.Dense {
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		panic("group: SVD factorization failed")
	}

	_, cols := m.Dims()
	values := svd.Values(nil)

	var v mat.Dense
	svd.VTo(&v)

	// Singular values are sorted descending; everything below the
	// threshold spans the null space.
	scale := 1.0
	if len(values) > 0 {
		scale = math.Max(1, values[0])
	}
	rank := 0
	for _, s := range values {
		if s > tol*scale {
			rank++
		}
	}
	dim := cols - rank
	if dim == 0 {
		return nil
	}

	basis := mat.NewDense(cols, dim, nil)
	for j := 0; j < dim; j++ {
		for i := 0; i < cols; i++ {
			basis.Set(i, j, v.At(i, rank+j))
		}
	}
	return basis
}

// intertwinerBasis returns a basis for the space of matrices X satisfying
// A_g · X = X · B_g for every generator pair, where A_g is dA×dA and B_g is
// dB×dB. Each basis element is a dA×dB matrix, returned as columns of a
// (dA·dB)×k matrix in row-major vectorization.
func intertwinerBasis(as, bs []*mat.Dense) *mat.Dense {
	if len(as) != len(bs) || len(as) == 0 {
		panic("group: intertwinerBasis needs matching non-empty generator lists")
	}
	dA, _ := as[0].Dims()
	dB, _ := bs[0].Dims()
	n := dA * dB

	// Constraint rows: (A X - X B)[i][j] = 0, unknowns X[a][b] vectorized
	// row-major. Coefficient of X[a][b]: A[i][a]·δ(b,j) - δ(a,i)·B[b][j].
	constraints := mat.NewDense(len(as)*n, n, nil)
	for g := range as {
		a, b := as[g], bs[g]
		for i := 0; i < dA; i++ {
			for j := 0; j < dB; j++ {
				row := g*n + i*dB + j
				for x := 0; x < dA; x++ {
					constraints.Set(row, x*dB+j, constraints.At(row, x*dB+j)+a.At(i, x))
				}
				for y := 0; y < dB; y++ {
					constraints.Set(row, i*dB+y, constraints.At(row, i*dB+y)-b.At(y, j))
				}
			}
		}
	}

	return NullSpace(constraints)
}

// genericIntertwiner combines a vectorized intertwiner basis into a single
// dA×dB matrix using deterministic pseudo-random coefficients. A generic
// combination of intertwiners between equivalent representations is
// invertible.
func genericIntertwiner(basis *mat.Dense, dA, dB int, seed int64) *mat.Dense {
	_, k := basis.Dims()
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic mixing, not cryptographic

	out := mat.NewDense(dA, dB, nil)
	for c := 0; c < k; c++ {
		w := rng.NormFloat64()
		for i := 0; i < dA; i++ {
			for j := 0; j < dB; j++ {
				out.Set(i, j, out.At(i, j)+w*basis.At(i*dB+j, c))
			}
		}
	}
	return out
}

// polarOrthogonal returns the orthogonal polar factor of m via SVD:
// m = U·Σ·Vᵀ → U·Vᵀ. For an invertible intertwiner between orthogonal
// representations the polar factor is again an intertwiner.
func polarOrthogonal(m *mat.Dense) *mat.Dense {
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		panic("group: SVD factorization failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	out.Mul(&u, v.T())
	return out
}
