package group

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Representation is a real orthogonal representation of a finite group:
// an assignment of an orthogonal matrix to each group element, consistent
// with the group's composition law.
//
// Every representation carries its decomposition into irreducibles: the
// ordered list of constituent irrep names and the orthogonal change of
// basis Q such that
//
//	ρ(g) = Q · blockdiag(ψ_1(g), ψ_2(g), ...) · Qᵀ
//
// The decomposition is what the steerable kernel solver consumes; it is
// computed once at construction time.
type Representation struct {
	group     Group
	name      string
	dim       int
	matrices  []*mat.Dense // one per group element, indexed by Element
	irreps    []string     // constituent irrep names, in block order
	basis     *mat.Dense   // orthogonal change of basis Q (dim × dim)
	pointwise bool         // true iff every matrix is a permutation
}

// newIrrep builds an irreducible representation; its decomposition is
// itself with an identity change of basis.
func newIrrep(g Group, name string, matrices []*mat.Dense) *Representation {
	dim, _ := matrices[0].Dims()
	return &Representation{
		group:     g,
		name:      name,
		dim:       dim,
		matrices:  matrices,
		irreps:    []string{name},
		basis:     identity(dim),
		pointwise: allPermutations(matrices),
	}
}

// newDecomposed builds a representation from explicit matrices and a known
// decomposition.
func newDecomposed(g Group, name string, matrices []*mat.Dense, irreps []string, basis *mat.Dense) *Representation {
	dim, _ := matrices[0].Dims()
	return &Representation{
		group:     g,
		name:      name,
		dim:       dim,
		matrices:  matrices,
		irreps:    irreps,
		basis:     basis,
		pointwise: allPermutations(matrices),
	}
}

// Group returns the group this representation belongs to.
func (r *Representation) Group() Group {
	return r.group
}

// Name returns the representation's name, unique within its group.
func (r *Representation) Name() string {
	return r.name
}

// Dim returns the dimension of the representation space.
func (r *Representation) Dim() int {
	return r.dim
}

// Matrix returns the representation matrix of a group element.
// The returned matrix is shared; callers must not modify it.
func (r *Representation) Matrix(e Element) *mat.Dense {
	return r.matrices[e]
}

// Character returns the trace of the element's representation matrix.
func (r *Representation) Character(e Element) float64 {
	return mat.Trace(r.matrices[e])
}

// Irreps returns the names of the constituent irreducible representations
// in block order (repeated names indicate multiplicity).
func (r *Representation) Irreps() []string {
	return r.irreps
}

// ChangeOfBasis returns the orthogonal matrix Q relating this
// representation to the block-diagonal direct sum of its irreps.
// The returned matrix is shared; callers must not modify it.
func (r *Representation) ChangeOfBasis() *mat.Dense {
	return r.basis
}

// SupportsPointwise reports whether the group acts on this representation
// purely by permuting coordinates. Element-wise nonlinearities commute
// with the group action exactly on such representations.
func (r *Representation) SupportsPointwise() bool {
	return r.pointwise
}

// Equal reports whether two representations are the same representation
// of the same group.
func (r *Representation) Equal(other *Representation) bool {
	return other != nil && r.group.Name() == other.group.Name() && r.name == other.name
}

// String returns a human-readable description.
func (r *Representation) String() string {
	return fmt.Sprintf("%s:%s(dim=%d)", r.group.Name(), r.name, r.dim)
}

// DirectSum returns the representation acting block-diagonally on the
// concatenation of the two representation spaces.
func (r *Representation) DirectSum(other *Representation) *Representation {
	if r.group.Name() != other.group.Name() {
		panic(fmt.Sprintf("group: direct sum across groups %s and %s", r.group.Name(), other.group.Name()))
	}

	elements := r.group.Elements()
	matrices := make([]*mat.Dense, len(elements))
	for i := range elements {
		matrices[i] = blockDiag([]*mat.Dense{r.matrices[i], other.matrices[i]})
	}

	irreps := append(append([]string{}, r.irreps...), other.irreps...)
	basis := blockDiag([]*mat.Dense{r.basis, other.basis})

	return newDecomposed(r.group, r.name+"⊕"+other.name, matrices, irreps, basis)
}

// Tensor returns the tensor-product representation, acting by Kronecker
// products, together with its decomposition into irreps. The decomposition
// is computed numerically (character multiplicities plus an orthogonal
// intertwiner), which is how nonlinearities that multiply fields can route
// their outputs through well-defined field types.
func (r *Representation) Tensor(other *Representation) *Representation {
	if r.group.Name() != other.group.Name() {
		panic(fmt.Sprintf("group: tensor product across groups %s and %s", r.group.Name(), other.group.Name()))
	}

	elements := r.group.Elements()
	matrices := make([]*mat.Dense, len(elements))
	for i := range elements {
		matrices[i] = kron(r.matrices[i], other.matrices[i])
	}

	irreps, basis := decompose(r.group, matrices)
	return newDecomposed(r.group, r.name+"⊗"+other.name, matrices, irreps, basis)
}

// InvariantBasis returns an orthonormal basis (as columns) of the
// invariant subspace {v : ρ(g)·v = v for all g}, or nil if the subspace is
// trivial. Equivariant bias terms live on this subspace.
func (r *Representation) InvariantBasis() *mat.Dense {
	gens := r.group.Generators()
	stacked := mat.NewDense(len(gens)*r.dim, r.dim, nil)
	for k, g := range gens {
		block := stacked.Slice(k*r.dim, (k+1)*r.dim, 0, r.dim).(*mat.Dense)
		block.Copy(r.matrices[g])
		for i := 0; i < r.dim; i++ {
			block.Set(i, i, block.At(i, i)-1)
		}
	}
	return NullSpace(stacked)
}

// decompose computes the irrep decomposition of a representation given by
// explicit matrices: multiplicities via character inner products
// (normalized by each irrep's self-inner-product, which differs between
// real-type and complex-type real irreps), then an orthogonal change of
// basis as the polar factor of a generic intertwiner.
func decompose(g Group, matrices []*mat.Dense) ([]string, *mat.Dense) {
	elements := g.Elements()
	dim, _ := matrices[0].Dims()

	var irreps []string
	var blocks []*mat.Dense // per-element block-diagonal matrices, built up
	blockParts := make([][]*mat.Dense, len(elements))

	for _, psi := range g.Irreps() {
		self := 0.0
		inner := 0.0
		for _, e := range elements {
			chi := psi.Character(e)
			self += chi * chi
			inner += chi * mat.Trace(matrices[e])
		}
		mult := int(math.Round(inner / self))
		for m := 0; m < mult; m++ {
			irreps = append(irreps, psi.Name())
			for i, e := range elements {
				blockParts[i] = append(blockParts[i], psi.Matrix(e))
			}
		}
	}

	blocks = make([]*mat.Dense, len(elements))
	total := 0
	for _, name := range irreps {
		psi, _ := g.Irrep(name)
		total += psi.Dim()
	}
	if total != dim {
		panic(fmt.Sprintf("group: decomposition dimension mismatch: irreps sum to %d, representation has %d", total, dim))
	}
	for i := range elements {
		blocks[i] = blockDiag(blockParts[i])
	}

	// Solve ρ(g)·X = X·D(g) on the generators and orthogonalize.
	gens := g.Generators()
	as := make([]*mat.Dense, len(gens))
	bs := make([]*mat.Dense, len(gens))
	for i, e := range gens {
		as[i] = matrices[e]
		bs[i] = blocks[e]
	}
	basisVecs := intertwinerBasis(as, bs)
	if basisVecs == nil {
		panic("group: no intertwiner found for decomposition")
	}

	// A generic combination of intertwiners is invertible; retry with a
	// different deterministic seed in the unlucky degenerate case.
	for seed := int64(1); ; seed++ {
		x := genericIntertwiner(basisVecs, dim, dim, seed)
		var svd mat.SVD
		if ok := svd.Factorize(x, mat.SVDThin); !ok {
			continue
		}
		values := svd.Values(nil)
		if values[len(values)-1] > tol*math.Max(1, values[0]) {
			return irreps, polarOrthogonal(x)
		}
		if seed > 32 {
			panic("group: failed to find invertible intertwiner for decomposition")
		}
	}
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func allPermutations(matrices []*mat.Dense) bool {
	for _, m := range matrices {
		if !isPermutation(m) {
			return false
		}
	}
	return true
}
