package group

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		spec  string
		order int
	}{
		{"C1", 1},
		{"C4", 4},
		{"C8", 8},
		{"D1", 2},
		{"D4", 8},
		{"D8", 16},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			g, err := Build(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.spec, g.Name())
			assert.Equal(t, tt.order, g.Order())
			assert.Len(t, g.Elements(), tt.order)
		})
	}
}

func TestBuildErrors(t *testing.T) {
	for _, spec := range []string{"", "C", "C0", "C-3", "Cx", "E4", "4C"} {
		_, err := Build(spec)
		assert.Error(t, err, "spec %q", spec)
	}
}

func TestBuildMemoizes(t *testing.T) {
	a, err := Build("C6")
	require.NoError(t, err)
	b, err := Build("C6")
	require.NoError(t, err)
	if a != b {
		t.Fatal("Build returned distinct objects for the same spec")
	}
}

func TestGroupAxioms(t *testing.T) {
	for _, g := range []Group{Cyclic(1), Cyclic(5), Cyclic(8), Dihedral(1), Dihedral(3), Dihedral(4)} {
		t.Run(g.Name(), func(t *testing.T) {
			elements := g.Elements()
			id := g.Identity()

			for _, a := range elements {
				assert.Equal(t, a, g.Compose(a, id))
				assert.Equal(t, a, g.Compose(id, a))
				assert.Equal(t, id, g.Compose(a, g.Inverse(a)))
				assert.Equal(t, id, g.Compose(g.Inverse(a), a))

				for _, b := range elements {
					ab := g.Compose(a, b)
					assert.GreaterOrEqual(t, int(ab), 0)
					assert.Less(t, int(ab), g.Order())

					for _, c := range elements {
						assert.Equal(t,
							g.Compose(g.Compose(a, b), c),
							g.Compose(a, g.Compose(b, c)))
					}
				}
			}
		})
	}
}

// Every representation must be a homomorphism: ρ(a∘b) = ρ(a)·ρ(b).
func TestRepresentationsAreHomomorphisms(t *testing.T) {
	for _, g := range []Group{Cyclic(4), Cyclic(7), Dihedral(4), Dihedral(5)} {
		reps := append([]*Representation{}, g.Irreps()...)
		reps = append(reps, g.RegularRepresentation())

		for _, rep := range reps {
			t.Run(g.Name()+"/"+rep.Name(), func(t *testing.T) {
				for _, a := range g.Elements() {
					for _, b := range g.Elements() {
						var product mat.Dense
						product.Mul(rep.Matrix(a), rep.Matrix(b))
						got := rep.Matrix(g.Compose(a, b))
						assert.True(t, mat.EqualApprox(got, &product, 1e-9),
							"ρ(%d∘%d) != ρ(%d)·ρ(%d)", a, b, a, b)
					}
				}
			})
		}
	}
}

func TestRepresentationsAreOrthogonal(t *testing.T) {
	g := Dihedral(4)
	reps := append([]*Representation{}, g.Irreps()...)
	reps = append(reps, g.RegularRepresentation())

	for _, rep := range reps {
		for _, e := range g.Elements() {
			m := rep.Matrix(e)
			var gram mat.Dense
			gram.Mul(m.T(), m)
			assert.True(t, mat.EqualApprox(&gram, identity(rep.Dim()), 1e-9),
				"%s: ρ(%d) is not orthogonal", rep.Name(), e)
		}
	}
}

func TestRegularRepresentation(t *testing.T) {
	for _, g := range []Group{Cyclic(1), Cyclic(8), Dihedral(4)} {
		t.Run(g.Name(), func(t *testing.T) {
			reg := g.RegularRepresentation()
			assert.Equal(t, g.Order(), reg.Dim())
			assert.True(t, reg.SupportsPointwise())

			// Character of the regular representation: |G| at the
			// identity, 0 elsewhere.
			assert.InDelta(t, float64(g.Order()), reg.Character(g.Identity()), 1e-9)
			for _, e := range g.Elements() {
				if e != g.Identity() {
					assert.InDelta(t, 0, reg.Character(e), 1e-9)
				}
			}
		})
	}
}

// The stored decomposition must actually diagonalize the representation:
// ρ(g) = Q · blockdiag(ψ_i(g)) · Qᵀ with orthogonal Q.
func TestDecomposition(t *testing.T) {
	for _, g := range []Group{Cyclic(4), Cyclic(8), Dihedral(3), Dihedral(4)} {
		t.Run(g.Name(), func(t *testing.T) {
			reg := g.RegularRepresentation()
			q := reg.ChangeOfBasis()

			var gram mat.Dense
			gram.Mul(q.T(), q)
			require.True(t, mat.EqualApprox(&gram, identity(reg.Dim()), 1e-8),
				"change of basis is not orthogonal")

			for _, e := range g.Elements() {
				var parts []*mat.Dense
				for _, name := range reg.Irreps() {
					psi, err := g.Irrep(name)
					require.NoError(t, err)
					parts = append(parts, psi.Matrix(e))
				}
				block := blockDiag(parts)

				var reconstructed mat.Dense
				reconstructed.Mul(q, block)
				reconstructed.Mul(&reconstructed, q.T())
				assert.True(t, mat.EqualApprox(reg.Matrix(e), &reconstructed, 1e-8),
					"element %d does not match its decomposition", e)
			}
		})
	}
}

func TestIrrepLookup(t *testing.T) {
	g := Cyclic(8)
	rep, err := g.Irrep("irrep_2")
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Dim())

	_, err = g.Irrep("irrep_99")
	assert.Error(t, err)

	d := Dihedral(4)
	for _, name := range []string{"irrep_0_0", "irrep_1_0", "irrep_1_1", "irrep_0_2", "irrep_1_2"} {
		_, err := d.Irrep(name)
		assert.NoError(t, err, name)
	}
}

func TestDirectSum(t *testing.T) {
	g := Cyclic(4)
	a := g.TrivialRepresentation()
	b := g.RegularRepresentation()

	sum := a.DirectSum(b)
	assert.Equal(t, a.Dim()+b.Dim(), sum.Dim())
	assert.Equal(t, append(append([]string{}, a.Irreps()...), b.Irreps()...), sum.Irreps())

	for _, e := range g.Elements() {
		m := sum.Matrix(e)
		assert.InDelta(t, 1, m.At(0, 0), 1e-12)
		for i := 0; i < b.Dim(); i++ {
			for j := 0; j < b.Dim(); j++ {
				assert.InDelta(t, b.Matrix(e).At(i, j), m.At(1+i, 1+j), 1e-12)
			}
		}
	}
}

func TestTensorProduct(t *testing.T) {
	g := Cyclic(4)
	rot, err := g.Irrep("irrep_1")
	require.NoError(t, err)

	prod := rot.Tensor(rot)
	assert.Equal(t, 4, prod.Dim())

	// The product must still be a homomorphism and its decomposition
	// must reconstruct it.
	for _, a := range g.Elements() {
		for _, b := range g.Elements() {
			var m mat.Dense
			m.Mul(prod.Matrix(a), prod.Matrix(b))
			assert.True(t, mat.EqualApprox(prod.Matrix(g.Compose(a, b)), &m, 1e-9))
		}
	}

	q := prod.ChangeOfBasis()
	var gram mat.Dense
	gram.Mul(q.T(), q)
	assert.True(t, mat.EqualApprox(&gram, identity(4), 1e-8))
}

func TestInvariantBasis(t *testing.T) {
	g := Cyclic(4)

	// The regular representation has a one-dimensional invariant
	// subspace spanned by the constant vector.
	inv := g.RegularRepresentation().InvariantBasis()
	require.NotNil(t, inv)
	_, cols := inv.Dims()
	assert.Equal(t, 1, cols)
	for i := 1; i < 4; i++ {
		assert.InDelta(t, inv.At(0, 0), inv.At(i, 0), 1e-9)
	}

	// A nontrivial irrep has none.
	rot, err := g.Irrep("irrep_1")
	require.NoError(t, err)
	assert.Nil(t, rot.InvariantBasis())
}

func TestSupportsPointwise(t *testing.T) {
	g := Cyclic(8)
	assert.True(t, g.TrivialRepresentation().SupportsPointwise())
	assert.True(t, g.RegularRepresentation().SupportsPointwise())

	rot, err := g.Irrep("irrep_1")
	require.NoError(t, err)
	assert.False(t, rot.SupportsPointwise())
}

func TestPlaneAction(t *testing.T) {
	g := Cyclic(4)

	// Rotation by 90°: (1, 0) → (0, 1).
	a := g.PlaneAction(1)
	assert.InDelta(t, 0, a.At(0, 0), 1e-12)
	assert.InDelta(t, -1, a.At(0, 1), 1e-12)
	assert.InDelta(t, 1, a.At(1, 0), 1e-12)
	assert.InDelta(t, 0, a.At(1, 1), 1e-12)

	d := Dihedral(2)
	for _, e := range d.Elements() {
		m := d.PlaneAction(e)
		det := m.At(0, 0)*m.At(1, 1) - m.At(0, 1)*m.At(1, 0)
		if d.IsReflection(e) {
			assert.InDelta(t, -1, det, 1e-9, "element %d", e)
		} else {
			assert.InDelta(t, 1, det, 1e-9, "element %d", e)
		}
	}
}

func TestDihedralCompose(t *testing.T) {
	g := Dihedral(4)
	s := Element(4) // reflection
	r := Element(1) // rotation

	// s·r = r⁻¹·s, so (s·r)·(s·r) should be the identity.
	sr := g.Compose(s, r)
	assert.Equal(t, g.Identity(), g.Compose(sr, sr))

	// Reflections are involutions.
	for _, e := range g.Elements() {
		if g.IsReflection(e) {
			assert.Equal(t, e, g.Inverse(e), "reflection %d", e)
		}
	}
}

func ExampleBuild() {
	g, _ := Build("C4")
	fmt.Println(g.Name(), g.Order())
	// Output: C4 4
}
