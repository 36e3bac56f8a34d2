package group

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// CyclicGroup is the group C_N of N-fold rotations of the plane.
//
// Element j acts by rotation through 2πj/N. Its real irreps are the
// trivial representation (frequency 0), 2-dimensional rotation
// representations of frequency 0 < k < N/2, and, for even N, the
// 1-dimensional sign representation of frequency N/2.
type CyclicGroup struct {
	n        int
	elements []Element
	irreps   []*Representation
	byName   map[string]*Representation
	trivial  *Representation
	regular  *Representation
}

// newCyclic constructs C_N with all its representations. Use the Cyclic
// registry function instead of calling this directly.
func newCyclic(n int) *CyclicGroup {
	if n < 1 {
		panic(fmt.Sprintf("group: invalid cyclic order %d", n))
	}

	g := &CyclicGroup{
		n:      n,
		byName: make(map[string]*Representation),
	}
	g.elements = make([]Element, n)
	for i := range g.elements {
		g.elements[i] = Element(i)
	}

	// Irreducible representations, ordered by frequency.
	for k := 0; 2*k <= n; k++ {
		name := fmt.Sprintf("irrep_%d", k)
		matrices := make([]*mat.Dense, n)
		for j := 0; j < n; j++ {
			theta := 2 * math.Pi * float64(k*j) / float64(n)
			c, s := cosSin(theta)
			switch {
			case k == 0:
				matrices[j] = mat.NewDense(1, 1, []float64{1})
			case 2*k == n:
				matrices[j] = mat.NewDense(1, 1, []float64{c})
			default:
				matrices[j] = mat.NewDense(2, 2, []float64{c, -s, s, c})
			}
		}
		rep := newIrrep(g, name, matrices)
		g.irreps = append(g.irreps, rep)
		g.byName[name] = rep
	}

	g.trivial = g.byName["irrep_0"]
	g.regular = buildRegular(g)
	g.byName[g.regular.Name()] = g.regular

	return g
}

// Name returns "CN".
func (g *CyclicGroup) Name() string { return fmt.Sprintf("C%d", g.n) }

// Order returns N.
func (g *CyclicGroup) Order() int { return g.n }

// Elements returns the N rotations; element 0 is the identity.
func (g *CyclicGroup) Elements() []Element { return g.elements }

// Identity returns the identity element.
func (g *CyclicGroup) Identity() Element { return 0 }

// Compose returns the product of two rotations.
func (g *CyclicGroup) Compose(a, b Element) Element {
	return Element((int(a) + int(b)) % g.n)
}

// Inverse returns the inverse rotation.
func (g *CyclicGroup) Inverse(a Element) Element {
	return Element((g.n - int(a)) % g.n)
}

// Generators returns the elementary rotation (empty set for C1).
func (g *CyclicGroup) Generators() []Element {
	if g.n == 1 {
		return []Element{0}
	}
	return []Element{1}
}

// Angle returns the rotation angle 2πj/N.
func (g *CyclicGroup) Angle(a Element) float64 {
	return 2 * math.Pi * float64(a) / float64(g.n)
}

// IsReflection always returns false for cyclic groups.
func (g *CyclicGroup) IsReflection(Element) bool { return false }

// PlaneAction returns the rotation matrix of the element.
func (g *CyclicGroup) PlaneAction(a Element) *mat.Dense {
	return planeRotation(g.Angle(a), false)
}

// Irreps returns all irreducible representations.
func (g *CyclicGroup) Irreps() []*Representation { return g.irreps }

// Irrep looks up a representation by name (e.g. "irrep_2").
func (g *CyclicGroup) Irrep(name string) (*Representation, error) {
	if rep, ok := g.byName[name]; ok {
		return rep, nil
	}
	return nil, fmt.Errorf("group: %s has no representation %q", g.Name(), name)
}

// TrivialRepresentation returns the frequency-0 representation.
func (g *CyclicGroup) TrivialRepresentation() *Representation { return g.trivial }

// RegularRepresentation returns the N-dimensional permutation
// representation on the group elements.
func (g *CyclicGroup) RegularRepresentation() *Representation { return g.regular }

// MaxFrequency returns N/2, the largest irrep frequency.
func (g *CyclicGroup) MaxFrequency() int { return g.n / 2 }

// buildRegular constructs the regular representation of any finite group
// together with its numerically computed irrep decomposition.
func buildRegular(g Group) *Representation {
	elements := g.Elements()
	order := len(elements)

	matrices := make([]*mat.Dense, order)
	for _, a := range elements {
		m := mat.NewDense(order, order, nil)
		for _, h := range elements {
			m.Set(int(g.Compose(a, h)), int(h), 1)
		}
		matrices[a] = m
	}

	irreps, basis := decompose(g, matrices)
	return newDecomposed(g, "regular", matrices, irreps, basis)
}
