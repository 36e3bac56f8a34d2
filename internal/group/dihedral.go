package group

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DihedralGroup is the group D_N of N-fold rotations and reflections of
// the plane (order 2N).
//
// Element indices encode g = r^k·s^f as k + f·N, where r is the rotation
// through 2π/N and s the reflection about the x-axis. The real irreps are
// four 1-dimensional representations (two for odd N) and 2-dimensional
// rotation-reflection representations of frequency 0 < j < N/2.
type DihedralGroup struct {
	n        int
	elements []Element
	irreps   []*Representation
	byName   map[string]*Representation
	trivial  *Representation
	regular  *Representation
}

// newDihedral constructs D_N with all its representations. Use the
// Dihedral registry function instead of calling this directly.
func newDihedral(n int) *DihedralGroup {
	if n < 1 {
		panic(fmt.Sprintf("group: invalid dihedral order %d", n))
	}

	g := &DihedralGroup{
		n:      n,
		byName: make(map[string]*Representation),
	}
	g.elements = make([]Element, 2*n)
	for i := range g.elements {
		g.elements[i] = Element(i)
	}

	addIrrep := func(name string, f func(k, flip int) *mat.Dense) {
		matrices := make([]*mat.Dense, 2*n)
		for e := 0; e < 2*n; e++ {
			matrices[e] = f(e%n, e/n)
		}
		rep := newIrrep(g, name, matrices)
		g.irreps = append(g.irreps, rep)
		g.byName[name] = rep
	}

	// 1D irreps: trivial and reflection sign.
	addIrrep("irrep_0_0", func(k, flip int) *mat.Dense {
		return mat.NewDense(1, 1, []float64{1})
	})
	addIrrep("irrep_1_0", func(k, flip int) *mat.Dense {
		return mat.NewDense(1, 1, []float64{sign(flip)})
	})

	// 2D irreps of frequency 0 < j < N/2: rotations act by R(jθ), the
	// reflection by diag(1, -1).
	for j := 1; 2*j < n; j++ {
		freq := j
		addIrrep(fmt.Sprintf("irrep_1_%d", freq), func(k, flip int) *mat.Dense {
			theta := 2 * math.Pi * float64(freq*k) / float64(n)
			c, s := cosSin(theta)
			m := mat.NewDense(2, 2, []float64{c, -s, s, c})
			if flip == 1 {
				m.Set(0, 1, s)
				m.Set(1, 1, -c)
			}
			return m
		})
	}

	// For even N the frequency-N/2 representations are 1-dimensional.
	if n%2 == 0 {
		addIrrep(fmt.Sprintf("irrep_0_%d", n/2), func(k, flip int) *mat.Dense {
			return mat.NewDense(1, 1, []float64{sign(k)})
		})
		addIrrep(fmt.Sprintf("irrep_1_%d", n/2), func(k, flip int) *mat.Dense {
			return mat.NewDense(1, 1, []float64{sign(k + flip)})
		})
	}

	g.trivial = g.byName["irrep_0_0"]
	g.regular = buildRegular(g)
	g.byName[g.regular.Name()] = g.regular

	return g
}

func sign(k int) float64 {
	if k%2 == 0 {
		return 1
	}
	return -1
}

// Name returns "DN".
func (g *DihedralGroup) Name() string { return fmt.Sprintf("D%d", g.n) }

// Order returns 2N.
func (g *DihedralGroup) Order() int { return 2 * g.n }

// Elements returns all 2N elements; element 0 is the identity.
func (g *DihedralGroup) Elements() []Element { return g.elements }

// Identity returns the identity element.
func (g *DihedralGroup) Identity() Element { return 0 }

// Compose returns the product a∘b using s·r^k = r^(-k)·s.
func (g *DihedralGroup) Compose(a, b Element) Element {
	k1, f1 := int(a)%g.n, int(a)/g.n
	k2, f2 := int(b)%g.n, int(b)/g.n

	k := k1 + k2
	if f1 == 1 {
		k = k1 - k2
	}
	k = ((k % g.n) + g.n) % g.n
	return Element(k + ((f1 + f2) % 2 * g.n))
}

// Inverse returns the inverse element: rotations invert, reflections are
// involutions.
func (g *DihedralGroup) Inverse(a Element) Element {
	k, f := int(a)%g.n, int(a)/g.n
	if f == 1 {
		return a
	}
	return Element((g.n - k) % g.n)
}

// Generators returns the elementary rotation and the reflection.
func (g *DihedralGroup) Generators() []Element {
	if g.n == 1 {
		return []Element{Element(g.n)}
	}
	return []Element{1, Element(g.n)}
}

// Angle returns the rotation part 2πk/N of the element's plane action.
func (g *DihedralGroup) Angle(a Element) float64 {
	return 2 * math.Pi * float64(int(a)%g.n) / float64(g.n)
}

// IsReflection reports whether the element includes the reflection.
func (g *DihedralGroup) IsReflection(a Element) bool {
	return int(a) >= g.n
}

// PlaneAction returns the element's 2x2 orthogonal action on the plane.
func (g *DihedralGroup) PlaneAction(a Element) *mat.Dense {
	return planeRotation(g.Angle(a), g.IsReflection(a))
}

// Irreps returns all irreducible representations.
func (g *DihedralGroup) Irreps() []*Representation { return g.irreps }

// Irrep looks up a representation by name (e.g. "irrep_1_2").
func (g *DihedralGroup) Irrep(name string) (*Representation, error) {
	if rep, ok := g.byName[name]; ok {
		return rep, nil
	}
	return nil, fmt.Errorf("group: %s has no representation %q", g.Name(), name)
}

// TrivialRepresentation returns the trivial representation.
func (g *DihedralGroup) TrivialRepresentation() *Representation { return g.trivial }

// RegularRepresentation returns the 2N-dimensional permutation
// representation on the group elements.
func (g *DihedralGroup) RegularRepresentation() *Representation { return g.regular }

// MaxFrequency returns N/2, the largest irrep frequency.
func (g *DihedralGroup) MaxFrequency() int { return g.n / 2 }
