// Package group implements the symmetry groups and group representations
// underlying steerable convolutions.
//
// The package provides:
//   - Group: finite symmetry groups of the plane (cyclic rotations,
//     dihedral rotation-reflections)
//   - Representation: real orthogonal representations (irreducible,
//     trivial, regular, direct sums, tensor products)
//   - Build: a memoized registry turning a spec string into a shared,
//     effectively immutable group object
//
// All representations constructed here are orthogonal, so the inverse of a
// representation matrix is always its transpose. Groups and their
// representations are built once per process and shared by reference;
// recomputing irreducible decompositions is expensive relative to any
// forward pass.
package group

import "gonum.org/v1/gonum/mat"

// Element identifies a group element by its index in the group's element
// enumeration. Elements are only meaningful together with their Group.
type Element int

// Group is a finite symmetry group acting on the 2D plane.
//
// Implementations:
//   - CyclicGroup: N-fold rotations C_N
//   - DihedralGroup: N-fold rotations and reflections D_N
type Group interface {
	// Name returns the group's spec name (e.g. "C8", "D4").
	Name() string

	// Order returns the number of group elements.
	Order() int

	// Elements returns all group elements. The first element is the identity.
	Elements() []Element

	// Identity returns the identity element.
	Identity() Element

	// Compose returns the product a∘b.
	Compose(a, b Element) Element

	// Inverse returns the inverse element.
	Inverse(a Element) Element

	// Generators returns a minimal generating set of the group.
	Generators() []Element

	// Angle returns the rotation angle (radians) of the element's action
	// on the plane.
	Angle(a Element) float64

	// IsReflection reports whether the element's plane action includes a
	// reflection.
	IsReflection(a Element) bool

	// PlaneAction returns the 2x2 orthogonal matrix by which the element
	// acts on the plane.
	PlaneAction(a Element) *mat.Dense

	// Irreps returns all irreducible representations of the group.
	Irreps() []*Representation

	// Irrep looks an irreducible representation up by name.
	// Returns an error if the group has no such representation.
	Irrep(name string) (*Representation, error)

	// TrivialRepresentation returns the 1-dimensional representation
	// mapping every element to 1.
	TrivialRepresentation() *Representation

	// RegularRepresentation returns the permutation representation on one
	// coordinate per group element. Its dimension equals the group order.
	RegularRepresentation() *Representation

	// MaxFrequency returns the largest rotational frequency occurring in
	// the group's irreps; used as the default angular cutoff for kernel
	// basis solves.
	MaxFrequency() int
}

// planeRotation returns the 2x2 rotation matrix for an angle, optionally
// composed with the reflection about the x-axis (applied first).
func planeRotation(angle float64, reflect bool) *mat.Dense {
	c, s := cosSin(angle)
	m := mat.NewDense(2, 2, []float64{c, -s, s, c})
	if reflect {
		// R(θ) · diag(1, -1)
		m.Set(0, 1, s)
		m.Set(1, 1, -c)
	}
	return m
}
