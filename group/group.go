// Copyright 2025 Steer ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package group provides the public API for symmetry groups and their
// representations in the Steer ML framework.
//
// Steerable networks are built over a finite symmetry group acting on
// the image plane; this package exposes the supported groups (cyclic
// C_N and dihedral D_N), their irreducible representations, and the
// derived representations (trivial, regular, direct sums, tensor
// products) that field types are assembled from.
//
// Groups are memoized process-wide: repeated requests for the same
// group return the same immutable object.
//
// Example:
//
//	g := group.Cyclic(8)                      // C8
//	reg := g.RegularRepresentation()          // 8-dimensional
//	d4, err := group.Build("D4")              // from a spec string
package group

import (
	"github.com/steer-ml/steer/internal/group"
)

// Element identifies a group element by index; 0 is the identity.
type Element = group.Element

// Group is a finite symmetry group of the plane together with its
// representation theory.
type Group = group.Group

// Representation is a real orthogonal representation of a group,
// carrying its decomposition into irreducibles.
type Representation = group.Representation

// CyclicGroup is the group C_N of N-fold planar rotations.
type CyclicGroup = group.CyclicGroup

// DihedralGroup is the group D_N of N-fold rotations and reflections.
type DihedralGroup = group.DihedralGroup

// Build constructs (or returns the cached) group for a spec string such
// as "C8" or "D4". Returns an error for unknown or malformed specs.
func Build(spec string) (Group, error) {
	return group.Build(spec)
}

// Cyclic returns the memoized cyclic group C_N. Panics if n < 1; use
// Build for error-returning construction.
func Cyclic(n int) *CyclicGroup {
	return group.Cyclic(n)
}

// Dihedral returns the memoized dihedral group D_N. Panics if n < 1;
// use Build for error-returning construction.
func Dihedral(n int) *DihedralGroup {
	return group.Dihedral(n)
}
