// Copyright 2025 Steer ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package kernel provides the public API for steerable kernel bases in
// the Steer ML framework.
//
// Convolution layers constrain their filters to the linear space of
// kernels commuting with the group action; this package solves for a
// sampled basis of that space and memoizes results process-wide. Most
// users never call it directly (nn.NewR2Conv does), but it is useful
// for inspecting basis dimensions and warming the cache.
package kernel

import (
	"github.com/steer-ml/steer/internal/group"
	"github.com/steer-ml/steer/internal/kernel"
)

// Support describes the sampling geometry of a kernel basis.
type Support = kernel.Support

// Basis is a sampled steerable kernel basis.
type Basis = kernel.Basis

// Cache memoizes kernel basis solves with single-flight semantics.
type Cache = kernel.Cache

// DefaultSupport returns the standard support for a kernel of the given
// size and angular frequency cap.
func DefaultSupport(size, maxFreq int) Support {
	return kernel.DefaultSupport(size, maxFreq)
}

// Solve computes a steerable kernel basis directly, bypassing the
// cache.
func Solve(in, out *group.Representation, sup Support) (*Basis, error) {
	return kernel.Solve(in, out, sup)
}

// Get returns the basis for the representation pair and support from
// the shared process-wide cache, solving on first request.
func Get(in, out *group.Representation, sup Support) (*Basis, error) {
	return kernel.Get(in, out, sup)
}

// NewCache returns an empty private cache, independent of the shared
// one.
func NewCache() *Cache {
	return kernel.NewCache()
}
