// Copyright 2025 Steer ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for equivariant neural network
// modules in the Steer ML framework.
//
// Networks are assembled from modules that declare the field types of
// their input and output; the forward pass of every module commutes
// with the group action those types induce, so a network built from
// them is equivariant end to end by construction.
//
// Example (a small C8-steerable classifier):
//
//	g := group.Cyclic(8)
//	backend := cpu.New()
//
//	in := nn.TrivialFields(g, 1)
//	hidden := nn.RegularFields(g, 8)
//
//	conv, _ := nn.NewR2Conv(in, hidden, 5, 1, 2, backend)
//	model := nn.NewSequential[*cpu.Backend](
//	    conv,
//	    nn.NewInnerBatchNorm(hidden, backend),
//	    nn.NewPointwiseReLU[*cpu.Backend](hidden),
//	    nn.NewGroupPooling[*cpu.Backend](hidden),
//	)
//
//	x := nn.MustWrap(tensor.Randn[float32](tensor.Shape{1, 1, 29, 29}, backend), in)
//	y := model.Forward(x) // invariant fields
package nn
