// Copyright 2025 Steer ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/steer-ml/steer/internal/group"
	"github.com/steer-ml/steer/internal/nn"
	"github.com/steer-ml/steer/internal/tensor"
)

// Module interface defines the common interface for all equivariant
// network modules.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Field types and geometric tensors

// FieldType describes how a feature tensor's channels transform under
// the group.
type FieldType = nn.FieldType

// GeometricTensor couples a feature tensor with its field type.
type GeometricTensor[B tensor.Backend] = nn.GeometricTensor[B]

// NewFieldType creates a field type from an ordered list of
// representations.
func NewFieldType(g group.Group, reps []*group.Representation) *FieldType {
	return nn.NewFieldType(g, reps)
}

// TrivialFields returns a field type of n scalar (trivial) fields.
func TrivialFields(g group.Group, n int) *FieldType {
	return nn.TrivialFields(g, n)
}

// RegularFields returns a field type of n regular fields.
func RegularFields(g group.Group, n int) *FieldType {
	return nn.RegularFields(g, n)
}

// Wrap attaches a field type to a [batch, channels, height, width]
// tensor, validating the channel dimension.
func Wrap[B tensor.Backend](t *tensor.Tensor[float32, B], ft *FieldType) (*GeometricTensor[B], error) {
	return nn.Wrap(t, ft)
}

// MustWrap is Wrap panicking on error.
func MustWrap[B tensor.Backend](t *tensor.Tensor[float32, B], ft *FieldType) *GeometricTensor[B] {
	return nn.MustWrap(t, ft)
}

// Layers

// R2Conv is a steerable convolution layer.
type R2Conv[B tensor.Backend] = nn.R2Conv[B]

// NewR2Conv creates a steerable convolution between two field types.
//
// Example:
//
//	g := group.Cyclic(8)
//	in := nn.TrivialFields(g, 1)
//	out := nn.RegularFields(g, 16)
//	conv, err := nn.NewR2Conv(in, out, 5, 1, 2, backend)
func NewR2Conv[B tensor.Backend](inType, outType *FieldType, kernelSize, stride, padding int, backend B) (*R2Conv[B], error) {
	return nn.NewR2Conv(inType, outType, kernelSize, stride, padding, backend)
}

// InnerBatchNorm normalizes each field with statistics shared across
// the field's channels.
type InnerBatchNorm[B tensor.Backend] = nn.InnerBatchNorm[B]

// NewInnerBatchNorm creates an inner batch normalization layer over a
// pointwise-compatible field type.
func NewInnerBatchNorm[B tensor.Backend](ftype *FieldType, backend B) *InnerBatchNorm[B] {
	return nn.NewInnerBatchNorm(ftype, backend)
}

// PointwiseReLU applies the rectifier element-wise on permutation
// representations.
type PointwiseReLU[B tensor.Backend] = nn.PointwiseReLU[B]

// NewPointwiseReLU creates a pointwise ReLU layer.
func NewPointwiseReLU[B tensor.Backend](ftype *FieldType) *PointwiseReLU[B] {
	return nn.NewPointwiseReLU[B](ftype)
}

// NormNonLinearity rescales each fiber by a function of its norm,
// equivariant on any field type.
type NormNonLinearity[B tensor.Backend] = nn.NormNonLinearity[B]

// NewNormNonLinearity creates a norm nonlinearity layer.
func NewNormNonLinearity[B tensor.Backend](ftype *FieldType, backend B) *NormNonLinearity[B] {
	return nn.NewNormNonLinearity(ftype, backend)
}

// Pooling

// PointwiseAvgPoolAntialiased downsamples with a Gaussian blur followed
// by subsampling.
type PointwiseAvgPoolAntialiased[B tensor.Backend] = nn.PointwiseAvgPoolAntialiased[B]

// NewPointwiseAvgPoolAntialiased creates an anti-aliased pooling layer.
func NewPointwiseAvgPoolAntialiased[B tensor.Backend](ftype *FieldType, sigma float64, stride int, backend B) *PointwiseAvgPoolAntialiased[B] {
	return nn.NewPointwiseAvgPoolAntialiased(ftype, sigma, stride, backend)
}

// PointwiseAvgPool applies plain spatial average pooling on any field
// type.
type PointwiseAvgPool[B tensor.Backend] = nn.PointwiseAvgPool[B]

// NewPointwiseAvgPool creates an average pooling layer.
func NewPointwiseAvgPool[B tensor.Backend](ftype *FieldType, kernelSize, stride int, backend B) *PointwiseAvgPool[B] {
	return nn.NewPointwiseAvgPool(ftype, kernelSize, stride, backend)
}

// PointwiseMaxPool applies spatial max pooling on permutation
// representations.
type PointwiseMaxPool[B tensor.Backend] = nn.PointwiseMaxPool[B]

// NewPointwiseMaxPool creates a max pooling layer.
func NewPointwiseMaxPool[B tensor.Backend](ftype *FieldType, kernelSize, stride int, backend B) *PointwiseMaxPool[B] {
	return nn.NewPointwiseMaxPool(ftype, kernelSize, stride, backend)
}

// GroupPooling collapses regular fields to invariant channels.
type GroupPooling[B tensor.Backend] = nn.GroupPooling[B]

// NewGroupPooling creates a group pooling layer over regular fields.
func NewGroupPooling[B tensor.Backend](inType *FieldType) *GroupPooling[B] {
	return nn.NewGroupPooling[B](inType)
}

// Containers

// Sequential chains modules with construction-time field type checks.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Linear represents a fully connected (dense) layer on plain tensors,
// for the classifier head after group pooling and Unwrap.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// Verification

// EquivarianceError compares Forward(g·input) with g·Forward(input) for
// every group element and reports the maximum absolute difference.
func EquivarianceError[B tensor.Backend](m Module[B], input *GeometricTensor[B]) map[group.Element]float64 {
	return nn.EquivarianceError(m, input)
}
