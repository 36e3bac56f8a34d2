// Package nn implements equivariant neural network modules for the
// Steer ML Framework.
//
// The building blocks mirror a conventional CNN stack, except that every
// module declares the field types of its input and output and its
// forward pass commutes with the group action those types induce:
//   - Module interface: base interface for all equivariant components
//   - FieldType / GeometricTensor: typed feature spaces
//   - R2Conv: steerable convolution over cached kernel bases
//   - InnerBatchNorm, PointwiseReLU, NormNonLinearity: normalization and
//     nonlinearities compatible with the group action
//   - Pooling: anti-aliased average, max, and group pooling
//   - Sequential: container that checks field types at every connection
//   - Linear: plain dense layer for the unwrapped classifier head
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/steer-ml/steer/internal/tensor"
)

// Module is the base interface for all equivariant network components.
//
// A module fixes its input and output field types at construction time;
// Forward panics if the input's type differs from InType(). Composition
// containers use the declared types to reject ill-typed networks before
// any data flows.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the module output. The input's field type must
	// equal InType(); the output's field type is OutType().
	Forward(input *GeometricTensor[B]) *GeometricTensor[B]

	// InType returns the expected input field type.
	InType() *FieldType

	// OutType returns the produced output field type.
	OutType() *FieldType

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Empty for parameterless
	// modules such as nonlinearities and pooling.
	Parameters() []*Parameter[B]
}
