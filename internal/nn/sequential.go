package nn

import (
	"fmt"

	"github.com/steer-ml/steer/internal/tensor"
)

// Sequential chains equivariant modules, verifying at construction that
// every connection is well typed: each module's input field type must
// equal the previous module's output field type. Ill-typed networks are
// rejected before any data flows.
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a sequential container. Panics if the list is
// empty or any adjacent pair of modules disagrees on field types.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	if len(modules) == 0 {
		panic("nn: Sequential needs at least one module")
	}
	for i := 1; i < len(modules); i++ {
		prev, next := modules[i-1].OutType(), modules[i].InType()
		if !next.Equal(prev) {
			panic(fmt.Sprintf("nn: Sequential type mismatch at layer %d: produces %s, layer %d expects %s",
				i-1, prev, i, next))
		}
	}
	return &Sequential[B]{modules: modules}
}

// Forward runs the modules in order.
func (s *Sequential[B]) Forward(input *GeometricTensor[B]) *GeometricTensor[B] {
	out := input
	for _, m := range s.modules {
		out = m.Forward(out)
	}
	return out
}

// InType returns the first module's input field type.
func (s *Sequential[B]) InType() *FieldType { return s.modules[0].InType() }

// OutType returns the last module's output field type.
func (s *Sequential[B]) OutType() *FieldType { return s.modules[len(s.modules)-1].OutType() }

// Parameters returns the concatenated parameters of all modules.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Modules returns the contained modules in order. The slice is shared;
// callers must not modify it.
func (s *Sequential[B]) Modules() []Module[B] { return s.modules }

// SetTraining propagates the training flag to every module that carries
// one (currently InnerBatchNorm).
func (s *Sequential[B]) SetTraining(training bool) {
	for _, m := range s.modules {
		if t, ok := m.(interface{ SetTraining(bool) }); ok {
			t.SetTraining(training)
		}
	}
}
