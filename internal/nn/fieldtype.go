package nn

import (
	"fmt"
	"strings"

	"github.com/steer-ml/steer/internal/group"
)

// FieldType describes the transformation law of a feature space: an
// ordered list of group representations, one per field, concatenated
// along the channel dimension. A tensor with this field type has
// Size() channels, and a group element acts on each field's channel
// block by the field's representation matrix.
type FieldType struct {
	g       group.Group
	reps    []*group.Representation
	offsets []int
	size    int
}

// NewFieldType creates a field type over a group from an ordered list of
// representations. Panics if the list is empty or any representation
// belongs to a different group.
func NewFieldType(g group.Group, reps []*group.Representation) *FieldType {
	if len(reps) == 0 {
		panic("nn: field type needs at least one representation")
	}

	ft := &FieldType{
		g:       g,
		reps:    append([]*group.Representation{}, reps...),
		offsets: make([]int, len(reps)),
	}
	for i, r := range reps {
		if r.Group().Name() != g.Name() {
			panic(fmt.Sprintf("nn: representation %s does not belong to group %s", r, g.Name()))
		}
		ft.offsets[i] = ft.size
		ft.size += r.Dim()
	}
	return ft
}

// TrivialFields returns a field type of n scalar fields carrying the
// trivial representation. Plain images (grayscale, RGB) are wrapped with
// this type.
func TrivialFields(g group.Group, n int) *FieldType {
	return uniform(g, g.TrivialRepresentation(), n)
}

// RegularFields returns a field type of n fields carrying the regular
// representation, the workhorse type for intermediate layers.
func RegularFields(g group.Group, n int) *FieldType {
	return uniform(g, g.RegularRepresentation(), n)
}

func uniform(g group.Group, rep *group.Representation, n int) *FieldType {
	if n < 1 {
		panic(fmt.Sprintf("nn: field type needs a positive field count, got %d", n))
	}
	reps := make([]*group.Representation, n)
	for i := range reps {
		reps[i] = rep
	}
	return NewFieldType(g, reps)
}

// Group returns the symmetry group.
func (f *FieldType) Group() group.Group { return f.g }

// Size returns the total channel count, the sum of field dimensions.
func (f *FieldType) Size() int { return f.size }

// Fields returns the number of fields.
func (f *FieldType) Fields() int { return len(f.reps) }

// Representation returns the i-th field's representation.
func (f *FieldType) Representation(i int) *group.Representation { return f.reps[i] }

// Representations returns all field representations in order. The slice
// is shared; callers must not modify it.
func (f *FieldType) Representations() []*group.Representation { return f.reps }

// FieldOffset returns the channel offset of the i-th field.
func (f *FieldType) FieldOffset(i int) int { return f.offsets[i] }

// SupportsPointwise reports whether every field's representation acts by
// permutations, the condition for element-wise nonlinearities and inner
// batch normalization to be equivariant.
func (f *FieldType) SupportsPointwise() bool {
	for _, r := range f.reps {
		if !r.SupportsPointwise() {
			return false
		}
	}
	return true
}

// Equal reports whether two field types are over the same group with the
// same ordered representations.
func (f *FieldType) Equal(other *FieldType) bool {
	if other == nil || f.g.Name() != other.g.Name() || len(f.reps) != len(other.reps) {
		return false
	}
	for i, r := range f.reps {
		if !r.Equal(other.reps[i]) {
			return false
		}
	}
	return true
}

// String returns a compact description like "C8:[regular×16]".
func (f *FieldType) String() string {
	var parts []string
	i := 0
	for i < len(f.reps) {
		j := i
		for j < len(f.reps) && f.reps[j].Equal(f.reps[i]) {
			j++
		}
		if j-i > 1 {
			parts = append(parts, fmt.Sprintf("%s×%d", f.reps[i].Name(), j-i))
		} else {
			parts = append(parts, f.reps[i].Name())
		}
		i = j
	}
	return f.g.Name() + ":[" + strings.Join(parts, ",") + "]"
}
