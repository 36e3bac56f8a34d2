package kernel

import (
	"bytes"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steer-ml/steer/internal/group"
)

func TestSupportValidation(t *testing.T) {
	g := group.Cyclic(4)
	in := g.TrivialRepresentation()
	out := g.RegularRepresentation()

	tests := []struct {
		name string
		sup  Support
	}{
		{"even size", Support{Size: 4, Rings: 2, MaxFreq: 2, Sigma: 0.6}},
		{"zero size", Support{Size: 0, Rings: 1, MaxFreq: 2, Sigma: 0.6}},
		{"no rings", Support{Size: 5, Rings: 0, MaxFreq: 2, Sigma: 0.6}},
		{"negative freq", Support{Size: 5, Rings: 3, MaxFreq: -1, Sigma: 0.6}},
		{"bad sigma", Support{Size: 5, Rings: 3, MaxFreq: 2, Sigma: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Solve(in, out, tt.sup)
			assert.Error(t, err)
		})
	}
}

func TestSolveRejectsMixedGroups(t *testing.T) {
	_, err := Solve(group.Cyclic(4).TrivialRepresentation(),
		group.Dihedral(4).TrivialRepresentation(),
		DefaultSupport(3, 2))
	assert.Error(t, err)
}

// Every sampled basis element must satisfy the steerability constraint
// κ(g·x) = ρOut(g)·κ(x)·ρIn(g)ᵀ. For 90°-multiple rotations the rotated
// grid lands exactly on grid points, so the check is exact up to float32
// rounding.
func TestBasisSatisfiesConstraint(t *testing.T) {
	g := group.Cyclic(4)
	pairs := []struct {
		name    string
		in, out *group.Representation
	}{
		{"trivial→trivial", g.TrivialRepresentation(), g.TrivialRepresentation()},
		{"trivial→regular", g.TrivialRepresentation(), g.RegularRepresentation()},
		{"regular→regular", g.RegularRepresentation(), g.RegularRepresentation()},
	}

	sup := DefaultSupport(5, g.MaxFrequency())
	for _, pair := range pairs {
		t.Run(pair.name, func(t *testing.T) {
			basis, err := Solve(pair.in, pair.out, sup)
			require.NoError(t, err)
			require.Greater(t, basis.Dim(), 0)

			for ei := 0; ei < basis.Dim(); ei++ {
				el := basis.Element(ei).AsFloat32()
				for _, e := range g.Elements() {
					checkSteerability(t, el, pair.in, pair.out, e, sup.Size)
				}
			}
		})
	}
}

func TestBasisSatisfiesConstraintDihedral(t *testing.T) {
	g := group.Dihedral(2)
	sup := DefaultSupport(5, g.MaxFrequency())

	basis, err := Solve(g.RegularRepresentation(), g.RegularRepresentation(), sup)
	require.NoError(t, err)
	require.Greater(t, basis.Dim(), 0)

	for ei := 0; ei < basis.Dim(); ei++ {
		el := basis.Element(ei).AsFloat32()
		for _, e := range g.Elements() {
			checkSteerability(t, el, g.RegularRepresentation(), g.RegularRepresentation(), e, sup.Size)
		}
	}
}

// checkSteerability verifies κ(g·x) = ρOut(g)·κ(x)·ρIn(g)ᵀ on grid
// points, for elements whose plane action maps the grid to itself.
func checkSteerability(t *testing.T, el []float32, in, out *group.Representation, e group.Element, size int) {
	t.Helper()
	g := in.Group()

	a := g.PlaneAction(e)
	center := float64(size-1) / 2
	dO, dI := out.Dim(), in.Dim()
	rhoOut := out.Matrix(e)
	rhoIn := in.Matrix(e)

	at := func(o, i, y, x int) float64 {
		return float64(el[((o*dI+i)*size+y)*size+x])
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			// Rotated pixel g·x with the y axis pointing up.
			px := float64(x) - center
			py := center - float64(y)
			gx := a.At(0, 0)*px + a.At(0, 1)*py
			gy := a.At(1, 0)*px + a.At(1, 1)*py

			rx := int(center + gx + 0.5*sign(center+gx))
			ry := int(center - gy + 0.5*sign(center-gy))
			require.InDelta(t, float64(rx), center+gx, 1e-9, "grid not closed under element %d", e)
			require.InDelta(t, float64(ry), center-gy, 1e-9, "grid not closed under element %d", e)

			for o := 0; o < dO; o++ {
				for i := 0; i < dI; i++ {
					var want float64
					for u := 0; u < dO; u++ {
						for v := 0; v < dI; v++ {
							want += rhoOut.At(o, u) * at(u, v, y, x) * rhoIn.At(i, v)
						}
					}
					got := at(o, i, ry, rx)
					assert.InDelta(t, want, got, 1e-4,
						"element %d at pixel (%d,%d) channel (%d,%d)", e, y, x, o, i)
				}
			}
		}
	}
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// The center pixel has no angle, so every basis element carrying a
// nonzero angular frequency must vanish there exactly. Trivial→irrep_1
// admits only frequency-one solutions, making the whole basis a
// witness.
func TestBasisCenterCarriesNoAngularContent(t *testing.T) {
	g := group.Cyclic(4)
	rot, err := g.Irrep("irrep_1")
	require.NoError(t, err)

	sup := DefaultSupport(5, g.MaxFrequency())
	basis, err := Solve(g.TrivialRepresentation(), rot, sup)
	require.NoError(t, err)
	require.Greater(t, basis.Dim(), 0)

	size := sup.Size
	c := size / 2
	for ei := 0; ei < basis.Dim(); ei++ {
		el := basis.Element(ei).AsFloat32()
		for o := 0; o < basis.OutDim(); o++ {
			for i := 0; i < basis.InDim(); i++ {
				v := el[((o*basis.InDim()+i)*size+c)*size+c]
				assert.Zero(t, v, "element %d channel (%d,%d)", ei, o, i)
			}
		}
	}
}

func TestBasisElementsAreNormalized(t *testing.T) {
	g := group.Cyclic(8)
	basis, err := Solve(g.TrivialRepresentation(), g.RegularRepresentation(), DefaultSupport(5, g.MaxFrequency()))
	require.NoError(t, err)

	for i := 0; i < basis.Dim(); i++ {
		var sumSq float64
		for _, v := range basis.Element(i).AsFloat32() {
			sumSq += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, sumSq, 1e-4, "element %d", i)
	}
}

// Trivial→sign of C4 with the frequency cap at 1 admits no equivariant
// kernel: the constraint forces every coefficient to zero. The solver
// must return an empty basis with a warning, not an error.
func TestEmptyBasisWarnsButSucceeds(t *testing.T) {
	g := group.Cyclic(4)
	sign, err := g.Irrep("irrep_2")
	require.NoError(t, err)

	var buf bytes.Buffer
	old := Logger
	Logger = log.New(&buf, "", 0)
	defer func() { Logger = old }()

	basis, err := Solve(g.TrivialRepresentation(), sign, Support{Size: 5, Rings: 3, MaxFreq: 1, Sigma: 0.6})
	require.NoError(t, err)
	assert.Equal(t, 0, basis.Dim())
	assert.Contains(t, buf.String(), "empty kernel basis")
}

func TestCacheIdempotence(t *testing.T) {
	c := NewCache()
	g := group.Cyclic(4)
	sup := DefaultSupport(3, g.MaxFrequency())

	a, err := c.Get(g.TrivialRepresentation(), g.RegularRepresentation(), sup)
	require.NoError(t, err)
	b, err := c.Get(g.TrivialRepresentation(), g.RegularRepresentation(), sup)
	require.NoError(t, err)

	if a != b {
		t.Fatal("cache returned distinct bases for identical requests")
	}
	assert.Equal(t, int64(1), c.Solves())
	assert.Equal(t, 1, c.Len())

	// A different support is a different entry.
	_, err = c.Get(g.TrivialRepresentation(), g.RegularRepresentation(), DefaultSupport(5, g.MaxFrequency()))
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.Solves())
}

func TestCacheSingleFlight(t *testing.T) {
	c := NewCache()
	g := group.Cyclic(8)
	sup := DefaultSupport(5, g.MaxFrequency())

	const workers = 16
	results := make([]*Basis, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := c.Get(g.RegularRepresentation(), g.RegularRepresentation(), sup)
			assert.NoError(t, err)
			results[i] = b
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent gets returned distinct bases")
		}
	}
	assert.Equal(t, int64(1), c.Solves())
}

func TestCacheDoesNotCacheFailures(t *testing.T) {
	c := NewCache()
	g := group.Cyclic(4)
	bad := Support{Size: 4, Rings: 2, MaxFreq: 1, Sigma: 0.6}

	_, err := c.Get(g.TrivialRepresentation(), g.RegularRepresentation(), bad)
	require.Error(t, err)
	_, err = c.Get(g.TrivialRepresentation(), g.RegularRepresentation(), bad)
	require.Error(t, err)

	assert.Equal(t, int64(0), c.Solves())
	assert.Equal(t, 0, c.Len())
}
