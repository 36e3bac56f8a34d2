package group

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// The registry memoizes constructed groups process-wide. Groups are
// immutable once built and shared by reference; the single-flight
// discipline ensures concurrent requests for the same group trigger
// exactly one construction (irrep decompositions are not cheap).
var registry = struct {
	mu     sync.RWMutex
	groups map[string]Group
	flight singleflight.Group
}{groups: make(map[string]Group)}

// Build constructs (or returns the cached) group for a spec string:
//
//	"C1", "C4", "C8", ... — N-fold cyclic rotation groups
//	"D1", "D4", "D8", ... — N-fold dihedral rotation-reflection groups
//
// Returns an error for unknown or malformed specs.
func Build(spec string) (Group, error) {
	if g := lookup(spec); g != nil {
		return g, nil
	}

	v, err, _ := registry.flight.Do(spec, func() (any, error) {
		if g := lookup(spec); g != nil {
			return g, nil
		}
		g, err := parse(spec)
		if err != nil {
			return nil, err
		}
		registry.mu.Lock()
		registry.groups[spec] = g
		registry.mu.Unlock()
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Group), nil
}

// Cyclic returns the memoized cyclic group C_N.
// Panics if n < 1; use Build for error-returning construction.
func Cyclic(n int) *CyclicGroup {
	g, err := Build(fmt.Sprintf("C%d", n))
	if err != nil {
		panic(err)
	}
	return g.(*CyclicGroup)
}

// Dihedral returns the memoized dihedral group D_N.
// Panics if n < 1; use Build for error-returning construction.
func Dihedral(n int) *DihedralGroup {
	g, err := Build(fmt.Sprintf("D%d", n))
	if err != nil {
		panic(err)
	}
	return g.(*DihedralGroup)
}

func lookup(spec string) Group {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.groups[spec]
}

func parse(spec string) (Group, error) {
	if len(spec) < 2 {
		return nil, fmt.Errorf("group: invalid group spec %q", spec)
	}
	n, err := strconv.Atoi(spec[1:])
	if err != nil || n < 1 {
		return nil, fmt.Errorf("group: invalid group order in spec %q", spec)
	}

	switch strings.ToUpper(spec[:1]) {
	case "C":
		return newCyclic(n), nil
	case "D":
		return newDihedral(n), nil
	default:
		return nil, fmt.Errorf("group: unknown group family in spec %q", spec)
	}
}
