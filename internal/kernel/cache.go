package kernel

import (
	"log"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/steer-ml/steer/internal/group"
)

// Logger receives diagnostics such as empty-basis warnings. Swap it to
// redirect or silence them.
var Logger = log.New(os.Stderr, "steer/kernel: ", log.LstdFlags)

// Cache memoizes kernel basis solves. Concurrent requests for the same
// basis are collapsed into a single solve; every caller receives the
// same *Basis pointer. Failed solves are never cached, so a later call
// with the same arguments retries.
type Cache struct {
	mu     sync.RWMutex
	bases  map[string]*Basis
	flight singleflight.Group
	solves atomic.Int64
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{bases: make(map[string]*Basis)}
}

// Get returns the cached basis for the representation pair and support,
// solving it on first request.
func (c *Cache) Get(in, out *group.Representation, sup Support) (*Basis, error) {
	key := cacheKey(in, out, sup)

	c.mu.RLock()
	b := c.bases[key]
	c.mu.RUnlock()
	if b != nil {
		return b, nil
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		c.mu.RLock()
		b := c.bases[key]
		c.mu.RUnlock()
		if b != nil {
			return b, nil
		}

		b, err := Solve(in, out, sup)
		if err != nil {
			return nil, err
		}
		c.solves.Add(1)

		c.mu.Lock()
		c.bases[key] = b
		c.mu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Basis), nil
}

// Solves returns the number of solves actually performed, as opposed to
// cache hits.
func (c *Cache) Solves() int64 { return c.solves.Load() }

// Len returns the number of cached bases.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bases)
}

func cacheKey(in, out *group.Representation, sup Support) string {
	return in.Group().Name() + "|" + in.Name() + "|" + out.Name() + "|" + sup.String()
}

// defaultCache backs the package-level Get; convolution layers share it
// so identical layers in one process solve each basis once.
var defaultCache = NewCache()

// Get returns the basis for the representation pair and support from the
// shared process-wide cache.
func Get(in, out *group.Representation, sup Support) (*Basis, error) {
	return defaultCache.Get(in, out, sup)
}

// DefaultCache exposes the shared cache, mainly for inspection in tests.
func DefaultCache() *Cache { return defaultCache }
