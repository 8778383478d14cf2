package resolver

import (
	"sync"
)

// Bundlers ask for the same import path from the same importer many times over
// the course of a build, and long-lived processes see the same requests across
// rebuilds. This remembers every answer, including "unresolved" and errors,
// until "Invalidate" is called.
type Cache struct {
	resolver *Resolver

	mutex   sync.RWMutex
	entries map[cacheKey]cacheEntry

	// Bumped by "Invalidate" so that answers computed before a change are not
	// stored after it
	generation uint64
}

var _ Interface = (*Cache)(nil)

type cacheKey struct {
	importPath string
	importer   string
}

type cacheEntry struct {
	result *ResolveResult
	err    error
}

func NewCache(resolver *Resolver) *Cache {
	return &Cache{
		resolver: resolver,
		entries:  make(map[cacheKey]cacheEntry),
	}
}

func (c *Cache) Resolve(importPath string, importer string) (*ResolveResult, error) {
	key := cacheKey{importPath: importPath, importer: importer}

	c.mutex.RLock()
	entry, ok := c.entries[key]
	generation := c.generation
	c.mutex.RUnlock()

	if !ok {
		// Two goroutines may race to fill the same entry. That's fine since they
		// will compute the same answer.
		result, err := c.resolver.Resolve(importPath, importer)
		entry = cacheEntry{result: result, err: err}
		c.mutex.Lock()
		if c.generation == generation {
			c.entries[key] = entry
		}
		c.mutex.Unlock()
	}

	// Hand out copies so that callers can't corrupt the cache
	if entry.result != nil {
		clone := *entry.result
		return &clone, entry.err
	}
	return nil, entry.err
}

// Drops every remembered answer along with the file system's directory
// listings. The listings go first: a lookup that runs in between must not
// store an answer computed from the old listings.
func (c *Cache) Invalidate() {
	c.resolver.fs.ResetCache()

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.generation++
	c.entries = make(map[cacheKey]cacheEntry)
}

func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}
