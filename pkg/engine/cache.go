package engine

import (
	"hash/fnv"
	"sync"

	"github.com/yourusername/reversi/internal/positionid"
)

// DefaultCacheSize is the default number of cached static evaluations
const DefaultCacheSize = 1 << 16

// CacheEntry stores a cached static evaluation
type CacheEntry struct {
	Key         positionid.PositionKey
	EvalContext uint32 // Evaluator identity
	Value       int
}

// EvalCache is a thread-safe static evaluation cache.
// Uses a two-way associative layout with MurmurHash3-based indexing.
// Only depth-0 evaluations are stored; search values depend on the window and
// are never cached.
type EvalCache struct {
	entries  []cacheNode
	size     uint32
	hashMask uint32

	// Statistics
	lookups uint64
	hits    uint64
	adds    uint64

	mu sync.Mutex
}

// cacheNode holds primary and secondary entries for two-way associative cache
type cacheNode struct {
	primary   CacheEntry
	secondary CacheEntry
}

// NewEvalCache creates a new evaluation cache with the given size.
// Size will be adjusted up to a power of 2 (minimum 2).
func NewEvalCache(size uint32) *EvalCache {
	if size > 1<<30 {
		size = 1 << 30
	}

	p := uint32(2)
	for p < size {
		p <<= 1
	}
	size = p

	cache := &EvalCache{
		entries:  make([]cacheNode, size/2),
		size:     size,
		hashMask: (size / 2) - 1,
	}

	cache.Flush()
	return cache
}

// Flush clears all entries from the cache
func (c *EvalCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Size 0 never matches a real board
	var invalid positionid.PositionKey
	for i := range c.entries {
		c.entries[i].primary.Key = invalid
		c.entries[i].secondary.Key = invalid
	}
	c.lookups = 0
	c.hits = 0
	c.adds = 0
}

// hash computes the slot for a key using MurmurHash3-style mixing
func (c *EvalCache) hash(key positionid.PositionKey, evalContext uint32) uint32 {
	const c1 = 0xcc9e2d51
	const c2 = 0x1b873593

	mix := func(h, k uint32) uint32 {
		k *= c1
		k = (k << 15) | (k >> 17)
		k *= c2
		h ^= k
		h = (h << 13) | (h >> 19)
		return h*5 + 0xe6546b64
	}

	h := mix(0, uint32(key.Size))
	words := (int(key.Size)*int(key.Size) + 15) / 16
	for _, k := range key.Data[:words] {
		h = mix(h, k)
	}
	h = mix(h, evalContext)

	// Finalization
	h ^= uint32(words * 4)
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16

	return h & c.hashMask
}

// Lookup returns the cached value for a board under an evaluator context.
func (c *EvalCache) Lookup(key positionid.PositionKey, evalContext uint32) (int, bool) {
	slot := c.hash(key, evalContext)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookups++
	node := &c.entries[slot]

	if node.primary.Key == key && node.primary.EvalContext == evalContext {
		c.hits++
		return node.primary.Value, true
	}
	if node.secondary.Key == key && node.secondary.EvalContext == evalContext {
		c.hits++
		return node.secondary.Value, true
	}
	return 0, false
}

// Add stores a value, demoting the slot's primary entry to secondary.
func (c *EvalCache) Add(key positionid.PositionKey, evalContext uint32, value int) {
	slot := c.hash(key, evalContext)

	c.mu.Lock()
	defer c.mu.Unlock()

	node := &c.entries[slot]
	node.secondary = node.primary
	node.primary = CacheEntry{Key: key, EvalContext: evalContext, Value: value}

	c.adds++
}

// Stats returns cache statistics
func (c *EvalCache) Stats() (lookups, hits, adds uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookups, c.hits, c.adds
}

// HitRate returns the cache hit rate as a percentage
func (c *EvalCache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lookups == 0 {
		return 0
	}
	return float64(c.hits) / float64(c.lookups) * 100
}

// evalContextFor derives a cache context from an evaluator name
func evalContextFor(name string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return h.Sum32()
}
