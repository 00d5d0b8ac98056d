package resilience

import (
	"sync"
)

// defaultCacheSize bounds the memo cache. The same (character, instant) pair
// recurs once per dungeon during an edge-building pass, so even a modest cache
// collapses most of the repeated work.
const defaultCacheSize = 65536

// node is a single entry in the eviction list.
type node struct {
	key   string
	level int
	next  *node
}

// levelCache memoizes computed resilience levels keyed by (character, instant).
//
// For bounded mode (maxSize > 0) it keeps a linked list with LIFO eviction;
// for unbounded mode (maxSize < 0) it is a plain map with no eviction.
type levelCache struct {
	mu      sync.RWMutex
	entries map[string]*node
	head    *node
	maxSize int
}

func newLevelCache(maxSize int) *levelCache {
	return &levelCache{
		entries: make(map[string]*node),
		maxSize: maxSize,
	}
}

// get returns the memoized level for key, if present.
func (c *levelCache) get(key string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	return n.level, true
}

// put records a computed level. When the bounded cache is full, the most
// recently added entry is evicted first; older entries belong to characters
// seen across many rosters and are more likely to recur.
func (c *levelCache) put(key string, level int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		n.level = level
		return
	}

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictLIFO()
	}

	n := &node{key: key, level: level, next: c.head}
	c.head = n
	c.entries[key] = n
}

// evictLIFO removes the most recently added entry.
func (c *levelCache) evictLIFO() {
	if c.head == nil {
		return
	}
	evicted := c.head
	c.head = evicted.next
	delete(c.entries, evicted.key)
}

// size returns the current number of memoized entries.
func (c *levelCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
