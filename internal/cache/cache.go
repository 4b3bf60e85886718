package cache

import (
	"sync"
	"sync/atomic"
)

// Resource is a cached GPU object. ByteSize is charged against the cache
// capacity.
type Resource interface {
	ByteSize() int
}

// Key identifies one version of one resource slot of an owner. Owners mint
// a new Version whenever the data behind their resources changes.
type Key struct {
	Owner   uint64
	Slot    uint8
	Version uint64
}

var lastOwner atomic.Uint64

// NewOwner returns a process-unique owner id. Ids start at 1.
func NewOwner() uint64 { return lastOwner.Add(1) }

type slotKey struct {
	owner uint64
	slot  uint8
}

func (k Key) slot() slotKey { return slotKey{owner: k.Owner, slot: k.Slot} }

// ResourceCache is an LRU cache of GPU resources bounded by total byte
// size. When the size exceeds capacity, least recently used entries are
// evicted until the size falls to 75% of capacity.
//
// Putting a newer version for an owner's slot evicts the previous version
// immediately. Evicted resources are queued rather than released, because
// releasing GPU objects must happen on the render thread; drain the queue
// with ReleaseEvicted.
//
// ResourceCache is safe for concurrent use.
type ResourceCache[V Resource] struct {
	mu       sync.Mutex
	entries  map[Key]*cacheEntry[V]
	current  map[slotKey]Key
	lru      lruList[Key]
	capacity int
	used     int
	evicted  []V

	hits      uint64
	misses    uint64
	evictions uint64
}

type cacheEntry[V Resource] struct {
	value V
	size  int
	node  *lruNode[Key]
}

// New creates a cache holding up to capacity bytes. A capacity of 0 means
// unlimited.
func New[V Resource](capacity int) *ResourceCache[V] {
	return &ResourceCache[V]{
		entries:  make(map[Key]*cacheEntry[V]),
		current:  make(map[slotKey]Key),
		capacity: capacity,
	}
}

// Get retrieves a resource and marks it as recently used.
func (c *ResourceCache[V]) Get(key Key) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.lru.MoveToFront(e.node)
	return e.value, true
}

// Put stores value under key and returns it. A previous value under the same
// key, and any other version of the same owner slot, is evicted. Putting the
// value already stored under key only refreshes its recency.
func (c *ResourceCache[V]) Put(key Key, value V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && any(e.value) == any(value) {
		size := value.ByteSize()
		c.used += size - e.size
		e.size = size
		c.lru.MoveToFront(e.node)
		return value
	}

	if old, ok := c.current[key.slot()]; ok {
		c.removeLocked(old)
	}

	size := value.ByteSize()
	e := &cacheEntry[V]{value: value, size: size, node: c.lru.PushFront(key)}
	c.entries[key] = e
	c.current[key.slot()] = key
	c.used += size

	if c.capacity > 0 && c.used > c.capacity {
		c.evictLocked(c.capacity * 3 / 4)
	}
	return value
}

// Contains reports whether key is cached without touching its recency.
func (c *ResourceCache[V]) Contains(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// ReleaseEvicted calls release for every evicted resource and empties the
// queue. It returns the number of resources released.
func (c *ResourceCache[V]) ReleaseEvicted(release func(V)) int {
	c.mu.Lock()
	queue := c.evicted
	c.evicted = nil
	c.mu.Unlock()

	for _, v := range queue {
		release(v)
	}
	return len(queue)
}

// Clear evicts every entry. The resources are queued for ReleaseEvicted.
func (c *ResourceCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		c.evicted = append(c.evicted, e.value)
	}
	c.evictions += uint64(len(c.entries))
	c.entries = make(map[Key]*cacheEntry[V])
	c.current = make(map[slotKey]Key)
	c.lru.Clear()
	c.used = 0
}

// Len returns the number of cached resources.
func (c *ResourceCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// UsedBytes returns the total size of cached resources.
func (c *ResourceCache[V]) UsedBytes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// Capacity returns the byte capacity.
func (c *ResourceCache[V]) Capacity() int { return c.capacity }

// Stats returns cache statistics.
func (c *ResourceCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Len:       len(c.entries),
		UsedBytes: c.used,
		Capacity:  c.capacity,
		Pending:   len(c.evicted),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// evictLocked removes least recently used entries until used <= target.
// The most recently used entry is never evicted. Caller must hold c.mu.
func (c *ResourceCache[V]) evictLocked(target int) {
	for c.used > target && c.lru.Len() > 1 {
		c.removeLocked(c.lru.Oldest().key)
	}
}

// removeLocked evicts key if present. Caller must hold c.mu.
func (c *ResourceCache[V]) removeLocked(key Key) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	if c.current[key.slot()] == key {
		delete(c.current, key.slot())
	}
	c.lru.Remove(e.node)
	c.used -= e.size
	c.evicted = append(c.evicted, e.value)
	c.evictions++
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// UsedBytes is the total size of the cached resources.
	UsedBytes int
	// Capacity is the byte capacity, 0 when unlimited.
	Capacity int
	// Pending is the number of evicted resources awaiting release.
	Pending int
	// Hits is the number of cache hits.
	Hits uint64
	// Misses is the number of cache misses.
	Misses uint64
	// HitRate is the cache hit rate 0.0 to 1.0.
	HitRate float64
	// Evictions is the number of evicted entries.
	Evictions uint64
}
