// Package cache provides the render resource cache.
//
// # ResourceCache[V]
//
// A byte-budgeted LRU cache keyed by owner, slot and version. Owners (shapes)
// mint a new version whenever their geometry changes; storing the new
// version evicts the old one at once, so superseded GPU buffers never wait
// for LRU pressure.
//
//	c := cache.New[*gpu.BufferObject](64 << 20)
//	key := cache.Key{Owner: id, Slot: 0, Version: v}
//	if _, ok := c.Get(key); !ok {
//	    c.Put(key, gpu.NewVertexBuffer(vertices))
//	}
//	// at frame end, on the render thread:
//	c.ReleaseEvicted(func(b *gpu.BufferObject) { b.Release() })
//
// # Eviction
//
// When the total ByteSize of cached resources exceeds the capacity, least
// recently used entries are evicted until 75% of the capacity remains. The
// entry just stored is never evicted by its own Put.
package cache
