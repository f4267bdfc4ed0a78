// Package cache implements the bounded, strict-LRU decoded-object cache
// (C4). It is intentionally built on container/list rather than a
// third-party cache: ristretto (wired elsewhere, see the ODB metadata
// cache) is a sampled-admission TinyLFU cache with approximate recency
// and no hard per-object-cap rejection, so it cannot honor this
// component's exact eviction-count and strict-LRU invariants.
package cache

import (
	"container/list"
	"sync"

	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int
	Bytes     int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns Hits/(Hits+Misses), or 0 if there have been no lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type entry struct {
	key   oid.OID
	value []byte
}

// Cache is a bounded, thread-safe, strict-LRU byte cache keyed by OID.
type Cache struct {
	maxBytes     int64
	maxEntries   int
	maxPerObject int64

	mu        sync.RWMutex
	ll        *list.List
	index     map[oid.OID]*list.Element
	bytes     int64
	hits      uint64
	misses    uint64
	evictions uint64
}

// New returns a Cache bounded by total bytes, entry count, and
// per-object size. Objects larger than maxPerObject are never cached
// (Put is then a no-op), so a single huge blob cannot evict many small
// ones.
func New(maxBytes int64, maxEntries int, maxPerObject int64) *Cache {
	return &Cache{
		maxBytes:     maxBytes,
		maxEntries:   maxEntries,
		maxPerObject: maxPerObject,
		ll:           list.New(),
		index:        make(map[oid.OID]*list.Element),
	}
}

// Get returns the cached bytes for key, updating recency on a hit.
func (c *Cache) Get(key oid.OID) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.ll.MoveToFront(el)
	c.hits++
	e := el.Value.(*entry)
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true
}

// Put inserts or replaces key's bytes, evicting least-recently-used
// entries as needed to satisfy the byte and count bounds. Values larger
// than the per-object cap are rejected silently (not an error: the ODB
// simply stores without caching).
func (c *Cache) Put(key oid.OID, value []byte) {
	size := int64(len(value))
	if c.maxPerObject > 0 && size > c.maxPerObject {
		return
	}
	cp := make([]byte, len(value))
	copy(cp, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		old := el.Value.(*entry)
		c.bytes -= int64(len(old.value))
		old.value = cp
		c.bytes += size
		c.ll.MoveToFront(el)
		c.evictToFit()
		return
	}

	el := c.ll.PushFront(&entry{key: key, value: cp})
	c.index[key] = el
	c.bytes += size
	c.evictToFit()
}

// evictToFit must be called with c.mu held.
func (c *Cache) evictToFit() {
	for (c.maxEntries > 0 && c.ll.Len() > c.maxEntries) ||
		(c.maxBytes > 0 && c.bytes > c.maxBytes) {
		back := c.ll.Back()
		if back == nil {
			return
		}
		c.removeElement(back)
		c.evictions++
	}
}

// removeElement must be called with c.mu held.
func (c *Cache) removeElement(el *list.Element) {
	e := el.Value.(*entry)
	c.ll.Remove(el)
	delete(c.index, e.key)
	c.bytes -= int64(len(e.value))
}

// Remove evicts key if present, without affecting the eviction counter
// (an explicit remove is not an LRU eviction).
func (c *Cache) Remove(key oid.OID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.removeElement(el)
	}
}

// Clear empties the cache without affecting hit/miss/eviction counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.index = make(map[oid.OID]*list.Element)
	c.bytes = 0
}

// Stats returns a snapshot of the cache's current counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Entries:   c.ll.Len(),
		Bytes:     c.bytes,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
