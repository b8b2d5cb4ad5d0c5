// Package cache provides caching utilities for modelpipe
package cache

import (
	"container/list"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"
)

// LRU implements a thread-safe LRU cache with generics
type LRU[K comparable, V any] struct {
	mu       sync.RWMutex
	capacity int
	items    map[K]*list.Element
	order    *list.List

	// Stats
	hits   atomic.Int64
	misses atomic.Int64
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// NewLRU creates a new LRU cache with the specified capacity
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	return &LRU[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element),
		order:    list.New(),
	}
}

// Get retrieves a value from the cache, returning (value, true) if found
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	c.hits.Add(1)
	c.order.MoveToFront(elem)
	return elem.Value.(*entry[K, V]).value, true
}

// Put adds or updates a value in the cache
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Update existing entry
	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*entry[K, V]).value = value
		return
	}

	// Evict oldest if at capacity
	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			delete(c.items, oldest.Value.(*entry[K, V]).key)
			c.order.Remove(oldest)
		}
	}

	// Add new entry
	elem := c.order.PushFront(&entry[K, V]{key: key, value: value})
	c.items[key] = elem
}

// Delete removes a key from the cache
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		delete(c.items, key)
		c.order.Remove(elem)
	}
}

// Len returns the current number of items in the cache
func (c *LRU[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all items from the cache
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element)
	c.order = list.New()
}

// Stats returns cache hit/miss statistics
func (c *LRU[K, V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// HitRate returns the cache hit rate as a percentage
func (c *LRU[K, V]) HitRate() float64 {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// ResultCache memoizes per-file computation results keyed on file identity.
// A key covers path, size and modification time, so any change to the file
// invalidates its entry. A nil ResultCache is valid and caches nothing.
type ResultCache[V any] struct {
	cache *LRU[string, V]
}

// NewResultCache creates a result cache with the specified capacity.
// Capacity zero or less disables caching by returning nil.
func NewResultCache[V any](capacity int) *ResultCache[V] {
	if capacity <= 0 {
		return nil
	}
	return &ResultCache[V]{
		cache: NewLRU[string, V](capacity),
	}
}

// Get retrieves the result cached for the file's current identity
func (c *ResultCache[V]) Get(path string, info fs.FileInfo) (V, bool) {
	if c == nil {
		var zero V
		return zero, false
	}
	return c.cache.Get(fileKey(path, info))
}

// Put stores a result under the file's current identity
func (c *ResultCache[V]) Put(path string, info fs.FileInfo, value V) {
	if c == nil {
		return
	}
	c.cache.Put(fileKey(path, info), value)
}

// Stats returns cache statistics
func (c *ResultCache[V]) Stats() (hits, misses int64, hitRate float64) {
	if c == nil {
		return 0, 0, 0
	}
	hits, misses = c.cache.Stats()
	hitRate = c.cache.HitRate()
	return
}

// fileKey builds a cache key from the file's path and stat identity
func fileKey(path string, info fs.FileInfo) string {
	return fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
}
