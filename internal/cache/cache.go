package cache

import "sync"

// Cache is a map-backed create-if-absent container.
//
// Cache is safe for concurrent use.
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]V
	stats   Stats
}

// New creates an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]V),
	}
}

// Get retrieves a value from the cache.
// Returns (value, true) if found, (zero, false) otherwise.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries[key]
	return v, ok
}

// Set stores a value, replacing any existing entry.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = value
}

// GetOrCreate returns the cached value or creates it.
// create is called under lock to prevent duplicate creation. A failed
// creation is not cached.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.entries[key]; ok {
		c.stats.Hits++
		return v, nil
	}
	c.stats.Misses++

	v, err := create()
	if err != nil {
		c.stats.Failures++
		var zero V
		return zero, err
	}
	c.entries[key] = v
	c.stats.Creations++
	return v, nil
}

// Delete removes an entry from the cache.
// Returns true if the entry was found and removed.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		return true
	}
	return false
}

// Clear removes all entries, passing each value to release (may be nil).
func (c *Cache[K, V]) Clear(release func(V)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if release != nil {
		for _, v := range c.entries {
			release(v)
		}
	}
	c.entries = make(map[K]V)
}

// Range calls fn for every entry until fn returns false.
// fn runs under the cache lock and must not call back into the cache.
func (c *Cache[K, V]) Range(fn func(K, V) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range c.entries {
		if !fn(k, v) {
			return
		}
	}
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.stats
	st.Len = len(c.entries)
	return st
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the size of the key domain (Slots only).
	Capacity int
	// Hits counts lookups that found an existing value.
	Hits uint64
	// Misses counts lookups that had to call the factory.
	Misses uint64
	// Creations counts successful factory calls.
	Creations uint64
	// Failures counts factory calls that returned an error.
	Failures uint64
}

// Lookups returns Hits + Misses.
func (s Stats) Lookups() uint64 { return s.Hits + s.Misses }
