// Package cache provides the create-if-absent containers that hold GPU state
// objects.
//
// Two shapes are offered:
//
// # Slots[V]
//
// A fixed-size arena indexed by a small dense key (a stencil reference byte,
// a bit index). Lookups are an index plus a mutex.
//
//	states := cache.NewSlots[hal.RenderPipeline](256)
//	p, err := states.GetOrCreate(ref, func() (hal.RenderPipeline, error) { ... })
//
// # Cache[K, V]
//
// A map-backed variant for sparse keys (render-target descriptors, texture
// names).
//
// Both share the same contract: a value is created at most once per key, a
// failed creation stores nothing so the next request retries, and creation
// runs under the container's lock.
//
// # Thread Safety
//
// Slots and Cache are safe for concurrent use.
// Neither should be copied after creation (they contain mutexes).
package cache
