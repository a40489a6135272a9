// Package cache provides a fixed-capacity, allocation-free LRU cache and a
// sharded, concurrency-safe wrapper around it.
//
// Design
//
//   - Storage: a Cache is two fixed-size structures built once by New.
//     A recency list (package lrulist) owns the key/value pairs in a pool of
//     Capacity nodes ordered MRU→LRU. An open-addressing index (package
//     probemap) maps each key to the Ref of its node. Nothing is allocated
//     per entry; when full, Set recycles the LRU node in place.
//
//   - Consistency: on eviction the list calls back into the cache, which
//     erases the outgoing key from the index before the node is reused.
//     After every Set the list and the index hold the same keys. Set
//     Options.CheckInvariants to verify this after each mutation.
//
//   - Capacity: fixed and a power of two (the index uses a triangular probe
//     sequence, which covers every slot only for power-of-two sizes).
//
//   - Concurrency: Cache has no locking. Sharded splits the capacity over a
//     power-of-two number of Caches, each behind its own mutex, and adds
//     GetOrLoad with singleflight coalescing.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     NoopMetrics is the default; metrics/prom exports them to Prometheus.
//
// Basic usage
//
//	c := cache.New[string, int](cache.Options[string, int]{Capacity: 1024})
//	c.Set("a", 1)           // false: new entry
//	c.Set("a", 1)           // true: already cached with an equal value
//	if p, ok := c.Find("a"); ok {
//	    *p++ // in-place update, entry is now MRU
//	}
//
// Concurrent use
//
//	s := cache.NewShardedFunc(cache.Options[string, []byte]{
//	    Capacity: 1 << 16,
//	    Loader: func(ctx context.Context, k string) ([]byte, error) {
//	        return fetch(ctx, k)
//	    },
//	}, bytes.Equal)
//	v, err := s.GetOrLoad(ctx, "key")
//
// Complexity
//
// Find and Set are O(1) expected and O(Capacity) worst case (a full probe
// sweep of the index).
package cache
