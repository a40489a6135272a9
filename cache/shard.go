package cache

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/IvanBrykalov/fixedlru/internal/singleflight"
	"github.com/IvanBrykalov/fixedlru/internal/util"
)

// ErrNoLoader is returned by GetOrLoad when no Loader was configured in Options.
var ErrNoLoader = errors.New("cache: no Loader provided")

// Stats is a snapshot of Sharded counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
}

// shard is one independently locked Cache.
type shard[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu sync.Mutex
	c  *Cache[K, V]

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_        util.CacheLinePad
	hits     util.PaddedAtomicUint64
	misses   util.PaddedAtomicUint64
	evicts   util.PaddedAtomicUint64
	resident util.PaddedAtomicInt64
}

// Sharded splits the capacity across a power-of-two number of Caches, each
// behind its own mutex. All methods are safe for concurrent use.
//
// LRU order is per shard: with more than one shard, the entry evicted by a
// Set is the least recently used one of the key's shard.
type Sharded[K comparable, V any] struct {
	shards []*shard[K, V]
	hash   func(K) uint64
	opt    Options[K, V]

	total util.PaddedAtomicInt64

	// coalesces concurrent loads in GetOrLoad.
	sf singleflight.Group[K, V]
}

// NewSharded constructs a sharded cache for comparable values.
// opt.Capacity must be a power of two.
func NewSharded[K comparable, V comparable](opt Options[K, V]) *Sharded[K, V] {
	return NewShardedFunc(opt, func(a, b V) bool { return a == b })
}

// NewShardedFunc is NewSharded with a caller-supplied value equality.
func NewShardedFunc[K comparable, V any](opt Options[K, V], eq func(a, b V) bool) *Sharded[K, V] {
	util.MustPowerOfTwo("Capacity", opt.Capacity)
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Hash == nil {
		opt.Hash = util.Hash[K]
	}

	want := opt.Shards
	if want <= 0 {
		want = util.ReasonableShardCount()
	}
	n, perShard := util.SplitCapacity(opt.Capacity, want)

	s := &Sharded[K, V]{
		shards: make([]*shard[K, V], n),
		hash:   opt.Hash,
		opt:    opt,
	}
	for i := range s.shards {
		sh := &shard[K, V]{}
		inner := opt
		inner.Capacity = perShard
		inner.Metrics = shardMetrics[K, V]{s: s, sh: sh}
		sh.c = NewFunc(inner, eq)
		s.shards[i] = sh
	}
	return s
}

// Get returns a copy of the value for k and promotes it within its shard.
func (s *Sharded[K, V]) Get(k K) (V, bool) {
	sh := s.getShard(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.c.Get(k)
}

// Set inserts or updates k→v; see Cache.Set.
func (s *Sharded[K, V]) Set(k K, v V) bool {
	sh := s.getShard(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.c.Set(k, v)
}

// Len returns the total number of resident entries across all shards.
func (s *Sharded[K, V]) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		total += sh.c.Len()
		sh.mu.Unlock()
	}
	return total
}

// Cap returns the total capacity across all shards.
func (s *Sharded[K, V]) Cap() int {
	return len(s.shards) * s.shards[0].c.Cap()
}

// Shards returns the effective number of shards.
func (s *Sharded[K, V]) Shards() int { return len(s.shards) }

// Clear drops every entry in every shard. OnEvict is not called.
func (s *Sharded[K, V]) Clear() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.c.Clear()
		sh.mu.Unlock()
	}
}

// All yields a snapshot of each shard in turn, most to least recently used
// within a shard. The shard lock is not held while yielding.
func (s *Sharded[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, sh := range s.shards {
			sh.mu.Lock()
			snap := make([]entry[K, V], 0, sh.c.Len())
			for k, v := range sh.c.All() {
				snap = append(snap, entry[K, V]{key: k, val: v})
			}
			sh.mu.Unlock()

			for _, e := range snap {
				if !yield(e.key, e.val) {
					return
				}
			}
		}
	}
}

// Stats returns hit/miss/eviction counters summed over all shards.
func (s *Sharded[K, V]) Stats() Stats {
	var st Stats
	for _, sh := range s.shards {
		st.Hits += sh.hits.Load()
		st.Misses += sh.misses.Load()
		st.Evictions += sh.evicts.Load()
	}
	st.Entries = int(s.total.Load())
	return st
}

// GetOrLoad returns the value for k; on miss it loads via Options.Loader,
// coalescing concurrent loads for the same key (singleflight).
// If no Loader is configured, returns ErrNoLoader.
func (s *Sharded[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	if v, ok := s.Get(k); ok {
		return v, nil
	}
	if s.opt.Loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	return s.sf.Do(ctx, k, func() (V, error) {
		// double-check after flight join
		if v, ok := s.Get(k); ok {
			return v, nil
		}
		v, err := s.opt.Loader(ctx, k)
		if err == nil {
			s.Set(k, v)
		}
		return v, err
	})
}

// CheckInvariants checks every shard; see Cache.CheckInvariants.
func (s *Sharded[K, V]) CheckInvariants() error {
	for _, sh := range s.shards {
		sh.mu.Lock()
		err := sh.c.CheckInvariants()
		sh.mu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// getShard picks a shard from the mixed key hash. Mixing keeps the shard
// choice independent of the low bits each shard's index probes with.
func (s *Sharded[K, V]) getShard(k K) *shard[K, V] {
	return s.shards[util.ShardIndex(util.Mix64(s.hash(k)), len(s.shards))]
}

// shardMetrics counts per shard and forwards to the user's Metrics.
// Size is reported as the cache-wide total.
type shardMetrics[K comparable, V any] struct {
	s  *Sharded[K, V]
	sh *shard[K, V]
}

func (m shardMetrics[K, V]) Hit() {
	m.sh.hits.Add(1)
	m.s.opt.Metrics.Hit()
}

func (m shardMetrics[K, V]) Miss() {
	m.sh.misses.Add(1)
	m.s.opt.Metrics.Miss()
}

func (m shardMetrics[K, V]) Evict() {
	m.sh.evicts.Add(1)
	m.s.opt.Metrics.Evict()
}

func (m shardMetrics[K, V]) Size(entries int) {
	old := m.sh.resident.Swap(int64(entries))
	m.s.opt.Metrics.Size(int(m.s.total.Add(int64(entries) - old)))
}
