package cache

import (
	"context"
	"log/slog"
)

// Options configures a Cache or Sharded. Zero values are safe;
// defaults are applied in New/NewFunc/NewSharded:
//   - nil Hash      => util.Hash (xxhash for strings, byte arrays and integers)
//   - nil KeyEqual  => ==
//   - nil Metrics   => NoopMetrics
//   - nil Logger    => discard
//   - Shards <= 0   => auto (Sharded only)
type Options[K comparable, V any] struct {
	// Capacity is the fixed number of entries. It must be a power of two.
	Capacity int

	// Hash and KeyEqual replace the default key hash and equality.
	// They must agree: equal keys must hash equally.
	Hash     func(K) uint64
	KeyEqual func(a, b K) bool

	// OnEvict is called synchronously for every entry pushed out by Set.
	// It must not call back into the cache. Clear does not call it.
	OnEvict func(k K, v V)

	// Metrics receives Hit/Miss/Evict/Size signals.
	Metrics Metrics

	// Logger receives debug records for evictions.
	Logger *slog.Logger

	// CheckInvariants validates the list links and the list/map agreement
	// after every mutation and panics on a violation. Intended for tests.
	CheckInvariants bool

	// Shards is the number of shards used by NewSharded. It is rounded up
	// to a power of two and reduced until every shard holds at least one
	// entry. 0 picks a value from GOMAXPROCS.
	Shards int

	// Loader fetches a value on a miss in Sharded.GetOrLoad.
	Loader func(ctx context.Context, k K) (V, error)
}
