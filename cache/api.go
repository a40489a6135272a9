package cache

import "iter"

// Interface is the surface shared by Cache (single owner, no locking) and
// Sharded (safe for concurrent use).
type Interface[K comparable, V any] interface {
	// Get returns a copy of the value for k and a presence flag.
	// On hit, the entry becomes the most recently used one.
	Get(k K) (V, bool)

	// Set inserts or updates k→v and makes it the most recently used
	// entry, evicting the least recently used entry when full. It returns
	// true only if k was already cached with an equal value, in which case
	// nothing was written.
	Set(k K, v V) bool

	// Len returns the number of resident entries.
	Len() int

	// Cap returns the fixed entry capacity.
	Cap() int

	// Clear removes every entry without reporting evictions.
	Clear()

	// All yields resident entries. For Cache the order is most to least
	// recently used; Sharded yields shard by shard.
	All() iter.Seq2[K, V]
}

var (
	_ Interface[string, int] = (*Cache[string, int])(nil)
	_ Interface[string, int] = (*Sharded[string, int])(nil)
)
