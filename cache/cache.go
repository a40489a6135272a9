package cache

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/IvanBrykalov/fixedlru/internal/util"
	"github.com/IvanBrykalov/fixedlru/lrulist"
	"github.com/IvanBrykalov/fixedlru/probemap"
)

// ErrInconsistent is returned by CheckInvariants when the recency list and
// the index disagree on membership.
var ErrInconsistent = errors.New("cache: list and index disagree")

// Cache is a fixed-capacity LRU cache that never allocates after New.
//
// The recency list owns the key/value pairs; the index maps each key to the
// list node holding it. Both are sized to Capacity, and the list always
// evicts before the index could overflow.
//
// Cache is not safe for concurrent use. Serialize access externally or use
// Sharded.
type Cache[K comparable, V any] struct {
	list  *lrulist.List[entry[K, V]]
	index *probemap.Map[K, lrulist.Ref]

	valueEq func(a, b V) bool
	evictFn func(*entry[K, V])

	opt Options[K, V]
	log *slog.Logger
}

// New constructs a cache whose values are compared with ==.
// It panics unless opt.Capacity is a positive power of two.
func New[K comparable, V comparable](opt Options[K, V]) *Cache[K, V] {
	return NewFunc(opt, func(a, b V) bool { return a == b })
}

// NewFunc constructs a cache for value types without ==. eq decides whether
// Set may skip a write because the cached value is already equal.
func NewFunc[K comparable, V any](opt Options[K, V], eq func(a, b V) bool) *Cache[K, V] {
	util.MustPowerOfTwo("Capacity", opt.Capacity)
	if eq == nil {
		panic("cache: nil value equality")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.DiscardHandler)
	}

	var mopts []probemap.Option[K]
	if opt.Hash != nil {
		mopts = append(mopts, probemap.WithHasher(opt.Hash))
	}
	if opt.KeyEqual != nil {
		mopts = append(mopts, probemap.WithKeyEqual(opt.KeyEqual))
	}

	c := &Cache[K, V]{
		list:    lrulist.New[entry[K, V]](opt.Capacity, opt.CheckInvariants),
		index:   probemap.New[K, lrulist.Ref](opt.Capacity, mopts...),
		valueEq: eq,
		opt:     opt,
		log:     opt.Logger,
	}
	// Bind once so Set does not allocate a closure per call.
	c.evictFn = c.evict
	return c
}

// Find returns a pointer to the cached value for k and promotes the entry to
// most recently used. The pointer is valid until the entry is evicted or the
// cache is cleared; writes through it bypass Set's equality check.
func (c *Cache[K, V]) Find(k K) (*V, bool) {
	it := c.index.Find(k)
	if it == c.index.End() {
		c.opt.Metrics.Miss()
		return nil, false
	}
	r := *it.Value()
	c.list.Touch(r)
	c.opt.Metrics.Hit()
	return &c.list.Value(r).val, true
}

// Get returns a copy of the value for k; see Find.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	if p, ok := c.Find(k); ok {
		return *p, true
	}
	var zero V
	return zero, false
}

// Peek returns a pointer to the cached value without touching recency order
// or metrics.
func (c *Cache[K, V]) Peek(k K) (*V, bool) {
	it := c.index.Find(k)
	if !it.Valid() {
		return nil, false
	}
	return &c.list.Value(*it.Value()).val, true
}

// Set inserts or updates k→v and promotes it to most recently used.
//
// It returns true only when k was already cached with a value equal to v;
// the stored value is left untouched in that case. A new key or a changed
// value returns false. Inserting into a full cache first evicts the least
// recently used entry.
func (c *Cache[K, V]) Set(k K, v V) bool {
	if it := c.index.Find(k); it.Valid() {
		r := *it.Value()
		c.list.Touch(r)
		e := c.list.Value(r)
		if c.valueEq(e.val, v) {
			c.verify()
			return true
		}
		e.val = v
		c.verify()
		return false
	}

	r := c.list.Add(entry[K, V]{key: k, val: v}, c.evictFn)
	if _, inserted := c.index.Insert(k, r); !inserted {
		// Unreachable while list and index share a capacity: the list
		// has just freed an index slot if it was full.
		panic(fmt.Sprintf("cache: index rejected key %v with %d/%d entries", k, c.index.Len(), c.index.Cap()))
	}
	c.opt.Metrics.Size(c.list.Len())
	c.verify()
	return false
}

// evict runs inside list.Add just before e is overwritten.
func (c *Cache[K, V]) evict(e *entry[K, V]) {
	if it := c.index.Find(e.key); it.Valid() {
		c.index.Erase(it)
	}
	c.opt.Metrics.Evict()
	if c.log.Enabled(context.Background(), slog.LevelDebug) {
		c.log.Debug("cache: evicted", slog.Any("key", e.key))
	}
	if cb := c.opt.OnEvict; cb != nil {
		cb(e.key, e.val)
	}
}

// Len returns the number of resident entries.
func (c *Cache[K, V]) Len() int { return c.list.Len() }

// Cap returns the fixed capacity.
func (c *Cache[K, V]) Cap() int { return c.list.Cap() }

// Clear drops every entry. OnEvict is not called.
func (c *Cache[K, V]) Clear() {
	c.list.Clear()
	c.index.Clear()
	c.opt.Metrics.Size(0)
}

// All yields entries from most to least recently used without touching them.
func (c *Cache[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for e := range c.list.All() {
			if !yield(e.key, e.val) {
				return
			}
		}
	}
}

// CheckInvariants reports whether the list links are sound, the list and
// index hold the same number of entries, and every index entry points at a
// node storing the same key.
func (c *Cache[K, V]) CheckInvariants() error {
	if err := c.list.CheckInvariants(); err != nil {
		return err
	}
	if c.list.Len() != c.index.Len() {
		return fmt.Errorf("%w: list has %d entries, index has %d", ErrInconsistent, c.list.Len(), c.index.Len())
	}
	for k, r := range c.index.All() {
		if got := c.list.Value(r).key; !c.keyEqual(got, k) {
			return fmt.Errorf("%w: key %v points at node %d holding %v", ErrInconsistent, k, r, got)
		}
	}
	return nil
}

// Dump writes the recency order followed by the index slots. It is a
// debugging aid; the format is not stable.
func (c *Cache[K, V]) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "len=%d cap=%d\nrecency:", c.Len(), c.Cap())
	for k, v := range c.All() {
		fmt.Fprintf(bw, " %v=%v", k, v)
	}
	bw.WriteString("\nindex:\n")
	if err := bw.Flush(); err != nil {
		return err
	}
	return c.index.Dump(w)
}

func (c *Cache[K, V]) keyEqual(a, b K) bool {
	if c.opt.KeyEqual != nil {
		return c.opt.KeyEqual(a, b)
	}
	return a == b
}

func (c *Cache[K, V]) verify() {
	if !c.opt.CheckInvariants {
		return
	}
	if err := c.CheckInvariants(); err != nil {
		panic(err)
	}
}
