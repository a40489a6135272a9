// Package probemap implements a fixed-capacity open-addressing hash map.
//
// All slots are allocated once by New; inserting, erasing and clearing
// never allocate. Collisions are resolved with a triangular probe sequence
// (pos, pos+1, pos+3, pos+6, …) which visits every slot exactly once when
// the capacity is a power of two. Erased slots become tombstones so that
// probe chains running through them stay intact.
//
// A Map is not safe for concurrent use.
package probemap

import (
	"iter"

	"github.com/IvanBrykalov/fixedlru/internal/util"
)

type state uint8

// The zero state is unused so a freshly allocated slot array is empty.
const (
	unused state = iota
	tombstone
	occupied
)

type slot[K comparable, V any] struct {
	state state
	key   K
	val   V
}

// Option customizes a Map at construction.
type Option[K comparable] func(*config[K])

type config[K comparable] struct {
	hash  func(K) uint64
	equal func(a, b K) bool
}

// WithHasher replaces the default key hash (util.Hash).
func WithHasher[K comparable](h func(K) uint64) Option[K] {
	return func(c *config[K]) { c.hash = h }
}

// WithKeyEqual replaces the default key equality (==).
func WithKeyEqual[K comparable](eq func(a, b K) bool) Option[K] {
	return func(c *config[K]) { c.equal = eq }
}

// Map is an in-place unordered hash map with a fixed number of slots.
type Map[K comparable, V any] struct {
	slots      []slot[K, V]
	mask       uint64
	size       int
	tombstones int
	hash       func(K) uint64
	equal      func(a, b K) bool
}

// New returns an empty map with capacity slots.
// It panics unless capacity is a positive power of two.
func New[K comparable, V any](capacity int, opts ...Option[K]) *Map[K, V] {
	util.MustPowerOfTwo("probemap: capacity", capacity)

	cfg := config[K]{hash: util.Hash[K]}
	for _, o := range opts {
		o(&cfg)
	}
	return &Map[K, V]{
		slots: make([]slot[K, V], capacity),
		mask:  uint64(capacity - 1),
		hash:  cfg.hash,
		equal: cfg.equal,
	}
}

// Len returns the number of occupied slots.
func (m *Map[K, V]) Len() int { return m.size }

// Cap returns the fixed number of slots.
func (m *Map[K, V]) Cap() int { return len(m.slots) }

// Empty reports whether the map holds no entries.
func (m *Map[K, V]) Empty() bool { return m.size == 0 }

// Tombstones returns the number of erased slots not yet reused.
func (m *Map[K, V]) Tombstones() int { return m.tombstones }

// Begin returns an iterator to the first occupied slot, or End.
func (m *Map[K, V]) Begin() Iterator[K, V] {
	it := Iterator[K, V]{m: m, pos: 0}
	it.forwardToOccupied()
	return it
}

// End returns the past-the-end iterator. Failed lookups and failed
// insertions return End.
func (m *Map[K, V]) End() Iterator[K, V] {
	return Iterator[K, V]{m: m, pos: len(m.slots)}
}

// Find returns an iterator to the entry for k, or End if k is absent.
func (m *Map[K, V]) Find(k K) Iterator[K, V] {
	i := m.lookupSlot(k)
	if i < 0 || m.slots[i].state != occupied {
		return m.End()
	}
	return Iterator[K, V]{m: m, pos: i}
}

// Get returns a copy of the value stored for k.
func (m *Map[K, V]) Get(k K) (V, bool) {
	if it := m.Find(k); it.Valid() {
		return *it.Value(), true
	}
	var zero V
	return zero, false
}

// TryEmplace inserts k→v if k is absent. If k is already present the
// existing entry is returned unchanged with inserted == false. If no slot
// is available it returns (End(), false).
func (m *Map[K, V]) TryEmplace(k K, v V) (it Iterator[K, V], inserted bool) {
	i := m.findInsertSlot(k)
	if i < 0 {
		return m.End(), false
	}
	s := &m.slots[i]
	if s.state == occupied {
		return Iterator[K, V]{m: m, pos: i}, false
	}
	m.occupy(s, k, v)
	return Iterator[K, V]{m: m, pos: i}, true
}

// Insert inserts k→v if k is absent; see TryEmplace.
func (m *Map[K, V]) Insert(k K, v V) (Iterator[K, V], bool) {
	return m.TryEmplace(k, v)
}

// InsertOrAssign inserts k→v, or overwrites the value if k is present
// (inserted == false in that case). A full map returns (End(), false).
func (m *Map[K, V]) InsertOrAssign(k K, v V) (it Iterator[K, V], inserted bool) {
	i := m.findInsertSlot(k)
	if i < 0 {
		return m.End(), false
	}
	s := &m.slots[i]
	if s.state == occupied {
		s.val = v
		return Iterator[K, V]{m: m, pos: i}, false
	}
	m.occupy(s, k, v)
	return Iterator[K, V]{m: m, pos: i}, true
}

// Erase removes the entry at it and returns an iterator to the next
// occupied slot. Erasing a non-occupied slot does nothing. When the last
// entry is erased every tombstone is reset to unused.
//
// it must have been obtained from m; an iterator from another map is a
// precondition violation.
func (m *Map[K, V]) Erase(it Iterator[K, V]) Iterator[K, V] {
	next := it
	next.Next()
	if it.pos < 0 || it.pos >= len(m.slots) {
		return next
	}
	s := &m.slots[it.pos]
	if s.state != occupied {
		return next
	}
	var (
		zk K
		zv V
	)
	s.key, s.val = zk, zv
	s.state = tombstone
	m.size--
	m.tombstones++
	if m.size == 0 {
		m.Clear()
		return m.End()
	}
	return next
}

// Clear removes every entry and resets all slots to unused.
func (m *Map[K, V]) Clear() {
	clear(m.slots)
	m.size = 0
	m.tombstones = 0
}

// All yields every entry in slot order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i := range m.slots {
			s := &m.slots[i]
			if s.state == occupied && !yield(s.key, s.val) {
				return
			}
		}
	}
}

func (m *Map[K, V]) occupy(s *slot[K, V], k K, v V) {
	if s.state == tombstone {
		m.tombstones--
	}
	s.key, s.val = k, v
	s.state = occupied
	m.size++
}

func (m *Map[K, V]) keyEqual(a, b K) bool {
	if m.equal != nil {
		return m.equal(a, b)
	}
	return a == b
}

// lookupSlot walks the probe sequence for k. It returns the matching
// occupied slot, the first unused slot, or -1 once every slot has been
// visited.
func (m *Map[K, V]) lookupSlot(k K) int {
	pos := m.hash(k) & m.mask
	for step := uint64(1); step <= uint64(len(m.slots)); step++ {
		s := &m.slots[pos]
		switch s.state {
		case unused:
			return int(pos)
		case occupied:
			if m.keyEqual(s.key, k) {
				return int(pos)
			}
		}
		pos = (pos + step) & m.mask
	}
	return -1
}

// findInsertSlot is lookupSlot that remembers the first tombstone seen.
// A match wins; otherwise the first tombstone is preferred over an unused
// slot further down the chain, keeping future probe chains short.
func (m *Map[K, V]) findInsertSlot(k K) int {
	pos := m.hash(k) & m.mask
	firstTombstone := -1
	for step := uint64(1); step <= uint64(len(m.slots)); step++ {
		s := &m.slots[pos]
		switch s.state {
		case tombstone:
			if firstTombstone < 0 {
				firstTombstone = int(pos)
			}
		case occupied:
			if m.keyEqual(s.key, k) {
				return int(pos)
			}
		case unused:
			if firstTombstone >= 0 {
				return firstTombstone
			}
			return int(pos)
		}
		pos = (pos + step) & m.mask
	}
	return firstTombstone
}
