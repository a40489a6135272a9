package probemap

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identity makes slot positions predictable: key k starts probing at k&mask.
func identity(k int) uint64 { return uint64(k) }

func newIdentity[V any](capacity int) *Map[int, V] {
	return New[int, V](capacity, WithHasher(identity))
}

func keys[K comparable, V any](m *Map[K, V]) []K {
	var out []K
	for k := range m.All() {
		out = append(out, k)
	}
	return out
}

func TestMap_Empty(t *testing.T) {
	t.Parallel()

	m := New[int, string](8)
	assert.Equal(t, 0, m.Len())
	assert.True(t, m.Empty())
	assert.Equal(t, 8, m.Cap())
	assert.Equal(t, m.End(), m.Begin())
	assert.Equal(t, m.End(), m.Find(1))
}

func TestMap_NewRejectsBadCapacity(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { New[int, int](0) })
	assert.Panics(t, func() { New[int, int](6) })
}

func TestMap_Insert(t *testing.T) {
	t.Parallel()

	m := New[int, string](8)
	for i, name := range []string{"one", "two", "three"} {
		it, inserted := m.Insert(i+1, name)
		require.True(t, inserted)
		assert.Equal(t, i+1, it.Key())
		assert.Equal(t, name, *it.Value())
		assert.Equal(t, i+1, m.Len())
	}
	assert.False(t, m.Empty())

	v, ok := m.Get(2)
	assert.True(t, ok)
	assert.Equal(t, "two", v)
}

func TestMap_TryEmplaceKeepsExisting(t *testing.T) {
	t.Parallel()

	m := New[int, string](8)
	first, inserted := m.TryEmplace(23, "23")
	require.True(t, inserted)

	again, inserted := m.TryEmplace(23, "twenty three")
	assert.False(t, inserted)
	assert.Equal(t, first, again, "duplicate must address the existing slot")
	assert.Equal(t, "23", *again.Value())
	assert.Equal(t, 1, m.Len())
}

func TestMap_InsertOrAssign(t *testing.T) {
	t.Parallel()

	m := New[int, string](8)
	it, inserted := m.InsertOrAssign(10, "ten")
	require.True(t, inserted)
	assert.Equal(t, "ten", *it.Value())

	it, inserted = m.InsertOrAssign(10, "ten ten")
	assert.False(t, inserted)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, "ten ten", *it.Value())
	assert.Equal(t, "ten ten", *m.Find(10).Value())
}

func TestMap_EraseLastCompacts(t *testing.T) {
	t.Parallel()

	m := New[int, string](8)
	it, _ := m.Insert(10, "ten")
	next := m.Erase(it)

	assert.Equal(t, m.End(), next)
	assert.Equal(t, 0, m.Len())
	assert.True(t, m.Empty())
	assert.Equal(t, 0, m.Tombstones(), "emptying the map resets tombstones")
	assert.Equal(t, m.End(), m.Find(10))
}

func TestMap_EraseTwiceIsNoop(t *testing.T) {
	t.Parallel()

	m := newIdentity[int](8)
	m.Insert(1, 1)
	it, _ := m.Insert(2, 2)
	m.Erase(it)
	require.Equal(t, 1, m.Tombstones())

	m.Erase(it)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, m.Tombstones())
	m.Erase(m.End())
	assert.Equal(t, 1, m.Len())
}

// Keys 1, 9 and 17 share the home slot 1 and chain through slots 1, 2, 4.
func TestMap_ProbeThroughTombstone(t *testing.T) {
	t.Parallel()

	m := newIdentity[string](8)
	m.Insert(1, "a")
	it9, _ := m.Insert(9, "b")
	m.Insert(17, "c")
	require.Equal(t, []int{1, 9, 17}, keys(m))

	m.Erase(it9)
	assert.Equal(t, 1, m.Tombstones())
	assert.Equal(t, m.End(), m.Find(9))
	found := m.Find(17)
	require.True(t, found.Valid(), "lookup must continue past a tombstone")
	assert.Equal(t, "c", *found.Value())

	// The new colliding key reuses the first tombstone (slot 2), not slot 7.
	m.Insert(25, "d")
	assert.Equal(t, 0, m.Tombstones())
	assert.Equal(t, []int{1, 25, 17}, keys(m))
}

func TestMap_InsertOrAssignFindsKeyBeyondTombstone(t *testing.T) {
	t.Parallel()

	m := newIdentity[string](8)
	m.Insert(1, "a")
	it9, _ := m.Insert(9, "b")
	m.Insert(17, "c")
	m.Erase(it9)

	_, inserted := m.InsertOrAssign(17, "C")
	assert.False(t, inserted, "existing key past the tombstone must be updated, not duplicated")
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 1, m.Tombstones())
	v, _ := m.Get(17)
	assert.Equal(t, "C", v)
}

func TestMap_Full(t *testing.T) {
	t.Parallel()

	m := newIdentity[int](8)
	for k := 0; k < 8; k++ {
		_, inserted := m.Insert(k, k*10)
		require.True(t, inserted)
	}

	it, inserted := m.TryEmplace(100, 0)
	assert.False(t, inserted)
	assert.Equal(t, m.End(), it)

	it, inserted = m.InsertOrAssign(100, 0)
	assert.False(t, inserted)
	assert.Equal(t, m.End(), it)

	assert.Equal(t, m.End(), m.Find(100), "a full table sweep without a match is a miss")
	assert.Equal(t, 8, m.Len())

	// Existing keys can still be reassigned.
	_, inserted = m.InsertOrAssign(3, 33)
	assert.False(t, inserted)
	v, _ := m.Get(3)
	assert.Equal(t, 33, v)
}

func TestMap_FullWithTombstoneReusesIt(t *testing.T) {
	t.Parallel()

	m := newIdentity[int](8)
	for k := 0; k < 8; k++ {
		m.Insert(k, k)
	}
	m.Erase(m.Find(5))

	// No unused slot remains; the sweep ends on the remembered tombstone.
	it, inserted := m.Insert(13, 13)
	require.True(t, inserted)
	assert.Equal(t, 13, it.Key())
	assert.Equal(t, 8, m.Len())
	assert.Equal(t, 0, m.Tombstones())
	assert.Equal(t, m.End(), m.Find(5))
}

// Fill the table, erase every other key, refill with new keys: the
// occupied count must match the live keys and no lookup may be confused
// by stale tombstones.
func TestMap_TombstoneScenario(t *testing.T) {
	t.Parallel()

	const capacity = 16
	m := New[string, int](capacity)
	for i := 0; i < capacity; i++ {
		_, ok := m.Insert("k"+strconv.Itoa(i), i)
		require.True(t, ok)
	}
	for i := 0; i < capacity; i += 2 {
		m.Erase(m.Find("k" + strconv.Itoa(i)))
	}
	require.Equal(t, capacity/2, m.Len())
	require.Equal(t, capacity/2, m.Tombstones())

	for i := 0; i < capacity/2; i++ {
		_, ok := m.Insert("n"+strconv.Itoa(i), 100+i)
		require.True(t, ok, "insert n%d", i)
	}

	assert.Equal(t, capacity, m.Len())
	assert.Equal(t, 0, m.Tombstones())
	for i := 0; i < capacity; i++ {
		v, ok := m.Get("k" + strconv.Itoa(i))
		if i%2 == 0 {
			assert.False(t, ok, "k%d was erased", i)
			continue
		}
		assert.True(t, ok, "k%d", i)
		assert.Equal(t, i, v)
	}
	for i := 0; i < capacity/2; i++ {
		v, ok := m.Get("n" + strconv.Itoa(i))
		assert.True(t, ok)
		assert.Equal(t, 100+i, v)
	}
}

func TestMap_Clear(t *testing.T) {
	t.Parallel()

	m := newIdentity[int](8)
	for k := 0; k < 5; k++ {
		m.Insert(k, k)
	}
	m.Erase(m.Find(2))
	m.Clear()

	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, m.Tombstones())
	assert.Empty(t, keys(m))
	_, ok := m.Insert(2, 2)
	assert.True(t, ok)
}

func TestMap_Iteration(t *testing.T) {
	t.Parallel()

	m := newIdentity[string](16)
	for _, k := range []int{9, 2, 14, 5} {
		m.Insert(k, strconv.Itoa(k))
	}

	var fwd []int
	for it := m.Begin(); it != m.End(); it.Next() {
		fwd = append(fwd, it.Key())
	}
	assert.Equal(t, []int{2, 5, 9, 14}, fwd)

	var back []int
	it := m.End()
	for it.Prev(); it.Valid(); it.Prev() {
		back = append(back, it.Key())
	}
	assert.Equal(t, []int{14, 9, 5, 2}, back)

	it = m.Begin()
	it.Advance(2)
	assert.Equal(t, 9, it.Key())
	it.Advance(-1)
	assert.Equal(t, 5, it.Key())
	it.Advance(10)
	assert.Equal(t, m.End(), it)
}

func TestMap_EraseWhileIterating(t *testing.T) {
	t.Parallel()

	m := newIdentity[int](16)
	for k := 0; k < 10; k++ {
		m.Insert(k, k)
	}
	for it := m.Begin(); it != m.End(); {
		if it.Key()%2 == 1 {
			it = m.Erase(it)
			continue
		}
		it.Next()
	}
	assert.Equal(t, []int{0, 2, 4, 6, 8}, keys(m))
}

func TestMap_AllStopsEarly(t *testing.T) {
	t.Parallel()

	m := New[int, int](8)
	for k := 0; k < 6; k++ {
		m.Insert(k, k)
	}
	n := 0
	for range m.All() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestMap_CustomKeyEqual(t *testing.T) {
	t.Parallel()

	fold := func(s string) uint64 {
		var h uint64
		for _, c := range strings.ToLower(s) {
			h = h*31 + uint64(c)
		}
		return h
	}
	m := New[string, int](8, WithHasher(fold), WithKeyEqual(strings.EqualFold))

	m.Insert("Hello", 1)
	_, inserted := m.Insert("HELLO", 2)
	assert.False(t, inserted)
	v, ok := m.Get("hello")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestMap_Dump(t *testing.T) {
	t.Parallel()

	m := newIdentity[string](4)
	m.Insert(1, "one")
	it, _ := m.Insert(2, "two")
	m.Insert(3, "three")
	m.Erase(it)

	var buf bytes.Buffer
	require.NoError(t, m.Dump(&buf))
	assert.Equal(t,
		"size=2 tombstones=1\n[0] *\n[1] > 1=one\n[2] †\n[3] > 3=three\n",
		buf.String())
}
