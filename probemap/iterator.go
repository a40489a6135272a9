package probemap

// Iterator addresses one slot of a Map. It always rests on an occupied slot
// or on End. Two iterators are equal (==) when they address the same slot
// of the same map.
//
// Iterators are invalidated by Clear and by erasing the slot they address.
type Iterator[K comparable, V any] struct {
	m   *Map[K, V]
	pos int
}

// Valid reports whether the iterator addresses an entry (is not End).
func (it Iterator[K, V]) Valid() bool {
	return it.m != nil && it.pos >= 0 && it.pos < len(it.m.slots)
}

// Key returns the key of the addressed entry. Calling Key on End panics.
func (it Iterator[K, V]) Key() K { return it.m.slots[it.pos].key }

// Value returns a pointer to the mapped value. The pointer stays valid
// until the entry is erased or the map is cleared.
func (it Iterator[K, V]) Value() *V { return &it.m.slots[it.pos].val }

// Next advances to the next occupied slot, stopping at End.
func (it *Iterator[K, V]) Next() {
	if it.pos < len(it.m.slots) {
		it.pos++
	}
	it.forwardToOccupied()
}

// Prev moves back to the previous occupied slot. Moving back from the
// first entry leaves the iterator before the beginning (not Valid).
func (it *Iterator[K, V]) Prev() {
	it.pos--
	for it.pos >= 0 && it.m.slots[it.pos].state != occupied {
		it.pos--
	}
	if it.pos < 0 {
		it.pos = -1
	}
}

// Advance moves n entries forward (n > 0) or -n entries back (n < 0).
func (it *Iterator[K, V]) Advance(n int) {
	for ; n > 0; n-- {
		it.Next()
	}
	for ; n < 0; n++ {
		it.Prev()
	}
}

func (it *Iterator[K, V]) forwardToOccupied() {
	for it.pos < len(it.m.slots) && it.m.slots[it.pos].state != occupied {
		it.pos++
	}
}
