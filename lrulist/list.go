// Package lrulist implements a recency-ordered list over a fixed pool of
// pre-allocated nodes.
//
// Nodes are never allocated or freed after New. Once the pool is full,
// Add recycles the least-recently-used node in place. A node is identified
// by its Ref, an index into the pool that never changes for the life of the
// list, so other structures can hold Refs across any number of Add and
// Touch calls on other nodes.
//
// A List is not safe for concurrent use.
package lrulist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
)

// Ref is the stable identity of a node.
type Ref int32

// Nil is the Ref of no node.
const Nil Ref = -1

// ErrCorrupt is returned by CheckInvariants when the links are inconsistent.
var ErrCorrupt = errors.New("lrulist: corrupt list")

type node[T any] struct {
	val  T
	prev Ref
	next Ref
}

// List orders up to Cap values from most recently used (front) to least
// recently used (back).
type List[T any] struct {
	nodes []node[T]
	first Ref // MRU
	last  Ref // LRU
	size  int

	checked bool
}

// New returns an empty list with a pool of capacity nodes.
// When checked is set, the links are validated after every mutation and a
// violation panics; it is meant for tests and debugging.
func New[T any](capacity int, checked bool) *List[T] {
	if capacity <= 0 {
		panic("lrulist: capacity must be > 0")
	}
	return &List[T]{
		nodes:   make([]node[T], capacity),
		first:   Nil,
		last:    Nil,
		checked: checked,
	}
}

// Len returns the number of linked nodes.
func (l *List[T]) Len() int { return l.size }

// Cap returns the pool size.
func (l *List[T]) Cap() int { return len(l.nodes) }

// Front returns the most recently used node, or Nil.
func (l *List[T]) Front() Ref { return l.first }

// Back returns the least recently used node, or Nil.
func (l *List[T]) Back() Ref { return l.last }

// Value returns a pointer to the value held by r. The pointer is stable
// until r is recycled by Add or the list is cleared.
func (l *List[T]) Value(r Ref) *T { return &l.nodes[r].val }

// Touch moves r to the front. r must be linked into l; touching any other
// Ref is a precondition violation and corrupts the list.
func (l *List[T]) Touch(r Ref) {
	if l.first == r {
		return
	}
	n := &l.nodes[r]
	if l.last == r {
		l.last = n.prev
	}
	if n.next != Nil {
		l.nodes[n.next].prev = n.prev
	}
	if n.prev != Nil {
		l.nodes[n.prev].next = n.next
	}
	n.prev = Nil
	n.next = l.first
	l.nodes[l.first].prev = r
	l.first = r
	l.verify()
}

// Add links v in at the front and returns its node.
//
// While the pool has spare nodes, v takes the next unused one. Otherwise
// the back node is recycled: evict (if non-nil) is called with a pointer
// to the outgoing value, then the value is overwritten with v. evict runs
// synchronously and must not call back into l.
func (l *List[T]) Add(v T, evict func(*T)) Ref {
	var r Ref
	if l.size < len(l.nodes) {
		r = Ref(l.size)
		l.nodes[r].val = v
		l.size++
	} else {
		r = l.last
		n := &l.nodes[r]
		if evict != nil {
			evict(&n.val)
		}
		n.val = v

		l.last = n.prev
		if l.last != Nil {
			l.nodes[l.last].next = Nil
		} else {
			// Single-node pool: the list is momentarily empty.
			l.first = Nil
		}
	}

	n := &l.nodes[r]
	n.prev = Nil
	n.next = l.first
	if l.first != Nil {
		l.nodes[l.first].prev = r
	}
	l.first = r
	if l.last == Nil {
		l.last = r
	}
	l.verify()
	return r
}

// Clear unlinks every node and zeroes the values so that the pool does not
// retain references.
func (l *List[T]) Clear() {
	clear(l.nodes[:l.size])
	l.size = 0
	l.first = Nil
	l.last = Nil
}

// All yields values from most to least recently used.
func (l *List[T]) All() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for r := l.first; r != Nil; r = l.nodes[r].next {
			if !yield(&l.nodes[r].val) {
				return
			}
		}
	}
}

// Backward yields values from least to most recently used.
func (l *List[T]) Backward() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for r := l.last; r != Nil; r = l.nodes[r].prev {
			if !yield(&l.nodes[r].val) {
				return
			}
		}
	}
}

// CheckInvariants validates the head/tail bookkeeping and the prev/next
// links. It returns an error wrapping ErrCorrupt on the first violation.
func (l *List[T]) CheckInvariants() error {
	switch {
	case (l.first == Nil) != (l.size == 0):
		return fmt.Errorf("%w: first=%d but size=%d", ErrCorrupt, l.first, l.size)
	case (l.first == l.last) != (l.size < 2):
		return fmt.Errorf("%w: first=%d last=%d with size=%d", ErrCorrupt, l.first, l.last, l.size)
	case l.first != Nil && l.nodes[l.first].prev != Nil:
		return fmt.Errorf("%w: prev of first node %d is %d", ErrCorrupt, l.first, l.nodes[l.first].prev)
	case l.last != Nil && l.nodes[l.last].next != Nil:
		return fmt.Errorf("%w: next of last node %d is %d", ErrCorrupt, l.last, l.nodes[l.last].next)
	}

	prev, n := Nil, 0
	for r := l.first; r != Nil; r = l.nodes[r].next {
		if n++; n > l.size {
			return fmt.Errorf("%w: more than %d nodes reachable from first", ErrCorrupt, l.size)
		}
		if l.nodes[r].prev != prev {
			return fmt.Errorf("%w: node %d has prev=%d, want %d", ErrCorrupt, r, l.nodes[r].prev, prev)
		}
		prev = r
	}
	if n != l.size {
		return fmt.Errorf("%w: %d nodes reachable, size=%d", ErrCorrupt, n, l.size)
	}
	if l.last != prev {
		return fmt.Errorf("%w: last=%d, walk ended at %d", ErrCorrupt, l.last, prev)
	}
	return nil
}

func (l *List[T]) verify() {
	if !l.checked {
		return
	}
	if err := l.CheckInvariants(); err != nil {
		panic(err)
	}
}

// Dump writes the values from most to least recently used, separated by
// spaces, followed by a newline.
func (l *List[T]) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	sep := ""
	for v := range l.All() {
		fmt.Fprintf(bw, "%s%v", sep, *v)
		sep = " "
	}
	bw.WriteByte('\n')
	return bw.Flush()
}
