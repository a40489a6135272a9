package probemap

import (
	"bufio"
	"fmt"
	"io"
)

// Dump writes one line per slot: "*" for unused, "†" for a tombstone and
// "> key=value" for an occupied slot. It is a debugging aid; the format is
// not stable.
func (m *Map[K, V]) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "size=%d tombstones=%d\n", m.size, m.tombstones)
	for i := range m.slots {
		s := &m.slots[i]
		fmt.Fprintf(bw, "[%d] ", i)
		switch s.state {
		case unused:
			bw.WriteString("*")
		case tombstone:
			bw.WriteString("†")
		case occupied:
			fmt.Fprintf(bw, "> %v=%v", s.key, s.val)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
