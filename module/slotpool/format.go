package slotpool

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteTo writes a debugging dump of the used list to w, head to tail, one element per line.
// The output format is not stable.
func (p *Pool[T]) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: bufio.NewWriter(w)}

	if p.Empty() {
		fmt.Fprintln(cw, "<empty>")
	} else {
		// positions count down so the head carries the highest one
		pos := int(p.Size()) - 1
		for next := p.states[stateUsed].head; next != InvalidIndex; next = p.slots[next].node.next {
			s := &p.slots[next]
			fmt.Fprintf(cw, "%d elem=%v n.next=%d n.prev=%d\n", pos, s.value, s.node.next, s.node.prev)
			pos--
		}
	}

	if cw.err != nil {
		return cw.n, cw.err
	}
	return cw.n, cw.w.Flush()
}

func (p *Pool[T]) String() string {
	var b strings.Builder
	_, _ = p.WriteTo(&b)
	return b.String()
}

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(b []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(b)
	c.n += int64(n)
	c.err = err
	return n, err
}
