package slotpool

import (
	"fmt"

	"go.uber.org/multierr"
)

// Validate walks both lists and reports every broken structural invariant of the pool:
// each slot is on exactly one list, the used list is an acyclic chain whose prev links
// mirror its next links, and the list sizes match the in-use flags.
// A nil return means the pool is consistent. Validate is O(capacity) and meant for tests and tooling.
func (p *Pool[T]) Validate() error {
	var err error
	owner := make([]StateIndex, len(p.slots))
	seen := make([]bool, len(p.slots))

	walk := func(stateType StateIndex, name string) uint32 {
		visited := uint32(0)
		prev := InvalidIndex
		for next := p.states[stateType].head; next != InvalidIndex; next = p.slots[next].node.next {
			if next < 0 || int(next) >= len(p.slots) {
				err = multierr.Append(err, fmt.Errorf("%s list links to out of range slot %d", name, next))
				break
			}
			if seen[next] {
				if owner[next] == stateType {
					err = multierr.Append(err, fmt.Errorf("%s list has a cycle at slot %d", name, next))
				} else {
					err = multierr.Append(err, fmt.Errorf("slot %d is on both lists", next))
				}
				break
			}
			seen[next] = true
			owner[next] = stateType

			s := &p.slots[next]
			if s.index != next {
				err = multierr.Append(err, fmt.Errorf("slot at position %d carries index %d", next, s.index))
			}
			if stateType == stateUsed {
				if !s.inUse {
					err = multierr.Append(err, fmt.Errorf("used list holds free slot %d", next))
				}
				if s.node.prev != prev {
					err = multierr.Append(err, fmt.Errorf("slot %d has prev %d, expected %d", next, s.node.prev, prev))
				}
			} else if s.inUse {
				err = multierr.Append(err, fmt.Errorf("free list holds used slot %d", next))
			}
			prev = next
			visited++
		}

		if visited != p.states[stateType].size {
			err = multierr.Append(err, fmt.Errorf("%s list has %d slots, size is %d", name, visited, p.states[stateType].size))
		}
		return visited
	}

	used := walk(stateUsed, "used")
	free := walk(stateFree, "free")
	if int(used+free) != len(p.slots) {
		err = multierr.Append(err, fmt.Errorf("lists cover %d of %d slots", used+free, len(p.slots)))
	}

	inUse := uint32(0)
	for i := range p.slots {
		if p.slots[i].inUse {
			inUse++
		}
	}
	if inUse != p.states[stateUsed].size {
		err = multierr.Append(err, fmt.Errorf("%d slots in use, size is %d", inUse, p.states[stateUsed].size))
	}

	return err
}
