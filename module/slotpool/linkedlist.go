package slotpool

// StateIndex is a type of a state of a slot in a pool.
type StateIndex uint

const numberOfStates = 2
const ( // iota is reset to 0
	stateFree StateIndex = iota
	stateUsed
)

// link represents a slice-based doubly linked-list node that
// consists of a next and previous slot index.
//
// A used slot links to its used neighbours, a free slot links to the next free slot.
// The free list never reads prev.
type link struct {
	next SlotIndex
	prev SlotIndex
}

// state represents a linked-list by its head slot index and its length.
// Both lists are head-inserted, so no tail is tracked.
type state struct {
	head SlotIndex
	size uint32
}

// pushHead makes the slot at index the new head of the given state.
// NOTE: slot must not be in any list before this method is applied.
func (p *Pool[T]) pushHead(stateType StateIndex, index SlotIndex) {
	s := &p.states[stateType]
	n := &p.slots[index].node

	n.prev = InvalidIndex
	n.next = s.head
	if stateType == stateUsed && s.head != InvalidIndex {
		p.slots[s.head].node.prev = index
	}
	s.head = index
	s.size++
}

// popFreeHead detaches the head of the free list and returns its index.
// NOTE: the free list must not be empty.
func (p *Pool[T]) popFreeHead() SlotIndex {
	s := &p.states[stateFree]
	index := s.head
	n := &p.slots[index].node

	s.head = n.next
	s.size--
	n.next = InvalidIndex
	n.prev = InvalidIndex
	return index
}

// unlinkUsed removes the slot at index from the used list, reconnecting its neighbours.
// NOTE: slot must be in the used list.
func (p *Pool[T]) unlinkUsed(index SlotIndex) {
	s := &p.states[stateUsed]
	n := &p.slots[index].node

	if s.head == index {
		// moves head forward
		s.head = n.next
	}
	if n.next != InvalidIndex {
		p.slots[n.next].node.prev = n.prev
	}
	if n.prev != InvalidIndex {
		p.slots[n.prev].node.next = n.next
	}
	s.size--
	n.next = InvalidIndex
	n.prev = InvalidIndex
}

// changeState moves the slot at index from one state to the head of the other.
func (p *Pool[T]) changeState(stateFrom StateIndex, stateTo StateIndex, index SlotIndex) {
	if p.states[stateFrom].size == 0 {
		panic("removing a slot from an empty list")
	}

	if stateFrom == stateUsed {
		p.unlinkUsed(index)
	} else {
		// free slots are only ever taken from the head
		if p.states[stateFree].head != index {
			panic("free slot taken out of order")
		}
		p.popFreeHead()
	}

	p.pushHead(stateTo, index)
}
