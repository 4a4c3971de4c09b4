package slotpool

import (
	"fmt"
	"iter"
)

// SlotIndex is data type representing a slot index in Pool.
type SlotIndex int32

// InvalidIndex is used when a link doesnt point anywhere, in other words it is an equivalent of a nil address.
const InvalidIndex SlotIndex = -1

// slot is one fixed storage cell of the pool.
type slot[T any] struct {
	// value holds the element while the slot is in use, and the zero value of T otherwise.
	value T

	// index is the position of this slot in the pool; assigned once at construction.
	index SlotIndex

	// generation is bumped every time the slot is handed out, so that handles
	// outliving an erase can be told apart from handles to the slot's new element.
	generation uint32

	inUse bool

	// node keeps the link to the previous and next slots.
	// When this slot is in use, the node links it to the next and previous used slots.
	// When this slot is free, node.next links it to the next free slot.
	node link
}

// Pool is a fixed-capacity linked container that never allocates after construction.
//
// Elements live in a slice of slots allocated once by New. Every slot is either in the
// used list (holding an element) or the free list (available for reuse). Both lists are
// linked through slot indices, so an element never moves: a handle to an element stays
// valid until that element is erased, regardless of other insertions and removals.
//
// Emplace puts the new element at the head of the used list, hence iteration visits the
// most recently inserted element first. Erase puts the freed slot at the head of the free
// list, hence the most recently freed slot is the next one reused.
//
// Pool is not safe for concurrent use.
type Pool[T any] struct {
	states [numberOfStates]state // keeps track of the free and used lists
	slots  []slot[T]
}

// New returns a pool of the given capacity. The capacity never changes.
func New[T any](capacity uint32) *Pool[T] {
	p := &Pool[T]{
		slots: make([]slot[T], capacity),
	}

	p.initFreeSlots()

	return p
}

// initFreeSlots chains all slots into the free list in index order, and leaves the used list empty.
func (p *Pool[T]) initFreeSlots() {
	for i := range p.slots {
		p.slots[i].index = SlotIndex(i)
		p.slots[i].node.next = SlotIndex(i + 1)
		p.slots[i].node.prev = InvalidIndex
	}

	p.states[stateUsed] = state{head: InvalidIndex}
	p.states[stateFree] = state{head: InvalidIndex}
	if len(p.slots) == 0 {
		return
	}

	p.slots[len(p.slots)-1].node.next = InvalidIndex
	p.states[stateFree] = state{head: 0, size: uint32(len(p.slots))}
}

// Emplace stores value into a free slot and makes it the head of the pool.
//
// Expected errors during normal operations:
//   - *CapacityExceededError if every slot is in use; the pool is left untouched.
func (p *Pool[T]) Emplace(value T) (Handle[T], error) {
	return p.EmplaceFunc(func(v *T) { *v = value })
}

// EmplaceFunc constructs a new element in place: init receives a pointer to the storage
// of a free slot, holding the zero value of T. The storage never moves afterwards.
//
// Expected errors during normal operations:
//   - *CapacityExceededError if every slot is in use; the pool is left untouched and init is not called.
//
// If init panics, the slot is reset and stays free; the panic is propagated.
func (p *Pool[T]) EmplaceFunc(init func(*T)) (Handle[T], error) {
	if p.states[stateFree].size == 0 {
		return p.End(), NewCapacityExceededError(p.MaxSize())
	}

	index := p.states[stateFree].head
	s := &p.slots[index]

	// a panicking init must not leave a half-built value in a free slot
	constructed := false
	defer func() {
		if !constructed {
			var zero T
			s.value = zero
		}
	}()
	init(&s.value)
	constructed = true

	s.inUse = true
	s.generation++
	p.changeState(stateFree, stateUsed, index)

	return p.handle(index), nil
}

// MustEmplace is Emplace for callers that treat a full pool as a bug.
// It panics with an irrecoverable exception if every slot is in use.
func (p *Pool[T]) MustEmplace(value T) Handle[T] {
	h, err := p.Emplace(value)
	if err != nil {
		fault(fmt.Errorf("could not emplace: %w", err))
	}
	return h
}

// Erase removes the element referenced by h and returns its slot to the free list.
// Erase always returns the end sentinel, not the element following h.
//
// Expected errors during normal operations:
//   - *InvalidHandleError if h does not reference a live element of this pool; the pool is left untouched.
func (p *Pool[T]) Erase(h Handle[T]) (Handle[T], error) {
	if err := p.check(h); err != nil {
		return p.End(), err
	}

	s := &p.slots[h.index]
	var zero T
	s.value = zero
	s.inUse = false
	p.changeState(stateUsed, stateFree, h.index)

	return p.End(), nil
}

// MustErase is Erase for callers that treat an invalid handle as a bug.
// It panics with an irrecoverable exception if h does not reference a live element of this pool.
func (p *Pool[T]) MustErase(h Handle[T]) Handle[T] {
	end, err := p.Erase(h)
	if err != nil {
		fault(fmt.Errorf("could not erase: %w", err))
	}
	return end
}

// Begin returns a handle to the most recently inserted element, or the end sentinel if the pool is empty.
func (p *Pool[T]) Begin() Handle[T] {
	return p.handle(p.states[stateUsed].head)
}

// End returns the end sentinel.
func (p *Pool[T]) End() Handle[T] {
	return Handle[T]{index: InvalidIndex}
}

// All returns an iterator over the slot index and value of every element, most recent first.
func (p *Pool[T]) All() iter.Seq2[SlotIndex, T] {
	return func(yield func(SlotIndex, T) bool) {
		for next := p.states[stateUsed].head; next != InvalidIndex; next = p.slots[next].node.next {
			if !yield(next, p.slots[next].value) {
				return
			}
		}
	}
}

// Size returns total number of elements that this pool maintains.
func (p *Pool[T]) Size() uint32 {
	return p.states[stateUsed].size
}

// Empty returns true if the pool holds no elements.
func (p *Pool[T]) Empty() bool {
	return p.states[stateUsed].size == 0
}

// MaxSize returns the fixed capacity of the pool.
func (p *Pool[T]) MaxSize() uint32 {
	return uint32(len(p.slots))
}

// Release drops every element and the backing storage. Afterwards the pool is an empty
// pool of zero capacity and every outstanding handle is invalid.
func (p *Pool[T]) Release() {
	for i := range p.slots {
		if p.slots[i].inUse {
			var zero T
			p.slots[i].value = zero
			p.slots[i].inUse = false
		}
	}
	p.slots = nil
	p.initFreeSlots()
}

// Insert is not supported: elements are only inserted at the head through Emplace.
func (p *Pool[T]) Insert(Handle[T], T) Handle[T] {
	fault(NewUnsupportedOperationError("insert"))
	return p.End()
}

// Clear is not supported: elements are only removed one by one through Erase.
func (p *Pool[T]) Clear() {
	fault(NewUnsupportedOperationError("clear"))
}

// PopBack is not supported.
func (p *Pool[T]) PopBack() {
	fault(NewUnsupportedOperationError("pop back"))
}

// PushFront is not supported: use Emplace, which already inserts at the head.
func (p *Pool[T]) PushFront(T) {
	fault(NewUnsupportedOperationError("push front"))
}

// handle returns a handle to the slot at index, or the end sentinel for InvalidIndex.
func (p *Pool[T]) handle(index SlotIndex) Handle[T] {
	if index == InvalidIndex {
		return p.End()
	}
	return Handle[T]{
		pool:       p,
		index:      index,
		generation: p.slots[index].generation,
	}
}

// check returns nil if h references a live element of this pool.
func (p *Pool[T]) check(h Handle[T]) error {
	if h.IsEnd() {
		return NewInvalidHandleError(InvalidIndex, "end of sequence")
	}
	if h.pool != p {
		return NewInvalidHandleError(h.index, "handle belongs to another pool")
	}
	if int(h.index) >= len(p.slots) {
		return NewInvalidHandleError(h.index, "index out of range")
	}
	s := &p.slots[h.index]
	if !s.inUse {
		return NewInvalidHandleError(h.index, "slot is free")
	}
	if s.generation != h.generation {
		return NewInvalidHandleError(h.index, "slot has been reused")
	}
	return nil
}
