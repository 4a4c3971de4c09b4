package slotpool

import (
	"fmt"
)

// Handle references one element of a Pool. It is used both to walk the pool and as a
// removal token for Erase. The zero Handle is the end sentinel.
//
// A handle stays valid until the element it references is erased; it is not affected by
// any other insertion or removal.
type Handle[T any] struct {
	pool       *Pool[T]
	index      SlotIndex
	generation uint32
}

// IsEnd returns true if h is the end sentinel.
func (h Handle[T]) IsEnd() bool {
	return h.pool == nil || h.index == InvalidIndex
}

// Index returns the stable slot index of the referenced element, or InvalidIndex for the end sentinel.
// It does not dereference the handle, so it may be read back from a stale handle.
func (h Handle[T]) Index() SlotIndex {
	if h.IsEnd() {
		return InvalidIndex
	}
	return h.index
}

// Equal returns true if both handles reference the same slot of the same pool, or both are the end sentinel.
func (h Handle[T]) Equal(other Handle[T]) bool {
	if h.IsEnd() || other.IsEnd() {
		return h.IsEnd() == other.IsEnd()
	}
	return h.pool == other.pool && h.index == other.index
}

// Valid returns true if h references a live element.
func (h Handle[T]) Valid() bool {
	return !h.IsEnd() && h.pool.check(h) == nil
}

// Next returns a handle to the element following h, or the end sentinel if h is the last element.
// Calling Next on the end sentinel or on a stale handle panics.
func (h Handle[T]) Next() Handle[T] {
	h.mustBeLive("advance")
	return h.pool.handle(h.pool.slots[h.index].node.next)
}

// Lookup returns the referenced element.
//
// Expected errors during normal operations:
//   - ErrEndOfSequence if h is the end sentinel.
//   - *InvalidHandleError if the referenced element has been erased.
func (h Handle[T]) Lookup() (T, error) {
	var zero T
	if h.IsEnd() {
		return zero, ErrEndOfSequence
	}
	if err := h.pool.check(h); err != nil {
		return zero, err
	}
	return h.pool.slots[h.index].value, nil
}

// Value returns the referenced element. It panics if h is the end sentinel or stale.
func (h Handle[T]) Value() T {
	return *h.Ref()
}

// Ref returns a pointer to the referenced element's storage, which stays put until the
// element is erased. It panics if h is the end sentinel or stale.
func (h Handle[T]) Ref() *T {
	h.mustBeLive("dereference")
	return &h.pool.slots[h.index].value
}

func (h Handle[T]) mustBeLive(op string) {
	if h.IsEnd() {
		fault(fmt.Errorf("could not %s: %w", op, ErrEndOfSequence))
	}
	if err := h.pool.check(h); err != nil {
		fault(fmt.Errorf("could not %s: %w", op, err))
	}
}

func (h Handle[T]) String() string {
	if h.IsEnd() {
		return "end"
	}
	return fmt.Sprintf("slot(%d)", h.index)
}
