package slotpool

import (
	"errors"
	"fmt"

	"github.com/onflow/flow-slotpool/module/irrecoverable"
)

// ErrEndOfSequence is returned when the end sentinel is dereferenced.
var ErrEndOfSequence = errors.New("dereferencing end of sequence")

// CapacityExceededError indicates that an element was inserted into a pool without free slots.
type CapacityExceededError struct {
	capacity uint32
}

func NewCapacityExceededError(capacity uint32) *CapacityExceededError {
	return &CapacityExceededError{capacity: capacity}
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("slot pool capacity exceeded: all %d slots in use", e.capacity)
}

func IsCapacityExceededError(err error) bool {
	var capacityExceededError *CapacityExceededError
	return errors.As(err, &capacityExceededError)
}

// InvalidHandleError indicates that a handle does not reference a live element of the pool:
// it belongs to another pool, its slot was erased, or its slot has been reused since.
type InvalidHandleError struct {
	index  SlotIndex
	reason string
}

func NewInvalidHandleError(index SlotIndex, reason string) *InvalidHandleError {
	return &InvalidHandleError{
		index:  index,
		reason: reason,
	}
}

func (e *InvalidHandleError) Error() string {
	return fmt.Sprintf("invalid handle to slot %d: %s", e.index, e.reason)
}

// Index returns the slot index the rejected handle referenced.
func (e *InvalidHandleError) Index() SlotIndex {
	return e.index
}

func IsInvalidHandleError(err error) bool {
	var invalidHandleError *InvalidHandleError
	return errors.As(err, &invalidHandleError)
}

// UnsupportedOperationError indicates a call to an operation the pool only carries for
// interface compatibility.
type UnsupportedOperationError struct {
	op string
}

func NewUnsupportedOperationError(op string) *UnsupportedOperationError {
	return &UnsupportedOperationError{op: op}
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("slot pool does not support %s", e.op)
}

func IsUnsupportedOperationError(err error) bool {
	var unsupportedOperationError *UnsupportedOperationError
	return errors.As(err, &unsupportedOperationError)
}

// fault aborts the caller on a contract violation.
func fault(err error) {
	panic(irrecoverable.NewException(err))
}
