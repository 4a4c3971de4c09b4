package queue

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/onflow/flow-slotpool/module"
	"github.com/onflow/flow-slotpool/module/irrecoverable"
	"github.com/onflow/flow-slotpool/module/slotpool"
)

// SlotStack implements a slot-pool-based in-memory store of pending work.
// It never allocates after construction: entries live in the slots of a fixed-capacity pool.
// Pop returns the most recently pushed entry first.
type SlotStack[T any] struct {
	mu        sync.Mutex
	log       zerolog.Logger
	collector module.SlotPoolMetrics
	pool      *slotpool.Pool[T]
	// handles keeps, per slot index, the handle of the entry currently occupying that slot.
	handles []slotpool.Handle[T]
}

func NewSlotStack[T any](sizeLimit uint32, logger zerolog.Logger, collector module.SlotPoolMetrics) *SlotStack[T] {
	return &SlotStack[T]{
		log:       logger.With().Str("mempool", "slot-stack").Logger(),
		collector: collector,
		pool:      slotpool.New[T](sizeLimit),
		handles:   make([]slotpool.Handle[T], sizeLimit),
	}
}

// Push stores the entry on top of the stack.
// The returned slot index identifies the entry for Remove until the entry leaves the stack.
// Boolean returned variable determines whether push was successful, i.e.,
// push is dropped if the stack is full.
func (s *SlotStack[T]) Push(entry T) (slotpool.SlotIndex, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.pool.Emplace(entry)
	if err != nil {
		// full stack is the only expected error; anything else is a bug in the pool
		if !slotpool.IsCapacityExceededError(err) {
			panic(irrecoverable.NewExceptionf("unexpected error pushing to slot stack: %w", err))
		}
		s.collector.OnAcquireDropped()
		s.log.Debug().
			Uint32("size_limit", s.pool.MaxSize()).
			Msg("slot stack is full, dropping entry")
		return slotpool.InvalidIndex, false
	}

	s.handles[h.Index()] = h
	s.collector.OnSlotAcquired(s.pool.Size())
	return h.Index(), true
}

// Pop removes and returns the top of the stack.
// Boolean return value determines whether pop is successful, i.e., popping an empty stack returns false.
func (s *SlotStack[T]) Pop() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	head := s.pool.Begin()
	if head.IsEnd() {
		var zero T
		return zero, false
	}

	entry := head.Value()
	s.release(head)
	return entry, true
}

// Remove removes the entry stored at the given slot index, wherever it is in the stack.
// Boolean return value determines whether an entry was removed, i.e., it returns false if the slot is free.
func (s *SlotStack[T]) Remove(index slotpool.SlotIndex) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || int(index) >= len(s.handles) || !s.handles[index].Valid() {
		return false
	}

	s.release(s.handles[index])
	return true
}

// Size returns the number of entries in the stack.
func (s *SlotStack[T]) Size() uint {
	s.mu.Lock()
	defer s.mu.Unlock()

	return uint(s.pool.Size())
}

// Snapshot returns all entries, top of the stack first.
func (s *SlotStack[T]) Snapshot() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]T, 0, s.pool.Size())
	for _, entry := range s.pool.All() {
		all = append(all, entry)
	}
	return all
}

// Drain pops and processes entries until the stack is empty.
// Processing errors are unexpected and thrown on the signaler context, which terminates the caller.
// Entries pushed while draining are processed as well.
func (s *SlotStack[T]) Drain(ctx irrecoverable.SignalerContext, process func(T) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		entry, ok := s.Pop()
		if !ok {
			return
		}
		if err := process(entry); err != nil {
			ctx.Throw(fmt.Errorf("could not process pending entry: %w", err))
			return
		}
	}
}

// release erases the entry behind h and forgets its handle.
// NOTE: caller must hold the lock.
func (s *SlotStack[T]) release(h slotpool.Handle[T]) {
	index := h.Index()
	s.pool.MustErase(h)
	s.handles[index] = s.pool.End()
	s.collector.OnSlotReleased(s.pool.Size())
}
