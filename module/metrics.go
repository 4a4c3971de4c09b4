package module

// SlotPoolMetrics tracks occupancy of a fixed-capacity slot pool hosted by a mempool component.
type SlotPoolMetrics interface {
	// OnSlotAcquired is called whenever an element is stored in a free slot of the pool.
	// size is the number of elements held by the pool after the element was stored.
	OnSlotAcquired(size uint32)

	// OnSlotReleased is called whenever an element is removed and its slot returns to the free list.
	// size is the number of elements held by the pool after the element was removed.
	OnSlotReleased(size uint32)

	// OnAcquireDropped is called whenever an element is dropped because every slot of the pool is in use.
	OnAcquireDropped()
}
