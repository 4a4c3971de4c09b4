package metrics

const (
	namespaceMempool = "mempool"

	subsystemSlotPool = "slot_pool"
)

const (
	ResourcePendingWork = "pending_work"
	ResourceActiveEntry = "active_entry"
)
