package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/onflow/flow-slotpool/module"
)

type SlotPoolCollector struct {
	gaugeSlotsInUse prometheus.Gauge

	countSlotAcquired prometheus.Counter
	countSlotReleased prometheus.Counter
	countAcquireDrop  prometheus.Counter
}

var _ module.SlotPoolMetrics = (*SlotPoolCollector)(nil)

func PendingWorkSlotPoolMetricsFactory(registrar prometheus.Registerer) *SlotPoolCollector {
	return NewSlotPoolCollector(namespaceMempool, ResourcePendingWork, registrar)
}

func ActiveEntrySlotPoolMetricsFactory(registrar prometheus.Registerer) *SlotPoolCollector {
	return NewSlotPoolCollector(namespaceMempool, ResourceActiveEntry, registrar)
}

func NewSlotPoolCollector(nameSpace string, poolName string, registrar prometheus.Registerer) *SlotPoolCollector {
	r := NewRegisterer(registrar)

	gaugeSlotsInUse := r.RegisterNewGauge(prometheus.GaugeOpts{
		Namespace: nameSpace,
		Subsystem: subsystemSlotPool,
		Name:      poolName + "_" + "slots_in_use",
		Help:      "number of slots currently holding an element",
	})

	countSlotAcquired := r.RegisterNewCounter(prometheus.CounterOpts{
		Namespace: nameSpace,
		Subsystem: subsystemSlotPool,
		Name:      poolName + "_" + "slot_acquired_total",
		Help:      "total number of elements stored in a free slot",
	})

	countSlotReleased := r.RegisterNewCounter(prometheus.CounterOpts{
		Namespace: nameSpace,
		Subsystem: subsystemSlotPool,
		Name:      poolName + "_" + "slot_released_total",
		Help:      "total number of elements removed from the pool",
	})

	countAcquireDrop := r.RegisterNewCounter(prometheus.CounterOpts{
		Namespace: nameSpace,
		Subsystem: subsystemSlotPool,
		Name:      poolName + "_" + "acquire_dropped_total",
		Help:      "total number of elements dropped because the pool was full",
	})

	return &SlotPoolCollector{
		gaugeSlotsInUse: gaugeSlotsInUse,

		countSlotAcquired: countSlotAcquired,
		countSlotReleased: countSlotReleased,
		countAcquireDrop:  countAcquireDrop,
	}
}

// OnSlotAcquired is called whenever an element is stored in a free slot of the pool.
func (c *SlotPoolCollector) OnSlotAcquired(size uint32) {
	c.countSlotAcquired.Inc()
	c.gaugeSlotsInUse.Set(float64(size))
}

// OnSlotReleased is called whenever an element is removed and its slot returns to the free list.
func (c *SlotPoolCollector) OnSlotReleased(size uint32) {
	c.countSlotReleased.Inc()
	c.gaugeSlotsInUse.Set(float64(size))
}

// OnAcquireDropped is called whenever an element is dropped because the pool was full.
// This is expected under backpressure, but a steadily growing count means the pool is undersized.
func (c *SlotPoolCollector) OnAcquireDropped() {
	c.countAcquireDrop.Inc()
}
